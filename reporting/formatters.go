package reporting

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// DefaultHTMLTemplate is the embedded template used when no custom one is given
const DefaultHTMLTemplate = "report.html.tmpl"

//go:embed templates/*.tmpl
var templateFS embed.FS

// StatusDisplay represents display information for a test status
type StatusDisplay struct {
	Text  string // Human-readable status text
	Class string // CSS class or style identifier
}

// getStatusDisplay returns human-readable status text and CSS class
func getStatusDisplay(status types.TestStatus) StatusDisplay {
	switch status {
	case types.TestStatusPass:
		return StatusDisplay{Text: "PASS", Class: "pass"}
	case types.TestStatusFail:
		return StatusDisplay{Text: "FAIL", Class: "fail"}
	case types.TestStatusSkip:
		return StatusDisplay{Text: "SKIP", Class: "skip"}
	default:
		return StatusDisplay{Text: "UNKNOWN", Class: "unknown"}
	}
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

// templateFuncs returns the functions available to report templates
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDuration": formatDuration,
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2006-01-02 15:04:05")
		},
		"statusClass": func(status types.TestStatus) string {
			return getStatusDisplay(status).Class
		},
		"statusText": func(status types.TestStatus) string {
			return getStatusDisplay(status).Text
		},
		"viewName": func(v types.View) string {
			return string(v)
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
}

// ReportFormatter defines the interface for different report output formats
type ReportFormatter interface {
	Format(data *ReportData) (string, error)
}

// ReportWriter defines the interface for writing reports to various destinations
type ReportWriter interface {
	Write(content string) error
}

// FileWriter writes reports to a file
type FileWriter struct {
	path string
}

// NewFileWriter creates a new file writer
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Write writes the content to the file
func (fw *FileWriter) Write(content string) error {
	return os.WriteFile(fw.path, []byte(content), 0644)
}

// StreamWriter writes reports to an io.Writer such as stdout
type StreamWriter struct {
	w io.Writer
}

// NewStdoutWriter creates a new stdout writer
func NewStdoutWriter() *StreamWriter {
	return &StreamWriter{w: os.Stdout}
}

// NewStreamWriter creates a writer around an arbitrary io.Writer
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// Write writes the content to the stream
func (sw *StreamWriter) Write(content string) error {
	_, err := io.WriteString(sw.w, content)
	return err
}

// HTMLFormatter formats reports as HTML
type HTMLFormatter struct {
	template *template.Template
}

// NewHTMLFormatter creates a new HTML formatter. An empty templateContent
// selects the embedded default template.
func NewHTMLFormatter(templateContent string) (*HTMLFormatter, error) {
	if templateContent == "" {
		content, err := templateFS.ReadFile("templates/" + DefaultHTMLTemplate)
		if err != nil {
			return nil, fmt.Errorf("failed to read HTML template: %w", err)
		}
		templateContent = string(content)
	}

	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}

	return &HTMLFormatter{
		template: tmpl,
	}, nil
}

// Format formats the report data as HTML
func (hf *HTMLFormatter) Format(data *ReportData) (string, error) {
	var buf bytes.Buffer
	if err := hf.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return buf.String(), nil
}

// TableFormatter formats reports as a plain text table
type TableFormatter struct {
	title       string
	showEntries bool
}

// NewTableFormatter creates a table formatter. With showEntries false only
// the per-category summary is printed.
func NewTableFormatter(title string, showEntries bool) *TableFormatter {
	return &TableFormatter{title: title, showEntries: showEntries}
}

// Format formats the report data as a table
func (tf *TableFormatter) Format(data *ReportData) (string, error) {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	title := tf.title
	if title == "" {
		title = data.ReportName
	}
	t.SetTitle(fmt.Sprintf("%s (%s)", title, formatDuration(data.Duration)))

	t.AppendHeader(table.Row{
		"Type", "Name", "Category", "Tests", "Passed", "Failed", "Skipped", "Status",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "Name", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
	})

	for _, group := range data.Categories {
		t.AppendRow(table.Row{
			"Category",
			group.Name,
			"",
			group.Stats.Total,
			group.Stats.Passed,
			group.Stats.Failed,
			group.Stats.Skipped,
			getResultString(groupStatus(group.Stats)),
		})

		if !tf.showEntries {
			continue
		}
		for i, entry := range group.Entries {
			prefix := "├─"
			if i == len(group.Entries)-1 {
				prefix = "└─"
			}
			t.AppendRow(table.Row{
				"Test",
				fmt.Sprintf("%s %s.%s", prefix, types.SimpleClassName(entry.ClassName), entry.Name),
				entry.Category,
				"-",
				boolToInt(entry.Status == types.TestStatusPass),
				boolToInt(entry.Status == types.TestStatusFail),
				boolToInt(entry.Status == types.TestStatusSkip),
				getResultString(entry.Status),
			})
		}
		t.AppendSeparator()
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		"",
		data.Stats.Total,
		data.Stats.Passed,
		data.Stats.Failed,
		data.Stats.Skipped,
		fmt.Sprintf("%s (%s%%)", getResultString(groupStatus(data.Stats)), data.PassRateText),
	})
	t.Render()

	return buf.String(), nil
}

func groupStatus(stats ReportStats) types.TestStatus {
	if stats.Failed > 0 {
		return types.TestStatusFail
	}
	if stats.Skipped > 0 && stats.Passed == 0 {
		return types.TestStatusSkip
	}
	return types.TestStatusPass
}

// getResultString returns a string representing the test result
func getResultString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "✓ pass"
	case types.TestStatusSkip:
		return "- skip"
	default:
		return "✗ fail"
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
