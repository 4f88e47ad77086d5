package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// jsonReport is the machine readable form of a report
type jsonReport struct {
	SessionID     string             `json:"sessionId"`
	DocumentTitle string             `json:"documentTitle,omitempty"`
	ReportName    string             `json:"reportName,omitempty"`
	Theme         types.Theme        `json:"theme"`
	StartedAt     time.Time          `json:"startedAt"`
	GeneratedAt   time.Time          `json:"generatedAt"`
	SystemInfo    []types.SystemInfo `json:"systemInfo,omitempty"`
	Stats         jsonStats          `json:"stats"`
	Entries       []types.Entry      `json:"entries"`
}

type jsonStats struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	PassRate float64 `json:"passRate"`
}

// JSONSink writes the report entries as JSON next to the HTML report
type JSONSink struct {
	path string
}

// NewJSONSink creates a sink writing to path
func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

// JSONPathFor returns the JSON file that accompanies an HTML report
func JSONPathFor(htmlPath string) string {
	return strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + ".json"
}

// Path returns the file the sink writes to
func (s *JSONSink) Path() string {
	return s.path
}

// Write implements Sink
func (s *JSONSink) Write(data *ReportData) error {
	out := jsonReport{
		SessionID:     data.SessionID,
		DocumentTitle: data.DocumentTitle,
		ReportName:    data.ReportName,
		Theme:         data.Theme,
		StartedAt:     data.StartedAt,
		GeneratedAt:   data.GeneratedAt,
		SystemInfo:    data.SystemInfo,
		Stats: jsonStats{
			Total:    data.Stats.Total,
			Passed:   data.Stats.Passed,
			Failed:   data.Stats.Failed,
			Skipped:  data.Stats.Skipped,
			PassRate: data.Stats.PassRate,
		},
		Entries: data.Entries,
	}

	content, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	if err := os.WriteFile(s.path, content, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}
