package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// HTMLSink renders the report into a single HTML file
type HTMLSink struct {
	formatter *HTMLFormatter
	path      string
}

// NewHTMLSink creates a sink writing to path. An empty templateContent uses
// the embedded template.
func NewHTMLSink(path, templateContent string) (*HTMLSink, error) {
	formatter, err := NewHTMLFormatter(templateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTML formatter: %w", err)
	}
	return &HTMLSink{formatter: formatter, path: path}, nil
}

// Path returns the file the sink writes to
func (s *HTMLSink) Path() string {
	return s.path
}

// Write implements Sink
func (s *HTMLSink) Write(data *ReportData) error {
	htmlOutput, err := s.formatter.Format(data)
	if err != nil {
		return fmt.Errorf("failed to format HTML: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	if err := NewFileWriter(s.path).Write(htmlOutput); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}
	return nil
}
