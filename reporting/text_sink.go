package reporting

import (
	"fmt"
)

// TextSummarySink prints a table summary of the report
type TextSummarySink struct {
	formatter *TableFormatter
	writer    ReportWriter
}

// NewTextSummarySink creates a sink rendering a table to writer
func NewTextSummarySink(writer ReportWriter, title string, showEntries bool) *TextSummarySink {
	return &TextSummarySink{
		formatter: NewTableFormatter(title, showEntries),
		writer:    writer,
	}
}

// Write implements Sink
func (s *TextSummarySink) Write(data *ReportData) error {
	content, err := s.formatter.Format(data)
	if err != nil {
		return fmt.Errorf("failed to format text summary: %w", err)
	}
	if err := s.writer.Write(content); err != nil {
		return fmt.Errorf("failed to write text summary: %w", err)
	}
	return nil
}
