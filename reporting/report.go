package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// Uncategorized is the group name used for entries without a category
const Uncategorized = "Uncategorized"

// ReportStats contains aggregated statistics for a report
type ReportStats struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	PassRate float64
}

// CategoryGroup collects the entries sharing a category
type CategoryGroup struct {
	Name    string
	Stats   ReportStats
	Entries []types.Entry
}

// ExceptionGroup collects failed or skipped entries sharing an error message
type ExceptionGroup struct {
	Message string
	Entries []types.Entry
}

// ReportData contains all the structured data needed for any report format
type ReportData struct {
	SessionID     string
	DocumentTitle string
	ReportName    string
	Theme         types.Theme
	Views         []types.View
	SystemInfo    []types.SystemInfo
	StartedAt     time.Time
	GeneratedAt   time.Time
	Duration      time.Duration

	Stats        ReportStats
	PassRateText string
	HasFailures  bool

	Entries    []types.Entry
	Categories []CategoryGroup
	Exceptions []ExceptionGroup
}

// ReportBuilder constructs ReportData from recorded entries
type ReportBuilder struct {
	now func() time.Time
}

// NewReportBuilder creates a new report builder
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{now: time.Now}
}

// Build creates the report data for the given session snapshot
func (rb *ReportBuilder) Build(meta SessionConfig, sessionID string, startedAt time.Time, entries []types.Entry) *ReportData {
	generatedAt := rb.now()
	report := &ReportData{
		SessionID:     sessionID,
		DocumentTitle: meta.DocumentTitle,
		ReportName:    meta.ReportName,
		Theme:         meta.Theme,
		Views:         meta.Views,
		SystemInfo:    meta.SystemInfo,
		StartedAt:     startedAt,
		GeneratedAt:   generatedAt,
		Entries:       make([]types.Entry, 0, len(entries)),
	}
	if report.Theme == "" {
		report.Theme = types.ThemeStandard
	}
	if len(report.Views) == 0 {
		report.Views = types.DefaultViewOrder
	}
	if !startedAt.IsZero() && generatedAt.After(startedAt) {
		report.Duration = generatedAt.Sub(startedAt)
	}

	categories := make(map[string]*CategoryGroup)
	categoryOrder := make([]string, 0)
	exceptions := make(map[string]*ExceptionGroup)
	exceptionOrder := make([]string, 0)

	for _, entry := range entries {
		entry.Message = stripansi.Strip(entry.Message)
		entry.Detail = stripansi.Strip(entry.Detail)
		report.Entries = append(report.Entries, entry)
		updateStats(&report.Stats, entry.Status)

		name := entry.Category
		if name == "" {
			name = Uncategorized
		}
		group, ok := categories[name]
		if !ok {
			group = &CategoryGroup{Name: name}
			categories[name] = group
			categoryOrder = append(categoryOrder, name)
		}
		group.Entries = append(group.Entries, entry)
		updateStats(&group.Stats, entry.Status)

		if entry.Status == types.TestStatusPass {
			continue
		}
		msg := firstLine(entry.Message)
		if msg == "" {
			continue
		}
		exc, ok := exceptions[msg]
		if !ok {
			exc = &ExceptionGroup{Message: msg}
			exceptions[msg] = exc
			exceptionOrder = append(exceptionOrder, msg)
		}
		exc.Entries = append(exc.Entries, entry)
	}

	sort.Strings(categoryOrder)
	for _, name := range categoryOrder {
		group := categories[name]
		group.Stats.PassRate = passRate(group.Stats)
		report.Categories = append(report.Categories, *group)
	}
	for _, msg := range exceptionOrder {
		report.Exceptions = append(report.Exceptions, *exceptions[msg])
	}

	report.Stats.PassRate = passRate(report.Stats)
	report.PassRateText = fmt.Sprintf("%.1f", report.Stats.PassRate)
	report.HasFailures = report.Stats.Failed > 0

	return report
}

// updateStats updates statistics counters
func updateStats(stats *ReportStats, status types.TestStatus) {
	stats.Total++

	switch status {
	case types.TestStatusPass:
		stats.Passed++
	case types.TestStatusFail:
		stats.Failed++
	case types.TestStatusSkip:
		stats.Skipped++
	}
}

func passRate(stats ReportStats) float64 {
	if stats.Total == 0 {
		return 0
	}
	return float64(stats.Passed) / float64(stats.Total) * 100
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
