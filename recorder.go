package reporter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-reporter/category"
	"github.com/ethereum-optimism/infra/op-reporter/properties"
	"github.com/ethereum-optimism/infra/op-reporter/reporting"
	"github.com/ethereum-optimism/infra/op-reporter/screenshot"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// systemInfoKeys maps the dashboard labels to the properties they are read from.
// The order is the order they appear in the report.
var systemInfoKeys = []struct {
	label string
	key   string
}{
	{"Application Name", properties.KeyApplicationName},
	{"Environment", properties.KeyEnvironment},
	{"Browser", properties.KeyBrowser},
	{"Operating System", properties.KeyOperatingSystem},
	{"Test Developer", properties.KeyTestDeveloper},
}

// RecorderConfig configures a Recorder
type RecorderConfig struct {
	ReportDir      string             // Directory the HTML report is written to
	ScreenshotsDir string             // Directory screenshots are copied to; defaults to <ReportDir>/screenshots
	FilePrefix     string             // Report file name prefix, e.g. "test-report-"
	Timestamp      string             // Run timestamp appended to the report file name
	Views          []types.View       // Report view order; defaults to types.DefaultViewOrder
	HTMLTemplate   string             // Custom HTML template content; empty selects the embedded one
	Properties     properties.Source  // Report metadata; nil behaves like an unreadable file
	Categories     category.Lookup    // Category lookup; nil assigns no category
	Drivers        *screenshot.Holder // Current browser driver, may be empty
	Summary        reporting.ReportWriter
	Log            log.Logger
}

// Recorder turns test outcomes into report entries and writes the report on
// Finalize. One Recorder owns exactly one report session.
type Recorder struct {
	session    *reporting.Session
	capturer   *screenshot.Capturer
	categories category.Lookup
	log        log.Logger
	tracer     trace.Tracer
}

// ReportPath returns the report file for the given directory, prefix and timestamp
func ReportPath(dir, prefix, timestamp string) string {
	return filepath.Join(dir, prefix+timestamp+".html")
}

// NewRecorder creates the report session and reads the report metadata.
// Problems reading metadata never fail the call: the theme falls back to
// standard and unreadable fields are left out.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.ReportDir == "" {
		return nil, errors.New("report directory is required")
	}
	if cfg.Timestamp == "" {
		return nil, errors.New("timestamp is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.ScreenshotsDir == "" {
		cfg.ScreenshotsDir = filepath.Join(cfg.ReportDir, "screenshots")
	}
	if cfg.Categories == nil {
		cfg.Categories = category.None
	}

	session, err := reporting.NewSession(reporting.SessionConfig{
		ReportPath: ReportPath(cfg.ReportDir, cfg.FilePrefix, cfg.Timestamp),
		Views:      cfg.Views,
	}, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create report session: %w", err)
	}

	htmlSink, err := reporting.NewHTMLSink(session.ReportPath(), cfg.HTMLTemplate)
	if err != nil {
		return nil, err
	}
	session.AttachSink(htmlSink)
	session.AttachSink(reporting.NewJSONSink(reporting.JSONPathFor(session.ReportPath())))
	if cfg.Summary != nil {
		session.AttachSink(reporting.NewTextSummarySink(cfg.Summary, "", false))
	}

	r := &Recorder{
		session:    session,
		capturer:   screenshot.NewCapturer(cfg.ScreenshotsDir, cfg.Drivers, cfg.Log),
		categories: cfg.Categories,
		log:        cfg.Log,
		tracer:     otel.Tracer("report recorder"),
	}
	r.applyProperties(cfg.Properties)

	cfg.Log.Debug("Created report recorder",
		"report", session.ReportPath(),
		"screenshots", cfg.ScreenshotsDir,
		"session", session.ID())
	return r, nil
}

func (r *Recorder) applyProperties(src properties.Source) {
	if src == nil {
		r.log.Warn("No report properties configured, using defaults")
		r.session.SetTheme(types.ThemeStandard)
		return
	}

	theme, err := properties.Resolve(src, properties.KeyTheme)
	if err != nil {
		r.log.Warn("Failed to read report theme, using standard theme", "err", err)
		r.session.SetTheme(types.ThemeStandard)
	} else {
		r.session.SetTheme(types.ParseTheme(theme))
	}

	if title, ok := r.readProperty(src, properties.KeyDocumentTitle); ok {
		r.session.SetDocumentTitle(title)
	}
	if name, ok := r.readProperty(src, properties.KeyReportName); ok {
		r.session.SetReportName(name)
	}
	for _, info := range systemInfoKeys {
		if value, ok := r.readProperty(src, info.key); ok {
			r.session.AddSystemInfo(info.label, value)
		}
	}
}

func (r *Recorder) readProperty(src properties.Source, key string) (string, bool) {
	value, err := properties.Resolve(src, key)
	if err != nil {
		if properties.IsMissingProperty(err) {
			r.log.Debug("Report property not set", "key", key)
		} else {
			r.log.Warn("Failed to read report property", "key", key, "err", err)
		}
		return "", false
	}
	return value, true
}

// Session returns the underlying report session
func (r *Recorder) Session() *reporting.Session {
	return r.session
}

// ReportPath returns the path of the HTML report
func (r *Recorder) ReportPath() string {
	return r.session.ReportPath()
}

// RecordSuccess appends a passed entry for the outcome
func (r *Recorder) RecordSuccess(ctx context.Context, outcome types.Outcome) types.Entry {
	return r.session.Append(r.newEntry(outcome, types.TestStatusPass))
}

// RecordFailure appends a failed entry carrying the error message and detail.
// A screenshot named after the test and timestamp is attached when the
// current driver can provide one.
func (r *Recorder) RecordFailure(ctx context.Context, outcome types.Outcome, timestamp string) types.Entry {
	entry := r.newEntry(outcome, types.TestStatusFail)
	entry.Message = outcome.ErrorMessage()
	entry.Detail = outcome.ErrorDetail()

	if path, ok := r.capturer.Capture(ctx, outcome.Name, timestamp); ok {
		entry.Screenshot = path
	}
	return r.session.Append(entry)
}

// RecordSkipped appends a skipped entry carrying the skip reason
func (r *Recorder) RecordSkipped(ctx context.Context, outcome types.Outcome) types.Entry {
	entry := r.newEntry(outcome, types.TestStatusSkip)
	entry.Message = outcome.ErrorMessage()
	entry.Detail = outcome.ErrorDetail()
	return r.session.Append(entry)
}

// Finalize writes the report. It is meant to be called once, after the last
// outcome was recorded.
func (r *Recorder) Finalize(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "finalize report")
	defer span.End()
	span.SetAttributes(
		attribute.String("report.path", r.session.ReportPath()),
		attribute.Int("report.entries", r.session.Len()),
	)

	if err := r.session.Flush(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (r *Recorder) newEntry(outcome types.Outcome, status types.TestStatus) types.Entry {
	return types.Entry{
		Name:        outcome.Name,
		ClassName:   outcome.ClassName,
		Description: outcome.Description,
		Category:    r.categories.Category(outcome.ClassName, outcome.Name),
		Status:      status,
		Duration:    outcome.Duration(),
	}
}
