package reporting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// Sink consumes a finished report, e.g. by rendering it to a file
type Sink interface {
	Write(data *ReportData) error
}

// SessionConfig holds the descriptive configuration of a report
type SessionConfig struct {
	ReportPath    string // Path of the HTML report file
	DocumentTitle string
	ReportName    string
	Theme         types.Theme
	Views         []types.View
	SystemInfo    []types.SystemInfo
}

// Session accumulates the entries of one test run until it is flushed.
// Entries are only ever appended.
type Session struct {
	id        string
	startedAt time.Time
	log       log.Logger
	builder   *ReportBuilder

	mu      sync.Mutex
	cfg     SessionConfig
	entries []types.Entry
	sinks   []Sink
}

// NewSession creates a session writing to cfg.ReportPath. The report
// directory is created up front so that a bad location fails early.
func NewSession(cfg SessionConfig, logger log.Logger) (*Session, error) {
	if cfg.ReportPath == "" {
		return nil, errors.New("report path cannot be empty")
	}
	if logger == nil {
		logger = log.New()
	}
	if cfg.Theme == "" {
		cfg.Theme = types.ThemeStandard
	}
	if len(cfg.Views) == 0 {
		cfg.Views = append([]types.View(nil), types.DefaultViewOrder...)
	}

	dir := filepath.Dir(cfg.ReportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	return &Session{
		id:        uuid.New().String(),
		startedAt: time.Now(),
		log:       logger,
		builder:   NewReportBuilder(),
		cfg:       cfg,
		entries:   make([]types.Entry, 0),
	}, nil
}

// ID returns the unique identifier of the session
func (s *Session) ID() string {
	return s.id
}

// ReportPath returns the path of the HTML report
func (s *Session) ReportPath() string {
	return s.cfg.ReportPath
}

// Config returns a copy of the session configuration
func (s *Session) Config() SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg
	cfg.Views = append([]types.View(nil), s.cfg.Views...)
	cfg.SystemInfo = append([]types.SystemInfo(nil), s.cfg.SystemInfo...)
	return cfg
}

// SetTheme sets the colour theme of the report
func (s *Session) SetTheme(theme types.Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Theme = theme
}

// SetDocumentTitle sets the HTML document title
func (s *Session) SetDocumentTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.DocumentTitle = title
}

// SetReportName sets the name shown in the report header
func (s *Session) SetReportName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.ReportName = name
}

// AddSystemInfo appends a descriptive key/value pair to the dashboard
func (s *Session) AddSystemInfo(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.SystemInfo = append(s.cfg.SystemInfo, types.SystemInfo{Name: name, Value: value})
}

// AttachSink registers a consumer of the flushed report
func (s *Session) AttachSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// Append stores a new entry, filling in its ID and record time, and returns
// the stored copy
func (s *Session) Append(entry types.Entry) types.Entry {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	metrics.RecordEntry(entry.Status, entry.Category)
	return entry
}

// Entries returns a copy of the recorded entries in recording order
func (s *Session) Entries() []types.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Entry(nil), s.entries...)
}

// Len returns the number of recorded entries
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Snapshot builds the report data for the current state of the session
func (s *Session) Snapshot() *ReportData {
	cfg := s.Config()
	return s.builder.Build(cfg, s.id, s.startedAt, s.Entries())
}

// Flush renders the accumulated entries through every attached sink.
// Flushing more than once rewrites the outputs with the entries known at
// that point.
func (s *Session) Flush() error {
	start := time.Now()
	data := s.Snapshot()

	s.mu.Lock()
	sinks := append([]Sink(nil), s.sinks...)
	s.mu.Unlock()

	if len(sinks) == 0 {
		s.log.Warn("Flushing report without sinks, nothing will be written", "session", s.id)
	}

	for _, sink := range sinks {
		if err := sink.Write(data); err != nil {
			metrics.RecordErrorDetails("flush", err)
			return fmt.Errorf("error in sink: %w", err)
		}
	}

	metrics.RecordReport(filepath.Base(s.cfg.ReportPath), data.Stats.Passed, data.Stats.Failed, data.Stats.Skipped, time.Since(start))
	s.log.Info("Report written",
		"path", s.cfg.ReportPath,
		"total", data.Stats.Total,
		"passed", data.Stats.Passed,
		"failed", data.Stats.Failed,
		"skipped", data.Stats.Skipped)
	return nil
}
