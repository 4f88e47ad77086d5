package reporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ethereum-optimism/infra/op-reporter/category"
	"github.com/ethereum-optimism/infra/op-reporter/properties"
	"github.com/ethereum-optimism/infra/op-reporter/publish"
	"github.com/ethereum-optimism/infra/op-reporter/reporting"
	"github.com/ethereum-optimism/infra/op-reporter/screenshot"
	"github.com/ethereum-optimism/infra/op-reporter/testng"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// Result describes a generated report
type Result struct {
	ReportPath string
	Summary    testng.Summary
	Published  []string // Object names of uploaded files
}

// generator implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &generator{}

// generator builds a report from a TestNG results file.
type generator struct {
	config  *Config
	version string
	result  *Result

	summaryOut  io.Writer
	newUploader func(cfg *PublishConfig) (publish.Uploader, error)

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*generator, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating report generator with config",
		"results", config.TestNGResults,
		"reportDir", config.ReportDir,
		"screenshotsDir", config.ScreenshotsDir,
		"timestamp", config.Timestamp)

	return &generator{
		config:           config,
		version:          version,
		summaryOut:       os.Stdout,
		newUploader:      defaultUploader,
		shutdownCallback: shutdownCallback,
	}, nil
}

func defaultUploader(cfg *PublishConfig) (publish.Uploader, error) {
	return publish.NewMinioUploader(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey)
}

// Start generates the report and then asks the application to shut down.
// Start implements the cliapp.Lifecycle interface.
func (g *generator) Start(ctx context.Context) error {
	g.running.Store(true)
	g.config.Log.Info("Starting op-reporter", "version", g.version, "results", g.config.TestNGResults)

	result, err := g.Generate(ctx)
	if err != nil {
		g.config.Log.Error("Failed to generate report", "error", err)
		return NewRuntimeError(err)
	}
	g.result = result

	if g.config.FailOnTestFailure && result.Summary.Failed > 0 {
		g.config.Log.Warn("Report contains failed tests, returning exit code 1")
		return NewTestFailureError(result.Summary.String())
	}

	go func() {
		g.shutdownCallback(nil)
	}()
	return nil
}

// Generate builds the report, writes it and publishes it if configured
func (g *generator) Generate(ctx context.Context) (*Result, error) {
	ctx, span := otel.Tracer("report generator").Start(ctx, "generate report")
	defer span.End()

	results, err := testng.ParseFile(g.config.TestNGResults)
	if err != nil {
		return nil, err
	}
	records, err := results.Records()
	if err != nil {
		return nil, fmt.Errorf("invalid TestNG results: %w", err)
	}

	lookup, err := g.categories(results)
	if err != nil {
		return nil, err
	}

	var tmpl string
	if g.config.TemplateFile != "" {
		content, err := os.ReadFile(g.config.TemplateFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read HTML template: %w", err)
		}
		tmpl = string(content)
	}

	var summary reporting.ReportWriter
	if g.config.Summary {
		summary = reporting.NewStreamWriter(g.summaryOut)
	}

	recorder, err := NewRecorder(RecorderConfig{
		ReportDir:      g.config.ReportDir,
		ScreenshotsDir: g.config.ScreenshotsDir,
		FilePrefix:     g.config.ReportPrefix,
		Timestamp:      g.config.Timestamp,
		Views:          g.config.Views,
		HTMLTemplate:   tmpl,
		Properties:     g.properties(),
		Categories:     lookup,
		Drivers:        screenshot.NewHolder(nil),
		Summary:        summary,
		Log:            g.config.Log,
	})
	if err != nil {
		return nil, err
	}

	// Results are replayed after the fact, so there is never a browser to
	// take screenshots from.
	listener := NewListener(recorder, g.config.Timestamp)
	replayed, err := testng.Replay(ctx, listener, records)
	if err != nil {
		return nil, fmt.Errorf("failed to replay results: %w", err)
	}
	if err := listener.OnFinish(ctx); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("report.total", replayed.Total),
		attribute.Int("report.failed", replayed.Failed),
	)
	g.config.Log.Info("Report generated", "path", recorder.ReportPath(), "summary", replayed.String())

	result := &Result{ReportPath: recorder.ReportPath(), Summary: replayed}
	if g.config.Publish != nil {
		published, err := g.publish(ctx)
		if err != nil {
			return nil, err
		}
		result.Published = published
	}
	return result, nil
}

// properties loads the report property file. An unreadable file does not
// stop the report from being written, it only loses its metadata.
func (g *generator) properties() properties.Source {
	if g.config.PropertiesFile == "" {
		return nil
	}
	props, err := properties.Load(g.config.PropertiesFile)
	if err != nil {
		g.config.Log.Warn("Failed to load report properties", "file", g.config.PropertiesFile, "err", err)
		return nil
	}
	return props
}

// categories combines the category file with the groups found in the results.
// The category file wins when both know a method.
func (g *generator) categories(results *testng.Results) (category.Lookup, error) {
	groups := results.GroupLookup()
	if g.config.CategoriesFile == "" {
		return groups, nil
	}
	registry, err := category.LoadRegistry(g.config.CategoriesFile, g.config.Log)
	if err != nil {
		return nil, err
	}
	return category.Chain{registry, groups}, nil
}

func (g *generator) publish(ctx context.Context) ([]string, error) {
	cfg := g.config.Publish
	uploader, err := g.newUploader(cfg)
	if err != nil {
		return nil, err
	}
	publisher, err := publish.NewPublisher(uploader, cfg.Destination, g.config.Log)
	if err != nil {
		return nil, err
	}
	return publisher.Publish(ctx, g.config.ReportDir, g.config.Timestamp)
}

// Stop implements the cliapp.Lifecycle interface.
func (g *generator) Stop(ctx context.Context) error {
	if !g.running.Swap(false) {
		return nil
	}
	g.config.Log.Info("Stopping op-reporter")
	return nil
}

// Stopped returns true if the generator is not running.
// Stopped implements the cliapp.Lifecycle interface.
func (g *generator) Stopped() bool {
	return !g.running.Load()
}
