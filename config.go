package reporter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-reporter/flags"
	"github.com/ethereum-optimism/infra/op-reporter/publish"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// Config holds the configuration of the generate command
type Config struct {
	TestNGResults     string
	ReportDir         string
	ScreenshotsDir    string
	ReportPrefix      string
	PropertiesFile    string // Optional report property file
	CategoriesFile    string // Optional category file
	TemplateFile      string // Optional custom HTML template
	Timestamp         string
	Views             []types.View
	Summary           bool // Print a summary table to stdout
	FailOnTestFailure bool // Return a TestFailureError when the report has failures
	Publish           *PublishConfig
	Log               log.Logger
}

// PublishConfig holds where and how a finished report is uploaded
type PublishConfig struct {
	Destination publish.Destination
	Endpoint    string
	AccessKey   string
	SecretKey   string
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	resultsPath, err := filepath.Abs(ctx.String(flags.TestNGResults.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for results file '%s': %w", ctx.String(flags.TestNGResults.Name), err)
	}

	reportDir := ctx.String(flags.ReportDir.Name)
	if reportDir == "" {
		return nil, errors.New("report directory is required")
	}
	reportDir, err = filepath.Abs(reportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for report directory '%s': %w", reportDir, err)
	}

	screenshotsDir := ctx.String(flags.ScreenshotsDir.Name)
	if screenshotsDir == "" {
		screenshotsDir = filepath.Join(reportDir, "screenshots")
	}

	timestamp := ctx.String(flags.Timestamp.Name)
	if timestamp == "" {
		timestamp = Timestamp(time.Now())
	}
	if strings.ContainsAny(timestamp, `/\`) {
		return nil, fmt.Errorf("invalid timestamp %q: must not contain path separators", timestamp)
	}

	views, err := types.ParseViewOrder(ctx.String(flags.Views.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid view order: %w", err)
	}

	var publishCfg *PublishConfig
	if to := ctx.String(flags.PublishTo.Name); to != "" {
		dest, err := publish.ParseDestination(to)
		if err != nil {
			return nil, err
		}
		publishCfg = &PublishConfig{
			Destination: dest,
			Endpoint:    ctx.String(flags.PublishEndpoint.Name),
			AccessKey:   ctx.String(flags.PublishAccessKey.Name),
			SecretKey:   ctx.String(flags.PublishSecretKey.Name),
		}
	}

	return &Config{
		TestNGResults:     resultsPath,
		ReportDir:         reportDir,
		ScreenshotsDir:    screenshotsDir,
		ReportPrefix:      ctx.String(flags.ReportPrefix.Name),
		PropertiesFile:    ctx.String(flags.Properties.Name),
		CategoriesFile:    ctx.String(flags.Categories.Name),
		TemplateFile:      ctx.String(flags.Template.Name),
		Timestamp:         timestamp,
		Views:             views,
		Summary:           ctx.Bool(flags.Summary.Name),
		FailOnTestFailure: ctx.Bool(flags.FailOnTestFailure.Name),
		Publish:           publishCfg,
		Log:               log,
	}, nil
}
