package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-reporter/types"
	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

const EnvVarPrefix = "OP_REPORTER"

var (
	TestNGResults = &cli.StringFlag{
		Name:    "testng-results",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TESTNG_RESULTS"),
		Usage:   "Path to the TestNG results file to build the report from (eg. 'target/surefire-reports/testng-results.xml')",
	}
	ReportDir = &cli.StringFlag{
		Name:    "report-dir",
		Value:   "reports",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_DIR"),
		Usage:   "Directory the HTML report is written to, or served from",
	}
	ScreenshotsDir = &cli.StringFlag{
		Name:    "screenshots-dir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SCREENSHOTS_DIR"),
		Usage:   "Directory screenshots are copied to. Defaults to '<report-dir>/screenshots'",
	}
	ReportPrefix = &cli.StringFlag{
		Name:    "report-prefix",
		Value:   "test-report-",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_PREFIX"),
		Usage:   "File name prefix of the report, followed by the run timestamp",
	}
	Properties = &cli.StringFlag{
		Name:    "properties",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROPERTIES"),
		Usage:   "Report property file (.properties, .yaml or .toml) holding theme, titles and system info",
	}
	Categories = &cli.StringFlag{
		Name:    "categories",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CATEGORIES"),
		Usage:   "YAML file mapping test classes and methods to report categories",
	}
	Timestamp = &cli.StringFlag{
		Name:    "timestamp",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TIMESTAMP"),
		Usage:   "Run timestamp used in file names (eg. '20210704_1540'). Defaults to the current time",
	}
	Views = &cli.StringFlag{
		Name:    "views",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "VIEWS"),
		Usage:   "Comma separated report view order (dashboard, test, category, exception)",
		Action: func(_ *cli.Context, v string) error {
			_, err := types.ParseViewOrder(v)
			return err
		},
	}
	Template = &cli.StringFlag{
		Name:    "template",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TEMPLATE"),
		Usage:   "Custom HTML template replacing the embedded one",
	}
	Summary = &cli.BoolFlag{
		Name:    "summary",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUMMARY"),
		Usage:   "Print a summary table to stdout after writing the report",
	}
	FailOnTestFailure = &cli.BoolFlag{
		Name:    "fail-on-test-failure",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAIL_ON_TEST_FAILURE"),
		Usage:   "Exit with code 1 when the report contains failed tests",
	}
	PublishTo = &cli.StringFlag{
		Name:    "publish-to",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PUBLISH_TO"),
		Usage:   "Upload the report directory to this location (eg. 's3://bucket/prefix')",
	}
	PublishEndpoint = &cli.StringFlag{
		Name:    "publish-endpoint",
		Value:   "https://s3.amazonaws.com",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PUBLISH_ENDPOINT"),
		Usage:   "S3 compatible endpoint used with --publish-to",
	}
	PublishAccessKey = &cli.StringFlag{
		Name:    "publish-access-key",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PUBLISH_ACCESS_KEY"),
		Usage:   "Access key used with --publish-to",
	}
	PublishSecretKey = &cli.StringFlag{
		Name:    "publish-secret-key",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PUBLISH_SECRET_KEY"),
		Usage:   "Secret key used with --publish-to",
	}
	Addr = &cli.StringFlag{
		Name:    "addr",
		Value:   "0.0.0.0:8080",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ADDR"),
		Usage:   "Address the report server listens on",
	}
	MetricsAddr = &cli.StringFlag{
		Name:    "metrics-addr",
		Value:   "0.0.0.0:7300",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "METRICS_ADDR"),
		Usage:   "Address the metrics server listens on. Empty disables metrics",
	}
)

var requiredGenerateFlags = []cli.Flag{
	TestNGResults,
}

var optionalGenerateFlags = []cli.Flag{
	ReportDir,
	ScreenshotsDir,
	ReportPrefix,
	Properties,
	Categories,
	Timestamp,
	Views,
	Template,
	Summary,
	FailOnTestFailure,
	PublishTo,
	PublishEndpoint,
	PublishAccessKey,
	PublishSecretKey,
}

var ServeFlags = []cli.Flag{
	ReportDir,
	Addr,
	MetricsAddr,
}

// GlobalFlags are accepted by every command
var GlobalFlags []cli.Flag

// GenerateFlags are the flags of the generate command
var GenerateFlags []cli.Flag

func init() {
	GlobalFlags = append(GlobalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	GenerateFlags = append(append(GenerateFlags, requiredGenerateFlags...), optionalGenerateFlags...)
}

// CheckRequired verifies the flags the generate command cannot run without
func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredGenerateFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
