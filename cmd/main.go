package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	reporter "github.com/ethereum-optimism/infra/op-reporter"
	"github.com/ethereum-optimism/infra/op-reporter/exitcodes"
	"github.com/ethereum-optimism/infra/op-reporter/flags"
	"github.com/ethereum-optimism/infra/op-reporter/service"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-reporter"
	app.Usage = "HTML test report generator"
	app.Description = "op-reporter turns UI test results into HTML reports with screenshots and categories"
	app.Flags = cliapp.ProtectFlags(flags.GlobalFlags)
	app.Commands = []*cli.Command{
		{
			Name:   "generate",
			Usage:  "Generate a report from a TestNG results file",
			Flags:  cliapp.ProtectFlags(flags.GenerateFlags),
			Action: cliapp.LifecycleCmd(runGenerate),
		},
		{
			Name:   "serve",
			Usage:  "Serve generated reports over HTTP",
			Flags:  cliapp.ProtectFlags(flags.ServeFlags),
			Action: cliapp.LifecycleCmd(runServe),
		},
	}
	app.ExitErrHandler = exitErrHandler
	return app
}

func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	cli.HandleExitCoder(toExitCoder(err))
}

// toExitCoder maps errors to the documented exit codes
func toExitCoder(err error) cli.ExitCoder {
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if reporter.IsRuntimeError(err) {
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}
	if reporter.IsTestFailureError(err) {
		return cli.Exit(err.Error(), exitcodes.TestFailure)
	}
	// Anything else failed before a report could be produced
	return cli.Exit(err.Error(), exitcodes.RuntimeErr)
}

func setupLogging(ctx *cli.Context) log.Logger {
	logCfg := oplog.ReadCLIConfig(ctx)
	logger := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(logger.Handler())
	oplog.SetupDefaults()
	return logger
}

func runGenerate(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logger := setupLogging(ctx)

	cfg, err := reporter.NewConfig(ctx, logger)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, reporter.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	gen, err := reporter.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		return nil, reporter.NewRuntimeError(fmt.Errorf("failed to create report generator: %w", err))
	}
	return gen, nil
}

func runServe(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logger := setupLogging(ctx)

	svc, err := service.New(service.Config{
		ReportDir:   ctx.String(flags.ReportDir.Name),
		Addr:        ctx.String(flags.Addr.Name),
		MetricsAddr: ctx.String(flags.MetricsAddr.Name),
		Log:         logger,
		OnError:     closeApp,
	})
	if err != nil {
		return nil, reporter.NewRuntimeError(fmt.Errorf("failed to create report service: %w", err))
	}
	return svc, nil
}
