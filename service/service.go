package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

const (
	DefaultAddr        = "0.0.0.0:8080"
	DefaultMetricsAddr = "0.0.0.0:7300"
)

// Config configures the report service
type Config struct {
	ReportDir   string
	Addr        string
	MetricsAddr string // Empty disables the metrics server
	Log         log.Logger
	OnError     func(error) // Called when a server stops unexpectedly
}

// Service serves finished reports and metrics.
// Service implements the cliapp.Lifecycle interface.
type Service struct {
	Reports *ReportsServer
	Metrics *MetricsServer

	log     log.Logger
	onError func(error)
	running atomic.Bool
	wg      sync.WaitGroup
}

var _ cliapp.Lifecycle = (*Service)(nil)

func New(cfg Config) (*Service, error) {
	if cfg.ReportDir == "" {
		return nil, errors.New("report directory is required")
	}
	info, err := os.Stat(cfg.ReportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat report directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("report directory %s is not a directory", cfg.ReportDir)
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.OnError == nil {
		cfg.OnError = func(error) {}
	}

	s := &Service{
		Reports: NewReportsServer(cfg.ReportDir, cfg.Addr, cfg.Log),
		log:     cfg.Log,
		onError: cfg.OnError,
	}
	if cfg.MetricsAddr != "" {
		s.Metrics = NewMetricsServer(cfg.MetricsAddr)
	}
	return s, nil
}

// Start launches the servers in the background.
// Start implements the cliapp.Lifecycle interface.
func (s *Service) Start(ctx context.Context) error {
	s.log.Info("service starting")
	s.running.Store(true)

	s.serve("reports", s.Reports.server.Addr, s.Reports.Start)
	if s.Metrics != nil {
		s.serve("metrics", s.Metrics.server.Addr, s.Metrics.Start)
	}

	s.log.Info("service started")
	return nil
}

func (s *Service) serve(name, addr string, start func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("starting server", "server", name, "addr", addr)
		if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("error starting server", "server", name, "err", err)
			metrics.RecordErrorDetails(fmt.Sprintf("error starting %s server", name), err)
			s.onError(err)
		}
	}()
}

// Stop shuts the servers down and waits for them to exit.
// Stop implements the cliapp.Lifecycle interface.
func (s *Service) Stop(ctx context.Context) error {
	if !s.running.Swap(false) {
		s.log.Debug("Service already stopped, nothing to do")
		return nil
	}
	s.log.Info("service shutting down")

	var result error
	if err := s.Reports.Shutdown(ctx); err != nil {
		result = errors.Join(result, fmt.Errorf("failed to stop reports server: %w", err))
	}
	if s.Metrics != nil {
		if err := s.Metrics.Shutdown(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	s.wg.Wait()

	s.log.Info("service stopped")
	return result
}

// Stopped returns true if the service is not running.
// Stopped implements the cliapp.Lifecycle interface.
func (s *Service) Stopped() bool {
	return !s.running.Load()
}
