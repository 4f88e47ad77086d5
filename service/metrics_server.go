package service

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the prometheus registry on /metrics
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer creates a metrics server listening on addr
func NewMetricsServer(addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &MetricsServer{
		server: &http.Server{
			Handler:           mux,
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves metrics until Shutdown is called
func (m *MetricsServer) Start() error {
	return m.server.ListenAndServe()
}

// Shutdown stops the server
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
