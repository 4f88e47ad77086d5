package service

import (
	"net/http"

	"github.com/ethereum/go-ethereum/log"
)

// HealthzHandler answers liveness probes
type HealthzHandler struct {
	log log.Logger
}

func (h *HealthzHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.log.Trace("Received health check request", "path", r.URL.Path)
	w.Write([]byte("OK")) //nolint:errcheck
}
