package service

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"

	"github.com/ethereum-optimism/infra/op-reporter/metrics"
)

// ReportInfo describes a report file available from the server
type ReportInfo struct {
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// ListReports returns the HTML reports in dir, newest first
func ListReports(dir string) ([]ReportInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	reports := make([]ReportInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		reports = append(reports, ReportInfo{
			Name:    e.Name(),
			URL:     "/reports/" + e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].ModTime.Equal(reports[j].ModTime) {
			return reports[i].Name > reports[j].Name
		}
		return reports[i].ModTime.After(reports[j].ModTime)
	})
	return reports, nil
}

// ReportsServer serves a report directory together with a health endpoint
type ReportsServer struct {
	dir    string
	log    log.Logger
	server *http.Server
}

// NewReportsServer creates a server for the reports in dir listening on addr
func NewReportsServer(dir, addr string, logger log.Logger) *ReportsServer {
	if logger == nil {
		logger = log.New()
	}
	s := &ReportsServer{dir: dir, log: logger}
	s.server = &http.Server{
		Handler:           s.Handler(),
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler of the server:
//
//	/healthz       liveness probe
//	/api/reports   JSON list of reports
//	/reports/...   report files and screenshots
//	/              redirect to /reports/
func (s *ReportsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", &HealthzHandler{log: s.log})
	mux.HandleFunc("/api/reports", s.handleList)
	mux.Handle("/reports/", http.StripPrefix("/reports/", http.FileServer(http.Dir(s.dir))))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/reports/", http.StatusFound)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	})
	return c.Handler(mux)
}

func (s *ReportsServer) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reports, err := ListReports(s.dir)
	if err != nil {
		s.log.Error("Failed to list reports", "dir", s.dir, "err", err)
		metrics.RecordErrorDetails("list reports", err)
		http.Error(w, "failed to list reports", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reports); err != nil {
		s.log.Warn("Failed to write report list", "err", err)
	}
}

// Start serves reports until Shutdown is called
func (s *ReportsServer) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown stops the server
func (s *ReportsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
