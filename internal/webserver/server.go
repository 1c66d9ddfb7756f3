// Package webserver exposes archived analysis runs (and optionally the
// current in-memory result) over HTTP: a JSON API plus interactive
// go-echarts chart pages for eyeballing scans without leaving the browser.
package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/crysdata/crysanalyze/internal/monitoring"
	"github.com/crysdata/crysanalyze/internal/scandb"
	"github.com/crysdata/crysanalyze/internal/xrd"
)

// Server serves the run archive and, when set, the result of the current
// analysis.
type Server struct {
	store   *scandb.RunStore
	current *xrd.Result
	source  string
}

// NewServer creates a Server over the given store. current may be nil when
// only the archive should be served; source names the scan file behind
// current for page titles.
func NewServer(store *scandb.RunStore, current *xrd.Result, source string) *Server {
	return &Server{store: store, current: current, source: source}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.handleListRuns)
	mux.HandleFunc("/api/runs/", s.handleGetRun)
	mux.HandleFunc("/chart", s.handleCurrentChart)
	mux.HandleFunc("/runs/", s.handleRunChart)
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<html><body><h1>crysanalyze</h1><ul>`)
	if s.current != nil {
		fmt.Fprint(w, `<li><a href="/chart">current analysis chart</a></li>`)
	}
	fmt.Fprint(w, `<li><a href="/api/runs">archived runs (JSON)</a></li>`)
	fmt.Fprint(w, `</ul></body></html>`)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		s.writeJSONError(w, http.StatusNotFound, "no archive configured")
		return
	}

	runs, err := s.store.ListRuns(100)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list runs: %v", err))
		return
	}
	s.writeJSON(w, runs)
}

// runResponse is the /api/runs/{id} payload: the run row plus its peaks.
type runResponse struct {
	scandb.Run
	Peaks []xrd.Peak `json:"peaks"`
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		s.writeJSONError(w, http.StatusNotFound, "no archive configured")
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		s.writeJSONError(w, http.StatusBadRequest, "bad run id")
		return
	}

	run, err := s.store.GetRun(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", runID))
		return
	}
	peaks, err := s.store.RunPeaks(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("load peaks: %v", err))
		return
	}
	if peaks == nil {
		peaks = []xrd.Peak{}
	}
	s.writeJSON(w, runResponse{Run: *run, Peaks: peaks})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
