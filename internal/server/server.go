// Package server hosts the local result-browsing server: a small JSON
// API over stored experiment runs for dashboards and notebooks.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/MITSustainableDesignLab/globi/pkg/results"
)

// Server serves stored experiment results over HTTP.
type Server struct {
	source results.Source
	port   int
}

// New creates a server reading from the given result source.
func New(source results.Source, port int) *Server {
	return &Server{
		source: source,
		port:   port,
	}
}

// Start launches the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /api/runs/{run}", s.handleRun)
	mux.HandleFunc("GET /api/locations", s.handleLocations)
	mux.HandleFunc("GET /", s.handleIndex)

	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("globi results server starting on http://localhost%s", addr)

	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>globi</title></head>
<body style="margin:0;background:#111;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>globi</h1>
<p>Experiment results API. Try <code>/api/runs</code>.</p>
</div>
</body></html>`)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.source.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []string{}
	}
	writeJSON(w, map[string]any{"runs": runs})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run := r.PathValue("run")
	table, err := s.source.LoadRun(r.Context(), run)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, tablePayload(table))
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	table, err := s.source.LoadLocations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if table == nil {
		writeJSON(w, map[string]any{"columns": []string{}, "rows": []any{}})
		return
	}
	writeJSON(w, tablePayload(table))
}

func tablePayload(t *results.Table) map[string]any {
	rows := t.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return map[string]any{
		"columns": t.Columns,
		"rows":    rows,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	log.Printf("request failed: %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
