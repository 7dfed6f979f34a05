package server

import (
	"net/http"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/conneroisu/nucleator/internal/version"
)

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(editorPage))
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetShortVersion(),
		"checks": map[string]any{
			"fragments":   map[string]any{"status": "healthy", "count": s.registry.Count()},
			"diagnostics": map[string]any{"errors": s.collector.HasErrors()},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warn(r.Context(), err, "encoding health response")
	}
}

// handleCompile compiles a posted source and returns the full HTML document.
func (s *PreviewServer) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMessageSize)

	var req CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	timer := s.logger.StartCompile("http")
	html := s.compileFor(req)
	timer.End(r.Context(), len(html))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// handleFragments lists the refs the registry currently resolves.
func (s *PreviewServer) handleFragments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	refs := s.registry.Refs()
	sort.Strings(refs)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"fragments": refs,
		"count":     len(refs),
	}); err != nil {
		s.logger.Warn(r.Context(), err, "encoding fragments response")
	}
}
