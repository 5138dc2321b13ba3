package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Aman-CERP/livedoc/internal/cache"
	"github.com/Aman-CERP/livedoc/internal/doc"
	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/index"
	"github.com/Aman-CERP/livedoc/internal/telemetry"
)

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /summary", s.handleSummary)
	s.mux.HandleFunc("GET /modules", s.handleModules)
	s.mux.HandleFunc("GET /module/{path...}", s.handleModule)
	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("GET /dump", s.handleDump)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /stats/queries", s.handleQueryStats)
}

// SummaryResponse tells a polling client whether to refetch.
type SummaryResponse struct {
	Updated    bool    `json:"updated"`
	Timestamp  float64 `json:"timestamp"`
	Generation uint64  `json:"generation"`
}

// ModulesResponse lists module metadata sorted by key.
type ModulesResponse struct {
	Modules   []index.Metadata `json:"modules"`
	Count     int              `json:"count"`
	Timestamp float64          `json:"timestamp"`
}

// ModuleResponse carries one module Document.
type ModuleResponse struct {
	Doc *doc.Document `json:"doc"`
}

// SearchResponse carries one page of ranked results.
type SearchResponse struct {
	Query   string         `json:"query"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	Count   int            `json:"count"`
	Results []cache.Result `json:"results"`
}

// DumpResponse carries every Document of a generation.
type DumpResponse struct {
	Docs       map[string]*doc.Document `json:"docs"`
	Timestamp  float64                  `json:"timestamp"`
	Generation uint64                   `json:"generation"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version,omitempty"`
	Generation uint64 `json:"generation"`
	Modules    int    `json:"modules"`
	IndexKeys  int    `json:"index_keys"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Suggestion string `json:"suggestion,omitempty"`
}

type pageData struct {
	Modules    []index.Metadata
	LastTS     float64
	Generation uint64
	Root       string
	Version    string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	gen := s.store.Current()
	data := pageData{
		Modules:    moduleMetadata(gen.Index),
		LastTS:     unixSeconds(gen.Timestamp),
		Generation: gen.Seq,
		Root:       s.store.Root(),
		Version:    s.version,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.LogAttrs(r.Context(), slog.LevelWarn, "failed to render page", docerrors.LogAttrs(err)...)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var since float64
	if raw := strings.TrimSpace(r.URL.Query().Get("ts")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, docerrors.ValidationError("ts must be a number", err).
				WithDetail("ts", raw))
			return
		}
		since = v
	}

	gen := s.store.Current()
	ts := unixSeconds(gen.Timestamp)
	s.writeJSON(w, http.StatusOK, SummaryResponse{
		Updated:    ts > since,
		Timestamp:  ts,
		Generation: gen.Seq,
	})
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	gen := s.store.Current()
	modules := moduleMetadata(gen.Index)
	s.writeJSON(w, http.StatusOK, ModulesResponse{
		Modules:   modules,
		Count:     len(modules),
		Timestamp: unixSeconds(gen.Timestamp),
	})
}

func (s *Server) handleModule(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("path")
	if err := validateModulePath(name); err != nil {
		s.writeError(w, err)
		return
	}

	d, ok := s.store.Document(name)
	if !ok {
		s.writeError(w, docerrors.New(docerrors.ErrCodeModuleNotFound, "module not found: "+name, nil).
			WithSuggestion("GET /modules lists the available modules"))
		return
	}
	s.writeJSON(w, http.StatusOK, ModuleResponse{Doc: d})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		s.writeError(w, err)
		return
	}
	page, err := intParam(q.Get("page"), "page")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if page < 1 {
		page = 1
	}
	limit = min(limit, MaxSearchLimit)

	start := time.Now()
	query := strings.TrimSpace(q.Get("q"))
	results := s.store.Search(query, limit, page)
	s.metrics.Record(telemetry.QueryEvent{
		Query:       query,
		Source:      telemetry.SourceHTTP,
		ResultCount: len(results),
		Latency:     time.Since(start),
		Timestamp:   start,
	})
	s.writeJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Page:    page,
		Limit:   limit,
		Count:   len(results),
		Results: results,
	})
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	s.writeJSON(w, http.StatusOK, DumpResponse{
		Docs:       snap.Documents,
		Timestamp:  unixSeconds(snap.LastUpdated),
		Generation: snap.Generation,
	})
}

func (s *Server) handleQueryStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	gen := s.store.Current()
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Version:    s.version,
		Generation: gen.Seq,
		Modules:    len(gen.Documents),
		IndexKeys:  gen.Index.TermCount(),
	})
}

// validateModulePath rejects absolute paths and parent references.
func validateModulePath(name string) error {
	if name == "" {
		return docerrors.New(docerrors.ErrCodeInvalidPath, "module path is required", nil)
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, "\\") || path.Clean(name) != name {
		return docerrors.New(docerrors.ErrCodeInvalidPath, "invalid module path: "+name, nil)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return docerrors.New(docerrors.ErrCodeInvalidPath, "invalid module path: "+name, nil)
		}
	}
	return nil
}

// intParam parses an optional integer query parameter. Empty means 0.
func intParam(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, docerrors.ValidationError(name+" must be an integer", err).WithDetail(name, raw)
	}
	return v, nil
}

func moduleMetadata(ix *index.Index) []index.Metadata {
	keys := ix.ModuleKeys()
	out := make([]index.Metadata, 0, len(keys))
	for _, k := range keys {
		out = append(out, ix.Metadata[k])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// unixSeconds reports t as fractional Unix seconds; the zero time is 0.
func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

// statusFor maps an error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case docerrors.ErrCodeInvalidInput, docerrors.ErrCodeInvalidFormat, docerrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case docerrors.ErrCodeModuleNotFound, docerrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := docerrors.GetCode(err)
	if code == "" {
		code = docerrors.ErrCodeInternal
	}
	resp := ErrorResponse{Error: err.Error(), Code: code}

	var de *docerrors.DocError
	if errors.As(err, &de) {
		resp.Error = de.Message
		resp.Suggestion = de.Suggestion
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.LogAttrs(context.Background(), slog.LevelError, "request failed", docerrors.LogAttrs(err)...)
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write response", slog.String("error", err.Error()))
	}
}
