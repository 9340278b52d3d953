package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"newsgraph/internal/config"
	"newsgraph/internal/formatter"
	"newsgraph/internal/pipeline"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	Code    int      `json:"code"`
	Error   bool     `json:"error"`
}

// SourceInfo describes one configured source.
type SourceInfo struct {
	Name    string `json:"name"`
	Query   string `json:"query,omitempty"`
	Limit   int    `json:"limit"`
	Enabled bool   `json:"enabled"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) listSources(w http.ResponseWriter, _ *http.Request) {
	out := make([]SourceInfo, 0, len(s.cfg.Sources))

	for _, src := range s.cfg.Sources {
		out = append(out, sourceInfo(src))
	}

	respondJSON(w, http.StatusOK, map[string]any{"sources": out})
}

func (s *Server) getSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	src, ok := s.cfg.GetSource(name)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown source %q", name))

		return
	}

	respondJSON(w, http.StatusOK, sourceInfo(src))
}

func sourceInfo(src config.SourceConfig) SourceInfo {
	return SourceInfo{
		Name:    src.Name,
		Query:   src.Query,
		Limit:   src.Limit,
		Enabled: src.Enabled,
	}
}

func (s *Server) buildGraph(w http.ResponseWriter, r *http.Request) {
	res, ok := s.run(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (s *Server) buildGraphHTML(w http.ResponseWriter, r *http.Request) {
	res, ok := s.run(w, r)
	if !ok {
		return
	}

	page, err := formatter.GraphHTML(res)
	if err != nil {
		s.log.Error("graph page failed", "run_id", res.RunID, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())

		return
	}

	respondBytes(w, "text/html; charset=utf-8", page)
}

func (s *Server) buildReport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.run(w, r)
	if !ok {
		return
	}

	report := formatter.MarkdownReport(res, s.reportOpts)

	if r.URL.Query().Get("format") == "md" {
		respondBytes(w, "text/markdown; charset=utf-8", []byte(report))

		return
	}

	page, err := formatter.ReportHTML(report)
	if err != nil {
		s.log.Error("report page failed", "run_id", res.RunID, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())

		return
	}

	respondBytes(w, "text/html; charset=utf-8", page)
}

// run decodes and validates the request body and executes the run.
// It writes the error response itself and reports whether the caller should continue.
func (s *Server) run(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	var req pipeline.Request

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))

		return nil, false
	}

	if err := s.validate.Struct(req); err != nil {
		respondValidation(w, err)

		return nil, false
	}

	res, err := s.runner.Run(r.Context(), req)

	switch {
	case err == nil:
		return res, true
	case errors.Is(err, pipeline.ErrNoSources),
		errors.Is(err, pipeline.ErrInvalidItems),
		errors.Is(err, pipeline.ErrInvalidMaxPhrases),
		errors.Is(err, pipeline.ErrSourceDisabled):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error("run failed", "error", err)
		respondError(w, http.StatusInternalServerError, "run failed")
	}

	return nil, false
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondBytes(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   true,
		Message: message,
		Code:    status,
	})
}

func respondValidation(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		respondError(w, http.StatusBadRequest, err.Error())

		return
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describeField(fe))
	}

	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   true,
		Message: "validation failed",
		Details: details,
		Code:    http.StatusBadRequest,
	})
}

func describeField(fe validator.FieldError) string {
	// Namespace is "Request.sources[0]"; drop the struct name.
	_, field, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		field = fe.Field()
	}

	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
