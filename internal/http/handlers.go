package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"govspend/internal/core"
	"govspend/internal/export"
	applog "govspend/internal/log"
	"govspend/internal/spending"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Backend string `json:"backend"`
	Message string `json:"message"`
}

type errorPayload struct {
	Error errorBody `json:"error"`
}

func selectionFromRequest(r *http.Request) core.FilterSelection {
	q := r.URL.Query()
	return core.NewSelection(q.Get("year"), q.Get("department"))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready only when the backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := s.lister.ListRecords(r.Context()); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	sel := selectionFromRequest(r)
	data := newPageData(s.dashboard(r.Context(), sel))

	// Render to a buffer so a template failure still yields a clean 500.
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard template execution failed", applog.NewFields().
			WithOperation(applog.OpRender).
			WithSelection(sel.Year, sel.Department).
			WithError(err).
			ToSlice()...)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.lister.ListRecords(r.Context())
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	if records == nil {
		records = []core.SpendingRecord{}
	}
	writeJSON(w, r, http.StatusOK, records)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.dashboard(r.Context(), selectionFromRequest(r)))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.lister.ListRecords(r.Context())
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, records, selectionFromRequest(r)); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Workbook export failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		http.Error(w, "failed to build workbook", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="spending.xlsx"`)
	_, _ = buf.WriteTo(w)
}

// writeQueryError turns a failed read into a 502 with a discriminated payload.
func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Kind: string(spending.KindQuery), Backend: s.backend, Message: err.Error()}
	if qe, ok := spending.AsQueryError(err); ok {
		body.Kind = string(qe.Kind)
		body.Backend = qe.Backend
		body.Message = qe.Err.Error()
	}

	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Spending query failed", applog.NewFields().
		WithOperation(applog.OpList).
		WithErrorType(body.Kind).
		WithError(err).
		ToSlice()...)
	writeJSON(w, r, http.StatusBadGateway, errorPayload{Error: body})
}

// writeJSON encodes v before touching the response, so an unencodable value
// becomes a 500 instead of a truncated success.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", applog.FieldError, err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
