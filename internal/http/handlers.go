package http

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"spendsmart/internal/core"
	"spendsmart/internal/log"
	"spendsmart/internal/report"
)

type listResponse struct {
	Records         []core.Expense `json:"records"`
	FilteredRecords []core.Expense `json:"filteredRecords"`
	Showing         string         `json:"showing"`
}

type summaryResponse struct {
	core.Summary
	Showing string `json:"showing"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.ready(r.Context()); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v := s.svc.View(r.Context(), criteria)
	writeJSON(w, http.StatusOK, listResponse{
		Records:         nonNil(v.Records),
		FilteredRecords: nonNil(v.Filtered),
		Showing:         v.Label,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v := s.svc.View(r.Context(), criteria)
	writeJSON(w, http.StatusOK, summaryResponse{Summary: v.Summary, Showing: v.Label})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, ok := s.svc.Store().Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := parseExpenseInput(r, s.today)
	if err != nil {
		writeError(w, statusForInputError(err), err.Error())
		return
	}
	e, err := s.svc.AddExpense(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save expense")
		return
	}
	w.Header().Set("Location", "/api/expenses/"+e.ID)
	writeJSON(w, http.StatusCreated, e)
}

// handleDeleteExpense answers 204 whether or not the id existed.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.svc.RemoveExpense(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v := s.svc.View(r.Context(), criteria)

	var buf bytes.Buffer
	doc := report.NewDocument(v.Label, v.Filtered, v.Summary)
	if err := report.WriteXLSX(&buf, doc, s.report); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to build workbook",
			log.FieldOperation, log.OpExport, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="spendsmart.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func statusForInputError(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

func nonNil(items []core.Expense) []core.Expense {
	if items == nil {
		return []core.Expense{}
	}
	return items
}
