package http

import (
	"net/http"

	applog "spendwise/internal/log"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, userID string) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	d, err := req.draft(userID, s.now())
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	e, err := s.svc.Expenses.CreateExpense(r.Context(), d)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.viewExpense(e))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, userID string) {
	rng, err := parseRange(r, s.now())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	list, err := s.svc.Expenses.ListExpenses(r.Context(), userID, rng)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]expenseView, 0, len(list))
	for _, e := range list {
		out = append(out, s.viewExpense(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": out})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.svc.Expenses.DeleteExpense(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
