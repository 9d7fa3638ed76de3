package http

import (
	"net/http"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
)

func (s *Server) handleUpsertGoal(w http.ResponseWriter, r *http.Request, userID string) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpsert, err)
		return
	}
	g := core.BudgetGoal{
		UserID:   userID,
		MonthKey: r.PathValue("month"),
		Minimum:  core.Cents(req.MinimumCents),
		Maximum:  core.Cents(req.MaximumCents),
	}
	if _, err := s.svc.Goals.UpsertGoal(r.Context(), g); err != nil {
		s.writeError(w, r, applog.OpUpsert, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewGoal(g))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request, userID string) {
	g, err := s.svc.Goals.GetGoal(r.Context(), userID, r.PathValue("month"))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewGoal(g))
}
