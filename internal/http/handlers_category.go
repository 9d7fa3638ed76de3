package http

import (
	"net/http"

	applog "spendwise/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID string) {
	cats, err := s.svc.Categories.ListCategories(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, newCategoryView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, userID string) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	c, err := s.svc.Categories.CreateCategory(r.Context(), userID, sanitizeInput(req.Name), req.Color)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoryView(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.svc.Categories.DeleteCategory(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
