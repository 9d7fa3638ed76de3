package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/snapshot"
)

var errExportDisabled = errors.New("report export is not configured")

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, userID string) {
	rng, err := parseRange(r, s.now())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	d, err := s.svc.Dashboard.Build(r.Context(), userID, rng)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleDashboardStream sends a "dashboard" server-sent event for the initial
// snapshot and after every change to the user's records. Slow clients only
// ever see the newest dashboard.
func (s *Server) handleDashboardStream(w http.ResponseWriter, r *http.Request, userID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming unsupported"})
		return
	}
	rng, err := parseRange(r, s.now())
	if err != nil {
		s.writeError(w, r, applog.OpStream, err)
		return
	}

	updates := make(chan snapshot.Snapshot, 1)
	sub, err := s.svc.Hub.Subscribe(r.Context(), userID, rng, func(snap snapshot.Snapshot) {
		for {
			select {
			case updates <- snap:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	if err != nil {
		s.writeError(w, r, applog.OpStream, err)
		return
	}
	defer sub.Unsubscribe()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := applog.FromContext(r.Context())
	logger.InfoContext(r.Context(), "Dashboard stream opened", applog.FieldUserID, userID)
	defer logger.InfoContext(r.Context(), "Dashboard stream closed", applog.FieldUserID, userID)

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.streams.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snap := <-updates:
			payload, err := json.Marshal(s.svc.Dashboard.FromSnapshot(snap))
			if err != nil {
				logger.ErrorContext(r.Context(), "Failed to encode dashboard", applog.FieldError, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: dashboard\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request, userID string) {
	if s.svc.Reports == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: errExportDisabled.Error()})
		return
	}
	rng, err := core.MonthRange(r.PathValue("month"))
	if err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	d, err := s.svc.Dashboard.Build(r.Context(), userID, rng)
	if err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	ref, err := s.svc.Reports.ExportMonth(r.Context(), d)
	if err != nil {
		s.writeError(w, r, applog.OpExport, core.Collaborator("export report", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"month": d.MonthKey, "range": ref})
}
