package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to a status code, the message shown to the caller
// and the error category used in logs.
func statusFor(err error) (int, string, string) {
	var ve *core.ValidationError
	var ce *core.CollaboratorError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Reason(), applog.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, core.ErrNotFound.Error(), applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrCategoryExists):
		return http.StatusConflict, core.ErrCategoryExists.Error(), applog.ErrorTypeConflict
	case errors.As(err, &ce):
		return http.StatusBadGateway, ce.Error(), applog.ErrorTypeCollaborator
	default:
		return http.StatusInternalServerError, "internal error", applog.ErrorTypeInternal
	}
}

// writeError reports err to the caller. Server-side failures are logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg, errType := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.errLog.LogError(r.Context(), "Request failed", err, errType, op,
			applog.NewFields().WithUser(r.Header.Get(HeaderUserID)))
	}
	writeJSON(w, status, errorBody{Error: msg})
}

type expenseView struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time,omitempty"`
	EndTime     string    `json:"end_time,omitempty"`
	Description string    `json:"description"`
	ReceiptRef  string    `json:"receipt_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) viewExpense(e core.Expense) expenseView {
	v := expenseView{
		ID:          e.ID,
		CategoryID:  e.CategoryID,
		AmountCents: e.Amount.Cents,
		Amount:      core.FormatCurrency(e.Amount, s.currency),
		Date:        e.Date.Format(dateLayout),
		Description: e.Description,
		ReceiptRef:  e.ReceiptRef,
		CreatedAt:   e.CreatedAt,
	}
	if e.StartTime != nil {
		v.StartTime = e.StartTime.Format(clockLayout)
	}
	if e.EndTime != nil {
		v.EndTime = e.EndTime.Format(clockLayout)
	}
	return v
}

type categoryView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     uint32    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

func newCategoryView(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Color: c.Color, CreatedAt: c.CreatedAt}
}

type goalView struct {
	Month        string `json:"month"`
	MinimumCents int64  `json:"minimum_cents"`
	Minimum      string `json:"minimum"`
	MaximumCents int64  `json:"maximum_cents"`
	Maximum      string `json:"maximum"`
	Inverted     bool   `json:"inverted"`
	Warning      string `json:"warning,omitempty"`
}

func (s *Server) viewGoal(g core.BudgetGoal) goalView {
	v := goalView{
		Month:        g.MonthKey,
		MinimumCents: g.Minimum.Cents,
		Minimum:      core.FormatCurrency(g.Minimum, s.currency),
		MaximumCents: g.Maximum.Cents,
		Maximum:      core.FormatCurrency(g.Maximum, s.currency),
		Inverted:     g.Inverted(),
	}
	if v.Inverted {
		v.Warning = "maximum is below minimum"
	}
	return v
}
