package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"spendwise/internal/core"
)

const (
	dateLayout   = "2006-01-02"
	clockLayout  = "15:04"
	maxBodyBytes = 64 << 10
)

var (
	errInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	errInvalidClock = errors.New("invalid time, expected HH:MM")
	errMissingUser  = errors.New("missing user id")
)

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// withUser rejects requests that carry no user identity.
func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := sanitizeInput(r.Header.Get(HeaderUserID))
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: errMissingUser.Error()})
			return
		}
		next(w, r, userID)
	})
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Field: "body", Err: fmt.Errorf("invalid request body: %w", err)}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &core.ValidationError{Field: "body", Err: errors.New("invalid request body: trailing data")}
	}
	return nil
}

type expenseRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	CategoryID  string `json:"category_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	ReceiptRef  string `json:"receipt_ref"`
}

// draft converts the request into a draft. Only parsing happens here; the
// domain rules run in the service.
func (req expenseRequest) draft(userID string, now time.Time) (core.ExpenseDraft, error) {
	d := core.ExpenseDraft{
		UserID:       userID,
		CategoryName: sanitizeInput(req.Category),
		CategoryID:   sanitizeInput(req.CategoryID),
		Description:  sanitizeInput(req.Description),
		ReceiptRef:   sanitizeInput(req.ReceiptRef),
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.ExpenseDraft{}, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	d.Amount = core.Cents(cents)

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if v := strings.TrimSpace(req.Date); v != "" {
		day, err = time.Parse(dateLayout, v)
		if err != nil {
			return core.ExpenseDraft{}, &core.ValidationError{Field: "date", Err: errInvalidDate}
		}
	}
	d.Date = day

	if d.StartTime, err = parseClock(day, req.StartTime, "start_time"); err != nil {
		return core.ExpenseDraft{}, err
	}
	if d.EndTime, err = parseClock(day, req.EndTime, "end_time"); err != nil {
		return core.ExpenseDraft{}, err
	}
	return d, nil
}

// parseClock places an HH:MM time of day on day. Blank means absent.
func parseClock(day time.Time, v, field string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	c, err := time.Parse(clockLayout, v)
	if err != nil {
		return nil, &core.ValidationError{Field: field, Err: errInvalidClock}
	}
	t := day.Add(time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute)
	return &t, nil
}

// parseRange reads ?month=YYYY-MM or ?from=&to= (inclusive days). Without
// either it covers the month containing now.
func parseRange(r *http.Request, now time.Time) (core.DateRange, error) {
	q := r.URL.Query()
	if m := strings.TrimSpace(q.Get("month")); m != "" {
		return core.MonthRange(m)
	}

	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if from == "" && to == "" {
		return core.MonthRange(core.MonthKey(now))
	}
	if from == "" || to == "" {
		return core.DateRange{}, &core.ValidationError{Field: "range", Err: errors.New("both from and to are required")}
	}

	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return core.DateRange{}, &core.ValidationError{Field: "from", Err: errInvalidDate}
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return core.DateRange{}, &core.ValidationError{Field: "to", Err: errInvalidDate}
	}
	rng := core.DateRange{Start: start, End: end.AddDate(0, 0, 1).Add(-time.Nanosecond)}
	if err := rng.Validate(); err != nil {
		return core.DateRange{}, err
	}
	return rng, nil
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color uint32 `json:"color"`
}

type goalRequest struct {
	MinimumCents int64 `json:"minimum_cents"`
	MaximumCents int64 `json:"maximum_cents"`
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
