package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultCategoryColor is used for categories created without an explicit color (opaque grey).
const DefaultCategoryColor uint32 = 0xFF9E9E9E

// UncategorizedName is shown for expenses whose category no longer exists.
const UncategorizedName = "Uncategorized"

const minDescriptionLength = 3

type (
	// Expense is a single spending event. Expenses are never edited in place.
	Expense struct {
		ID          string
		UserID      string
		CategoryID  string
		Amount      Money
		Date        time.Time
		StartTime   *time.Time
		EndTime     *time.Time
		Description string
		ReceiptRef  string // opaque URI or path, never dereferenced here
		CreatedAt   time.Time
	}

	// Category is a named spending bucket scoped to a user.
	Category struct {
		ID        string
		UserID    string
		Name      string
		Color     uint32
		CreatedAt time.Time
	}

	// ExpenseDraft is the candidate submitted by a user before it becomes an Expense.
	ExpenseDraft struct {
		UserID       string
		CategoryName string
		CategoryID   string // fallback used when CategoryName is blank
		Amount       Money
		Date         time.Time
		StartTime    *time.Time
		EndTime      *time.Time
		Description  string
		ReceiptRef   string
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrDescriptionTooShort = errors.New("description too short")
	ErrEndBeforeStart      = errors.New("end time before start time")
	ErrCategoryRequired    = errors.New("category required")
	ErrInvalidGoal         = errors.New("goal amounts must not be negative")
	ErrInvalidMonthKey     = errors.New("invalid month key")
	ErrInvalidRange        = errors.New("range end before start")

	ErrNotFound       = errors.New("not found")
	ErrCategoryExists = errors.New("category name already exists")
)

// ValidationError carries a user-displayable reason for a rejected input.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Reason is the text shown to the user.
func (e *ValidationError) Reason() string {
	return e.Err.Error()
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err was produced by a field-level check.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CollaboratorError wraps a failure reported by persistence, messaging or identity.
// The underlying message is preserved so it can be surfaced as-is.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Collaborator wraps err unless it is nil or already a domain error callers branch on.
func Collaborator(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrCategoryExists) || IsValidation(err) {
		return err
	}
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return err
	}
	return &CollaboratorError{Op: op, Err: err}
}

// ValidateExpense checks the draft in a fixed order and returns the first failure.
func ValidateExpense(d ExpenseDraft) error {
	if err := d.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.Description)) < minDescriptionLength {
		return invalid("description", ErrDescriptionTooShort)
	}
	if d.StartTime != nil && d.EndTime != nil && d.EndTime.Before(*d.StartTime) {
		return invalid("end_time", ErrEndBeforeStart)
	}
	return nil
}

// Expense builds the persisted form of a validated draft.
func (d ExpenseDraft) Expense(id, categoryID string, now time.Time) Expense {
	return Expense{
		ID:          id,
		UserID:      d.UserID,
		CategoryID:  categoryID,
		Amount:      d.Amount,
		Date:        d.Date,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Description: strings.TrimSpace(d.Description),
		ReceiptRef:  strings.TrimSpace(d.ReceiptRef),
		CreatedAt:   now,
	}
}

// DateRange is an inclusive [Start, End] window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return invalid("range", ErrInvalidRange)
	}
	return nil
}

// Contains reports whether t falls inside the range, both ends included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
