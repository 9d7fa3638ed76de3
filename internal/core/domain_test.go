package core

import (
	"errors"
	"testing"
	"time"
)

func at(minutes int) *time.Time {
	t := time.Date(2025, 10, 1, 0, minutes, 0, 0, time.UTC)
	return &t
}

func draft() ExpenseDraft {
	return ExpenseDraft{
		UserID:       "u1",
		CategoryName: "Food",
		Amount:       Cents(1250),
		Date:         time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		Description:  "lunch",
	}
}

func TestValidateExpenseAmount(t *testing.T) {
	cases := []struct {
		cents int64
		want  error
	}{
		{0, ErrInvalidAmount},
		{-500, ErrInvalidAmount},
		{1, nil},
	}
	for _, tc := range cases {
		d := draft()
		d.Amount = Cents(tc.cents)
		err := ValidateExpense(d)
		if !errors.Is(err, tc.want) || (tc.want == nil && err != nil) {
			t.Fatalf("amount %d: expected %v, got %v", tc.cents, tc.want, err)
		}
	}
}

func TestValidateExpenseDescription(t *testing.T) {
	cases := []struct {
		desc string
		ok   bool
	}{
		{"", false},
		{"ab", false},
		{"   ab  ", false},
		{"abc", true},
		{"caffè", true},
	}
	for _, tc := range cases {
		d := draft()
		d.Description = tc.desc
		err := ValidateExpense(d)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.desc, err)
		}
		if !tc.ok && !errors.Is(err, ErrDescriptionTooShort) {
			t.Fatalf("%q expected description too short, got %v", tc.desc, err)
		}
	}
}

func TestValidateExpenseTimeWindow(t *testing.T) {
	cases := []struct {
		start, end *time.Time
		ok         bool
	}{
		{at(100), at(50), false},
		{at(50), at(100), true},
		{at(50), at(50), true},
		{at(50), nil, true},
		{nil, at(50), true},
	}
	for i, tc := range cases {
		d := draft()
		d.StartTime, d.EndTime = tc.start, tc.end
		err := ValidateExpense(d)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && !errors.Is(err, ErrEndBeforeStart) {
			t.Fatalf("case %d expected end before start, got %v", i, err)
		}
	}
}

func TestValidateExpenseFirstFailureWins(t *testing.T) {
	d := draft()
	d.Amount = Cents(0)
	d.Description = ""
	d.StartTime, d.EndTime = at(10), at(5)

	err := ValidateExpense(d)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount first, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Reason() != "invalid amount" || ve.Field != "amount" {
		t.Fatalf("unexpected validation error: %#v", err)
	}
}

func TestCollaboratorWrapping(t *testing.T) {
	if Collaborator("op", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	if err := Collaborator("op", ErrNotFound); err != ErrNotFound {
		t.Fatalf("not found should pass through, got %v", err)
	}
	base := errors.New("connection refused")
	err := Collaborator("insert expense", base)
	var ce *CollaboratorError
	if !errors.As(err, &ce) || !errors.Is(err, base) {
		t.Fatalf("expected collaborator error wrapping base, got %v", err)
	}
	if err.Error() != "insert expense: connection refused" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if again := Collaborator("other", err); again != err {
		t.Fatalf("collaborator errors should not be double wrapped")
	}
}

func TestDateRangeContainsInclusive(t *testing.T) {
	r := DateRange{
		Start: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC),
	}
	if !r.Contains(r.Start) || !r.Contains(r.End) {
		t.Fatalf("range ends must be included")
	}
	if r.Contains(r.End.Add(time.Second)) || r.Contains(r.Start.Add(-time.Second)) {
		t.Fatalf("outside instants must be excluded")
	}
	if err := (DateRange{Start: r.End, End: r.Start}).Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}
