package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/ports"
)

func expenseLogger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentExpense)
}

// ExpenseService validates drafts, resolves their category and persists them.
type ExpenseService struct {
	store      ports.ExpenseStore
	categories *CategoryService
	notifier   *Notifier
	now        func() time.Time
	newID      func() string
}

func NewExpenseService(store ports.ExpenseStore, categories *CategoryService, notifier *Notifier) *ExpenseService {
	return &ExpenseService{
		store:      store,
		categories: categories,
		notifier:   notifier,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// CreateExpense stores a validated draft. Nothing is written when validation
// or category resolution fails. A draft without a date is dated now.
func (s *ExpenseService) CreateExpense(ctx context.Context, d core.ExpenseDraft) (core.Expense, error) {
	if err := core.ValidateExpense(d); err != nil {
		expenseLogger(ctx).DebugContext(ctx, "Expense rejected", applog.FieldUserID, d.UserID, applog.FieldError, err)
		return core.Expense{}, err
	}

	categoryID, err := s.categories.ResolveCategory(ctx, d.UserID, d.CategoryName, d.CategoryID)
	if err != nil {
		return core.Expense{}, err
	}

	now := s.now().UTC()
	if d.Date.IsZero() {
		d.Date = now
	}
	e := d.Expense(s.newID(), categoryID, now)
	if err := s.store.InsertExpense(ctx, e); err != nil {
		return core.Expense{}, core.Collaborator("insert expense", err)
	}

	expenseLogger(ctx).InfoContext(ctx, "Expense created", applog.NewFields().
		WithUser(e.UserID).
		WithExpense(e.ID, e.CategoryID, e.Amount.Cents).
		WithOperation(applog.OpCreate).
		ToSlice()...)

	s.notifier.Changed(ctx, e.UserID, amqp.ExpenseCreated, e.ID)
	return e, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return core.Collaborator("delete expense", err)
	}
	expenseLogger(ctx).InfoContext(ctx, "Expense deleted",
		applog.FieldExpenseID, id, applog.FieldUserID, userID, applog.FieldOperation, applog.OpDelete)
	s.notifier.Changed(ctx, userID, amqp.ExpenseDeleted, id)
	return nil
}

// ListExpenses returns the user's expenses dated inside r, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID string, r core.DateRange) ([]core.Expense, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	out, err := s.store.ListExpenses(ctx, userID, r)
	if err != nil {
		return nil, core.Collaborator("list expenses", err)
	}
	return out, nil
}
