// Package ports declares the persistence collaborator the services depend on.
// Implementations: ports/memory (in-process) and storage (SQLite).
package ports

import (
	"context"

	"spendwise/internal/core"
)

// Ports for outbound adapters. Every query is scoped by user id.
type (
	ExpenseStore interface {
		InsertExpense(ctx context.Context, e core.Expense) error
		// DeleteExpense returns core.ErrNotFound when the user owns no such expense.
		DeleteExpense(ctx context.Context, userID, id string) error
		// ListExpenses returns the user's expenses dated inside r, newest first.
		ListExpenses(ctx context.Context, userID string, r core.DateRange) ([]core.Expense, error)
	}

	CategoryStore interface {
		// FindCategoryByName is an exact, case-sensitive match. Misses return core.ErrNotFound.
		FindCategoryByName(ctx context.Context, userID, name string) (core.Category, error)
		// CreateCategory returns core.ErrCategoryExists if (user, name) is taken.
		CreateCategory(ctx context.Context, c core.Category) error
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		DeleteCategory(ctx context.Context, userID, id string) error
	}

	GoalStore interface {
		// UpsertGoal replaces any goal already stored for (user, month key).
		UpsertGoal(ctx context.Context, g core.BudgetGoal) error
		GetGoal(ctx context.Context, userID, monthKey string) (core.BudgetGoal, error)
	}

	Store interface {
		ExpenseStore
		CategoryStore
		GoalStore
	}
)
