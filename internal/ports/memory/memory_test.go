package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spendwise/internal/core"
)

func TestMemoryStoreExpenses(t *testing.T) {
	ctx := context.Background()
	s := New()
	d := func(day int) time.Time { return time.Date(2025, 10, day, 0, 0, 0, 0, time.UTC) }

	for i, e := range []core.Expense{
		{ID: "a", UserID: "u1", Amount: core.Cents(100), Date: d(2)},
		{ID: "b", UserID: "u1", Amount: core.Cents(200), Date: d(9)},
		{ID: "c", UserID: "u2", Amount: core.Cents(300), Date: d(9)},
	} {
		if err := s.InsertExpense(ctx, e); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	r, _ := core.MonthRange("2025-10")
	got, err := s.ListExpenses(ctx, "u1", r)
	if err != nil || len(got) != 2 || got[0].ID != "b" {
		t.Fatalf("unexpected list: %v err=%v", got, err)
	}

	if err := s.DeleteExpense(ctx, "u2", "a"); err != core.ErrNotFound {
		t.Fatalf("other users must not delete, got %v", err)
	}
	if err := s.DeleteExpense(ctx, "u1", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteExpense(ctx, "u1", "a"); err != core.ErrNotFound {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestMemoryStoreCategoryUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.CreateCategory(ctx, core.Category{ID: "1", UserID: "u1", Name: "Food"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateCategory(ctx, core.Category{ID: "2", UserID: "u1", Name: "Food"}); err != core.ErrCategoryExists {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if err := s.CreateCategory(ctx, core.Category{ID: "3", UserID: "u1", Name: "food"}); err != nil {
		t.Fatalf("names are case-sensitive: %v", err)
	}
	if err := s.CreateCategory(ctx, core.Category{ID: "4", UserID: "u2", Name: "Food"}); err != nil {
		t.Fatalf("names are per user: %v", err)
	}
	c, err := s.FindCategoryByName(ctx, "u1", "Food")
	if err != nil || c.ID != "1" {
		t.Fatalf("unexpected find: %+v err=%v", c, err)
	}
	if _, err := s.FindCategoryByName(ctx, "u1", "FOOD"); err != core.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStoreGoalUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.GetGoal(ctx, "u1", "2025-10"); err != core.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	_ = s.UpsertGoal(ctx, core.BudgetGoal{UserID: "u1", MonthKey: "2025-10", Minimum: core.Cents(1), Maximum: core.Cents(2)})
	_ = s.UpsertGoal(ctx, core.BudgetGoal{UserID: "u1", MonthKey: "2025-10", Minimum: core.Cents(5), Maximum: core.Cents(9)})
	g, err := s.GetGoal(ctx, "u1", "2025-10")
	if err != nil || g.Maximum.Cents != 9 {
		t.Fatalf("expected replaced goal, got %+v err=%v", g, err)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cats, _ := NewFromFiles(dir, "demo").ListCategories(ctx, "demo")
	if len(cats) == 0 {
		t.Fatalf("expected defaults when file missing")
	}

	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("# header\nB\nA\nB\n\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	cats, _ = NewFromFiles(dir, "demo").ListCategories(ctx, "demo")
	if len(cats) != 2 || cats[0].Name != "A" || cats[1].Name != "B" {
		t.Fatalf("unexpected cats: %+v", cats)
	}
}
