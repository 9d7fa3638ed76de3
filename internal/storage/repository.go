package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"spendwise/internal/core"
	"spendwise/internal/ports"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, category_id, amount_cents, date_ms, start_ms, end_ms, description, receipt_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.CategoryID, e.Amount.Cents, e.Date.UnixMilli(),
		nullableMillis(e.StartTime), nullableMillis(e.EndTime),
		e.Description, e.ReceiptRef, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents)

	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, dr core.DateRange) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, amount_cents, date_ms, start_ms, end_ms, description, receipt_ref, created_at
		FROM expenses
		WHERE user_id = ? AND date_ms BETWEEN ? AND ?
		ORDER BY date_ms DESC, id DESC`,
		userID, dr.Start.UnixMilli(), dr.End.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		var (
			e               core.Expense
			dateMs, created int64
			startMs, endMs  sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.Amount.Cents, &dateMs,
			&startMs, &endMs, &e.Description, &e.ReceiptRef, &created); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Date = time.UnixMilli(dateMs).UTC()
		e.StartTime = fromNullableMillis(startMs)
		e.EndTime = fromNullableMillis(endMs)
		e.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) FindCategoryByName(ctx context.Context, userID, name string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, color, created_at FROM categories
		WHERE user_id = ? AND name = ?`, userID, name)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, color, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, int64(c.Color), c.CreatedAt.UnixMilli())
	if isUniqueViolation(err) {
		return core.ErrCategoryExists
	}
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, color, created_at FROM categories
		WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// DeleteCategory does not cascade: expenses keep the dangling category id.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) UpsertGoal(ctx context.Context, g core.BudgetGoal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_goals (user_id, month_key, minimum_cents, maximum_cents, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, month_key) DO UPDATE SET
			minimum_cents = excluded.minimum_cents,
			maximum_cents = excluded.maximum_cents,
			updated_at = excluded.updated_at`,
		g.UserID, g.MonthKey, g.Minimum.Cents, g.Maximum.Cents, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, monthKey string) (core.BudgetGoal, error) {
	g := core.BudgetGoal{UserID: userID, MonthKey: monthKey}
	err := r.db.QueryRowContext(ctx, `
		SELECT minimum_cents, maximum_cents FROM budget_goals
		WHERE user_id = ? AND month_key = ?`, userID, monthKey).
		Scan(&g.Minimum.Cents, &g.Maximum.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetGoal{}, core.ErrNotFound
	}
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c       core.Category
		color   int64
		created int64
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.Name, &color, &created); err != nil {
		return core.Category{}, err
	}
	c.Color = uint32(color)
	c.CreatedAt = time.UnixMilli(created).UTC()
	return c, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func nullableMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullableMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
