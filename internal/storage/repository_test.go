package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"spendwise/internal/core"
)

type RepositoryTestSuite struct {
	suite.Suite
	repo *SQLiteRepository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	repo, err := NewSQLiteRepository(filepath.Join(s.T().TempDir(), "spendwise.db"))
	require.NoError(s.T(), err, "failed to create test database")
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func october(day int) time.Time {
	return time.Date(2025, 10, day, 0, 0, 0, 0, time.UTC)
}

func (s *RepositoryTestSuite) TestExpenseRoundTrip() {
	start := time.Date(2025, 10, 3, 8, 30, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	e := core.Expense{
		ID:          "e1",
		UserID:      "u1",
		CategoryID:  "c1",
		Amount:      core.Cents(1999),
		Date:        october(3),
		StartTime:   &start,
		EndTime:     &end,
		Description: "coffee beans",
		ReceiptRef:  "receipts/e1.jpg",
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(s.T(), s.repo.InsertExpense(s.ctx, e))

	r, _ := core.MonthRange("2025-10")
	got, err := s.repo.ListExpenses(s.ctx, "u1", r)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), e.Amount, got[0].Amount)
	assert.True(s.T(), e.Date.Equal(got[0].Date))
	require.NotNil(s.T(), got[0].StartTime)
	assert.True(s.T(), start.Equal(*got[0].StartTime))
	assert.True(s.T(), end.Equal(*got[0].EndTime))
	assert.Equal(s.T(), "receipts/e1.jpg", got[0].ReceiptRef)
}

func (s *RepositoryTestSuite) TestListExpensesScopesUserAndRange() {
	for _, e := range []core.Expense{
		{ID: "a", UserID: "u1", CategoryID: "c", Amount: core.Cents(100), Date: october(1)},
		{ID: "b", UserID: "u1", CategoryID: "c", Amount: core.Cents(100), Date: october(20)},
		{ID: "c", UserID: "u1", CategoryID: "c", Amount: core.Cents(100), Date: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "d", UserID: "u2", CategoryID: "c", Amount: core.Cents(100), Date: october(5)},
	} {
		require.NoError(s.T(), s.repo.InsertExpense(s.ctx, e))
	}

	got, err := s.repo.ListExpenses(s.ctx, "u1", core.DateRange{Start: october(1), End: october(20)})
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 2)
	assert.Equal(s.T(), "b", got[0].ID, "newest first")
	assert.Equal(s.T(), "a", got[1].ID)
	assert.Nil(s.T(), got[0].StartTime)
}

func (s *RepositoryTestSuite) TestDeleteExpense() {
	require.NoError(s.T(), s.repo.InsertExpense(s.ctx, core.Expense{ID: "a", UserID: "u1", CategoryID: "c", Amount: core.Cents(1), Date: october(1)}))

	assert.ErrorIs(s.T(), s.repo.DeleteExpense(s.ctx, "u2", "a"), core.ErrNotFound)
	assert.NoError(s.T(), s.repo.DeleteExpense(s.ctx, "u1", "a"))
	assert.ErrorIs(s.T(), s.repo.DeleteExpense(s.ctx, "u1", "a"), core.ErrNotFound)
}

func (s *RepositoryTestSuite) TestCategoryUniquePerUser() {
	food := core.Category{ID: "c1", UserID: "u1", Name: "Food", Color: core.DefaultCategoryColor, CreatedAt: time.Now()}
	require.NoError(s.T(), s.repo.CreateCategory(s.ctx, food))

	dup := food
	dup.ID = "c2"
	assert.ErrorIs(s.T(), s.repo.CreateCategory(s.ctx, dup), core.ErrCategoryExists)

	other := food
	other.ID, other.UserID = "c3", "u2"
	assert.NoError(s.T(), s.repo.CreateCategory(s.ctx, other))

	lower := food
	lower.ID, lower.Name = "c4", "food"
	assert.NoError(s.T(), s.repo.CreateCategory(s.ctx, lower), "names are case-sensitive")

	found, err := s.repo.FindCategoryByName(s.ctx, "u1", "Food")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "c1", found.ID)
	assert.Equal(s.T(), core.DefaultCategoryColor, found.Color)

	_, err = s.repo.FindCategoryByName(s.ctx, "u1", "Travel")
	assert.ErrorIs(s.T(), err, core.ErrNotFound)

	cats, err := s.repo.ListCategories(s.ctx, "u1")
	require.NoError(s.T(), err)
	assert.Len(s.T(), cats, 2)
}

func (s *RepositoryTestSuite) TestDeleteCategoryDoesNotCascade() {
	require.NoError(s.T(), s.repo.CreateCategory(s.ctx, core.Category{ID: "c1", UserID: "u1", Name: "Food", CreatedAt: time.Now()}))
	require.NoError(s.T(), s.repo.InsertExpense(s.ctx, core.Expense{ID: "e1", UserID: "u1", CategoryID: "c1", Amount: core.Cents(10), Date: october(2)}))

	require.NoError(s.T(), s.repo.DeleteCategory(s.ctx, "u1", "c1"))
	assert.ErrorIs(s.T(), s.repo.DeleteCategory(s.ctx, "u1", "c1"), core.ErrNotFound)

	got, err := s.repo.ListExpenses(s.ctx, "u1", core.DateRange{Start: october(1), End: october(31)})
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), "c1", got[0].CategoryID)
}

func (s *RepositoryTestSuite) TestGoalUpsert() {
	_, err := s.repo.GetGoal(s.ctx, "u1", "2025-10")
	assert.ErrorIs(s.T(), err, core.ErrNotFound)

	require.NoError(s.T(), s.repo.UpsertGoal(s.ctx, core.BudgetGoal{UserID: "u1", MonthKey: "2025-10", Minimum: core.Cents(100), Maximum: core.Cents(1000)}))
	require.NoError(s.T(), s.repo.UpsertGoal(s.ctx, core.BudgetGoal{UserID: "u1", MonthKey: "2025-10", Minimum: core.Cents(200), Maximum: core.Cents(500)}))

	g, err := s.repo.GetGoal(s.ctx, "u1", "2025-10")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(200), g.Minimum.Cents)
	assert.Equal(s.T(), int64(500), g.Maximum.Cents)
}

func (s *RepositoryTestSuite) TestMigrationsAreIdempotent() {
	path := filepath.Join(s.T().TempDir(), "again.db")
	require.NoError(s.T(), RunMigrations(path))
	require.NoError(s.T(), RunMigrations(path))
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
