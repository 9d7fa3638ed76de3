package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendwise/internal/core"
	"spendwise/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type goalKey struct {
	userID   string
	monthKey string
}

// Store keeps everything in process memory. Safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	expenses   map[string]core.Expense
	categories map[string]core.Category
	goals      map[goalKey]core.BudgetGoal
}

func New() *Store {
	return &Store{
		expenses:   make(map[string]core.Expense),
		categories: make(map[string]core.Category),
		goals:      make(map[goalKey]core.BudgetGoal),
	}
}

// NewFromFiles seeds categories for userID from base/seed_categories.txt.
// A missing file yields a small default set.
func NewFromFiles(base, userID string) *Store {
	s := New()
	names := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(names) == 0 {
		names = []string{"Food", "Transport", "Home"}
	}
	now := time.Now().UTC()
	for _, name := range names {
		id := uuid.NewString()
		s.categories[id] = core.Category{ID: id, UserID: userID, Name: name, Color: core.DefaultCategoryColor, CreatedAt: now}
	}
	return s
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, userID string, r core.DateRange) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.UserID == userID && r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) FindCategoryByName(_ context.Context, userID, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.UserID == userID && c.Name == name {
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.UserID == c.UserID && existing.Name == c.Name {
			return core.ErrCategoryExists
		}
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Category{}
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteCategory leaves referencing expenses untouched.
func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) UpsertGoal(_ context.Context, g core.BudgetGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[goalKey{g.UserID, g.MonthKey}] = g
	return nil
}

func (s *Store) GetGoal(_ context.Context, userID, monthKey string) (core.BudgetGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[goalKey{userID, monthKey}]
	if !ok {
		return core.BudgetGoal{}, core.ErrNotFound
	}
	return g, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
