package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/ports"
)

type CategoryService struct {
	store    ports.CategoryStore
	notifier *Notifier
	now      func() time.Time
	newID    func() string
}

func NewCategoryService(store ports.CategoryStore, notifier *Notifier) *CategoryService {
	return &CategoryService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ResolveCategory maps a typed category name to an id, creating the category
// on first use. A blank name falls back to fallbackID when one is given.
// Names match exactly: "Food" and "food" are different categories.
func (s *CategoryService) ResolveCategory(ctx context.Context, userID, name, fallbackID string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if fallbackID == "" {
			return "", &core.ValidationError{Field: "category", Err: core.ErrCategoryRequired}
		}
		return fallbackID, nil
	}

	c, err := s.store.FindCategoryByName(ctx, userID, name)
	switch {
	case err == nil:
		return c.ID, nil
	case !errors.Is(err, core.ErrNotFound):
		return "", core.Collaborator("find category", err)
	}

	c, err = s.create(ctx, userID, name)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// create inserts a category, or returns the one a concurrent writer stored
// first under the same name.
func (s *CategoryService) create(ctx context.Context, userID, name string) (core.Category, error) {
	c := core.Category{
		ID:        s.newID(),
		UserID:    userID,
		Name:      name,
		Color:     core.DefaultCategoryColor,
		CreatedAt: s.now().UTC(),
	}
	err := s.store.CreateCategory(ctx, c)
	if errors.Is(err, core.ErrCategoryExists) {
		existing, ferr := s.store.FindCategoryByName(ctx, userID, name)
		if ferr != nil {
			return core.Category{}, core.Collaborator("find category", ferr)
		}
		slog.DebugContext(ctx, "Category created concurrently, using existing",
			"user_id", userID, "category_id", existing.ID)
		return existing, nil
	}
	if err != nil {
		return core.Category{}, core.Collaborator("create category", err)
	}

	slog.InfoContext(ctx, "Category created", "user_id", userID, "category_id", c.ID, "name", name)
	s.notifier.Changed(ctx, userID, amqp.CategoryCreated, c.ID)
	return c, nil
}

// CreateCategory adds a named category. Unlike ResolveCategory an existing
// name is an error.
func (s *CategoryService) CreateCategory(ctx context.Context, userID, name string, color uint32) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, &core.ValidationError{Field: "name", Err: core.ErrCategoryRequired}
	}
	if color == 0 {
		color = core.DefaultCategoryColor
	}
	c := core.Category{
		ID:        s.newID(),
		UserID:    userID,
		Name:      name,
		Color:     color,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, core.Collaborator("create category", err)
	}
	s.notifier.Changed(ctx, userID, amqp.CategoryCreated, c.ID)
	return c, nil
}

func (s *CategoryService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, core.Collaborator("list categories", err)
	}
	return cats, nil
}

// DeleteCategory removes the category only. Expenses that reference it are
// reported as Uncategorized from then on.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return core.Collaborator("delete category", err)
	}
	s.notifier.Changed(ctx, userID, amqp.CategoryDeleted, id)
	return nil
}
