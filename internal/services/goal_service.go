package services

import (
	"context"
	"log/slog"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/ports"
)

type GoalService struct {
	store    ports.GoalStore
	notifier *Notifier
}

func NewGoalService(store ports.GoalStore, notifier *Notifier) *GoalService {
	return &GoalService{store: store, notifier: notifier}
}

// UpsertGoal replaces the goal for (user, month). A maximum below the minimum
// is stored anyway and reported through inverted.
func (s *GoalService) UpsertGoal(ctx context.Context, g core.BudgetGoal) (inverted bool, err error) {
	if err := g.Validate(); err != nil {
		return false, err
	}
	if g.Inverted() {
		slog.WarnContext(ctx, "Budget goal maximum below minimum",
			"user_id", g.UserID,
			"month", g.MonthKey,
			"minimum_cents", g.Minimum.Cents,
			"maximum_cents", g.Maximum.Cents)
	}
	if err := s.store.UpsertGoal(ctx, g); err != nil {
		return false, core.Collaborator("upsert goal", err)
	}
	s.notifier.Changed(ctx, g.UserID, amqp.GoalUpserted, g.MonthKey)
	return g.Inverted(), nil
}

// GetGoal returns core.ErrNotFound when no goal is set for the month.
func (s *GoalService) GetGoal(ctx context.Context, userID, monthKey string) (core.BudgetGoal, error) {
	if _, err := core.ParseMonthKey(monthKey); err != nil {
		return core.BudgetGoal{}, err
	}
	g, err := s.store.GetGoal(ctx, userID, monthKey)
	if err != nil {
		return core.BudgetGoal{}, core.Collaborator("get goal", err)
	}
	return g, nil
}
