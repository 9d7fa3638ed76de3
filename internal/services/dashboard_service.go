package services

import (
	"context"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/snapshot"
)

// Dashboard is the presentation model for one user and range.
type Dashboard struct {
	UserID        string            `json:"user_id"`
	From          time.Time         `json:"from"`
	To            time.Time         `json:"to"`
	MonthKey      string            `json:"month"`
	TotalCents    int64             `json:"total_cents"`
	Total         string            `json:"total"`
	Count         int               `json:"count"`
	AverageCents  int64             `json:"average_cents"`
	Average       string            `json:"average"`
	Status        core.BudgetStatus `json:"status"`
	Progress      float64           `json:"progress_percent"`
	Goal          *GoalView         `json:"goal,omitempty"`
	Categories    []CategoryView    `json:"categories"`
	TopCategory   *CategoryView     `json:"top_category,omitempty"`
	MostRecent    *RecentExpense    `json:"most_recent,omitempty"`
	DaysRemaining *int              `json:"days_remaining,omitempty"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

type GoalView struct {
	MinimumCents int64  `json:"minimum_cents"`
	Minimum      string `json:"minimum"`
	MaximumCents int64  `json:"maximum_cents"`
	Maximum      string `json:"maximum"`
	Inverted     bool   `json:"inverted"`
}

type CategoryView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Color       uint32  `json:"color"`
	AmountCents int64   `json:"amount_cents"`
	Amount      string  `json:"amount"`
	Count       int     `json:"count"`
	Share       float64 `json:"share_percent"`
}

type RecentExpense struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Date        time.Time `json:"date"`
	Ago         string    `json:"ago"`
}

type DashboardService struct {
	hub      *snapshot.Hub
	currency string
	now      func() time.Time
}

func NewDashboardService(hub *snapshot.Hub, currencySymbol string) *DashboardService {
	return &DashboardService{hub: hub, currency: currencySymbol, now: time.Now}
}

// Build loads a fresh snapshot and derives the dashboard from it.
func (s *DashboardService) Build(ctx context.Context, userID string, r core.DateRange) (Dashboard, error) {
	if err := r.Validate(); err != nil {
		return Dashboard{}, err
	}
	snap, err := s.hub.Load(ctx, userID, r)
	if err != nil {
		return Dashboard{}, err
	}
	return s.FromSnapshot(snap), nil
}

// FromSnapshot is pure apart from the clock used for relative dates.
func (s *DashboardService) FromSnapshot(snap snapshot.Snapshot) Dashboard {
	// month membership and days remaining are judged in UTC, like expense dates
	now := s.now().UTC()
	sum := core.Aggregate(snap.Expenses, snap.Categories, snap.Range)

	d := Dashboard{
		UserID:       snap.UserID,
		From:         snap.Range.Start,
		To:           snap.Range.End,
		MonthKey:     core.MonthKey(snap.Range.Start),
		TotalCents:   sum.TotalSpent.Cents,
		Total:        s.money(sum.TotalSpent),
		Count:        sum.Count,
		AverageCents: sum.Average.Cents,
		Average:      s.money(sum.Average),
		Status:       core.Classify(sum.TotalSpent, snap.Goal),
		Categories:   make([]CategoryView, 0, len(sum.ByCategory)),
		GeneratedAt:  now,
	}

	if g := snap.Goal; g != nil {
		d.Progress = core.ProgressPercent(sum.TotalSpent, g.Maximum)
		d.Goal = &GoalView{
			MinimumCents: g.Minimum.Cents,
			Minimum:      s.money(g.Minimum),
			MaximumCents: g.Maximum.Cents,
			Maximum:      s.money(g.Maximum),
			Inverted:     g.Inverted(),
		}
	}

	for _, c := range sum.ByCategory {
		d.Categories = append(d.Categories, s.categoryView(c, sum.TotalSpent))
	}
	if len(d.Categories) > 0 {
		top := d.Categories[0]
		d.TopCategory = &top
	}

	if e := sum.MostRecent; e != nil {
		d.MostRecent = &RecentExpense{
			ID:          e.ID,
			Description: e.Description,
			AmountCents: e.Amount.Cents,
			Amount:      s.money(e.Amount),
			Date:        e.Date,
			Ago:         core.TimeAgo(e.Date, now),
		}
	}

	if core.MonthKey(now) == d.MonthKey {
		days := core.DaysRemainingInMonth(now)
		d.DaysRemaining = &days
	}
	return d
}

func (s *DashboardService) categoryView(c core.CategoryAmount, total core.Money) CategoryView {
	v := CategoryView{
		ID:          c.CategoryID,
		Name:        c.Name,
		Color:       c.Color,
		AmountCents: c.Amount.Cents,
		Amount:      s.money(c.Amount),
		Count:       c.Count,
	}
	if total.Cents > 0 {
		v.Share = float64(c.Amount.Cents) / float64(total.Cents) * 100
	}
	return v
}

func (s *DashboardService) money(m core.Money) string {
	return core.FormatCurrency(m, s.currency)
}
