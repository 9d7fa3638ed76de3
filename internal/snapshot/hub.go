// Package snapshot turns the persistence store into live subscriptions.
//
// A subscriber registers a callback for a user and date range. The hub loads a
// complete snapshot (expenses in range, categories, goal for the range's first
// month) on subscribe and again on every Notify for that user, and hands the
// full replacement to the callback. Nothing is diffed.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/ports"
)

// Source is the read side of the store the hub needs.
type Source interface {
	ListExpenses(ctx context.Context, userID string, r core.DateRange) ([]core.Expense, error)
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	GetGoal(ctx context.Context, userID, monthKey string) (core.BudgetGoal, error)
}

var _ Source = (ports.Store)(nil)

// loadTimeout bounds a shared load, which no single caller can cancel.
const loadTimeout = 30 * time.Second

// Snapshot is a point-in-time view of one user's records for a range.
type Snapshot struct {
	UserID     string
	Range      core.DateRange
	Expenses   []core.Expense
	Categories []core.Category
	Goal       *core.BudgetGoal
	LoadedAt   time.Time
}

// Callback receives each new snapshot. Calls for one subscription never overlap.
type Callback func(Snapshot)

// Subscription is the token returned by Subscribe.
type Subscription struct {
	hub    *Hub
	id     uint64
	userID string
	rng    core.DateRange
	fn     Callback

	mu     sync.Mutex
	closed bool
	last   time.Time
}

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.hub.remove(s)
}

func (s *Subscription) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || snap.LoadedAt.Before(s.last) {
		return
	}
	s.last = snap.LoadedAt
	s.fn(snap)
}

type Hub struct {
	source Source
	now    func() time.Time
	logger *slog.Logger
	loads  singleflight.Group

	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]*Subscription
}

func NewHub(source Source) *Hub {
	return &Hub{
		source: source,
		now:    time.Now,
		logger: slog.Default().With(applog.FieldComponent, applog.ComponentSnapshot),
		subs:   make(map[string]map[uint64]*Subscription),
	}
}

// Load reads a full snapshot. Concurrent loads of the same user and range
// share one read; a caller that gives up returns its own ctx error and leaves
// the read running for the others.
func (h *Hub) Load(ctx context.Context, userID string, r core.DateRange) (Snapshot, error) {
	ch := h.loads.DoChan(loadKey(userID, r), func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return h.load(lctx, userID, r)
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

func loadKey(userID string, r core.DateRange) string {
	return fmt.Sprintf("%s|%d|%d", userID, r.Start.UnixNano(), r.End.UnixNano())
}

func (h *Hub) load(ctx context.Context, userID string, r core.DateRange) (Snapshot, error) {
	expenses, err := h.source.ListExpenses(ctx, userID, r)
	if err != nil {
		return Snapshot{}, core.Collaborator("list expenses", err)
	}
	categories, err := h.source.ListCategories(ctx, userID)
	if err != nil {
		return Snapshot{}, core.Collaborator("list categories", err)
	}

	snap := Snapshot{
		UserID:     userID,
		Range:      r,
		Expenses:   expenses,
		Categories: categories,
		LoadedAt:   h.now(),
	}

	goal, err := h.source.GetGoal(ctx, userID, core.MonthKey(r.Start))
	switch {
	case err == nil:
		snap.Goal = &goal
	case errors.Is(err, core.ErrNotFound):
	default:
		return Snapshot{}, core.Collaborator("get goal", err)
	}
	return snap, nil
}

// Subscribe delivers the current snapshot before returning and registers fn for later pushes.
func (h *Hub) Subscribe(ctx context.Context, userID string, r core.DateRange, fn Callback) (*Subscription, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.nextID++
	sub := &Subscription{hub: h, id: h.nextID, userID: userID, rng: r, fn: fn}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uint64]*Subscription)
	}
	h.subs[userID][sub.id] = sub
	h.mu.Unlock()

	// Registered before the first load so a concurrent Notify is not lost;
	// deliver drops whichever snapshot turns out to be older.
	snap, err := h.Load(ctx, userID, r)
	if err != nil {
		sub.Unsubscribe()
		return nil, err
	}
	sub.deliver(snap)
	return sub, nil
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.subs[s.userID]; m != nil {
		delete(m, s.id)
		if len(m) == 0 {
			delete(h.subs, s.userID)
		}
	}
}

// Notify reloads and pushes a fresh snapshot to every subscriber of userID.
// A failed reload is logged and leaves subscribers on their previous snapshot.
func (h *Hub) Notify(ctx context.Context, userID string) {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs[userID]))
	for _, s := range h.subs[userID] {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		// An in-flight load may predate the change being announced.
		h.loads.Forget(loadKey(userID, s.rng))
		snap, err := h.Load(ctx, userID, s.rng)
		if err != nil {
			h.logger.WarnContext(ctx, "Snapshot reload failed",
				applog.FieldUserID, userID,
				applog.FieldError, err)
			continue
		}
		s.deliver(snap)
	}
}

// Subscribers returns the number of live subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
