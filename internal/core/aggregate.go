package core

import (
	"math"
	"sort"
)

// CategoryAmount is the spend attributed to one category id.
type CategoryAmount struct {
	CategoryID string
	Name       string
	Color      uint32
	Amount     Money
	Count      int
}

// Summary is the derived view over an expense snapshot for a date range.
// It is recomputed on demand and never cached.
type Summary struct {
	Range       DateRange
	TotalSpent  Money
	Count       int
	Average     Money
	ByCategory  []CategoryAmount
	TopCategory *CategoryAmount
	MostRecent  *Expense
}

// Aggregate reduces the expenses dated inside r. Inputs are not modified.
//
// Categories are ordered by total descending, then display name, then id.
// The most recent expense is the latest by date, then by start time (absent
// first), then by the greatest id.
func Aggregate(expenses []Expense, categories []Category, r DateRange) Summary {
	s := Summary{Range: r}

	byID := make(map[string]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	groups := make(map[string]*CategoryAmount)
	var order []string
	for i := range expenses {
		e := expenses[i]
		if !r.Contains(e.Date) {
			continue
		}
		s.Count++
		s.TotalSpent = s.TotalSpent.Add(e.Amount)

		g, ok := groups[e.CategoryID]
		if !ok {
			g = &CategoryAmount{CategoryID: e.CategoryID, Name: UncategorizedName}
			if c, found := byID[e.CategoryID]; found {
				g.Name = c.Name
				g.Color = c.Color
			}
			groups[e.CategoryID] = g
			order = append(order, e.CategoryID)
		}
		g.Amount = g.Amount.Add(e.Amount)
		g.Count++

		if s.MostRecent == nil || newer(e, *s.MostRecent) {
			latest := e
			s.MostRecent = &latest
		}
	}

	if s.Count == 0 {
		return s
	}

	s.Average = Money{Cents: int64(math.Round(float64(s.TotalSpent.Cents) / float64(s.Count)))}

	s.ByCategory = make([]CategoryAmount, 0, len(order))
	for _, id := range order {
		s.ByCategory = append(s.ByCategory, *groups[id])
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		a, b := s.ByCategory[i], s.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.CategoryID < b.CategoryID
	})
	top := s.ByCategory[0]
	s.TopCategory = &top

	return s
}

func newer(a, b Expense) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	switch {
	case a.StartTime != nil && b.StartTime == nil:
		return true
	case a.StartTime == nil && b.StartTime != nil:
		return false
	case a.StartTime != nil && !a.StartTime.Equal(*b.StartTime):
		return a.StartTime.After(*b.StartTime)
	}
	return a.ID > b.ID
}
