package lunchbox

import (
	"context"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/model"
	"github.com/dukerupert/nutribox/internal/nutrition"
	"github.com/dukerupert/nutribox/internal/policy"
	"github.com/dukerupert/nutribox/internal/store"
)

// ChildStats summarizes a child's non-deleted lunchboxes in a date range.
type ChildStats struct {
	ChildID         int64                        `json:"child_id"`
	From            *model.Date                  `json:"from,omitempty"`
	To              *model.Date                  `json:"to,omitempty"`
	LunchboxCount   int                          `json:"lunchbox_count"`
	ByStatus        map[model.LunchboxStatus]int `json:"by_status"`
	Totals          nutrition.Summary            `json:"totals"`
	AverageCalories float64                      `json:"average_calories"`
}

// ChildStats reports totals for childID between from and to, inclusive.
// Either bound may be nil.
func (s *Service) ChildStats(ctx context.Context, actor model.Principal, childID int64, from, to *model.Date) (*ChildStats, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.Validation("to must not be before from")
	}
	if err := policy.RequireTier(actor, policy.AdvancedStats); err != nil {
		return nil, err
	}
	if _, err := ownedChild(ctx, s.db, actor, childID); err != nil {
		return nil, err
	}

	stats := &ChildStats{
		ChildID:  childID,
		From:     from,
		To:       to,
		ByStatus: make(map[model.LunchboxStatus]int),
	}

	lunchboxes := store.NewLunchboxStore(s.db)
	page := store.Page{Limit: store.MaxLimit}
	var summaries []nutrition.Summary
	for {
		batch, err := lunchboxes.List(ctx, store.LunchboxFilter{
			ParentID: actor.ID(),
			ChildID:  childID,
			From:     from,
			To:       to,
			Page:     page,
		})
		if err != nil {
			return nil, err
		}
		for _, lb := range batch {
			lines, err := resolveLines(ctx, s.db, lb.ID)
			if err != nil {
				return nil, err
			}
			summaries = append(summaries, nutrition.Summarize(lines))
			stats.ByStatus[lb.Status]++
		}
		if len(batch) < page.Limit {
			break
		}
		page.Offset += page.Limit
	}

	stats.LunchboxCount = len(summaries)
	stats.Totals = nutrition.Aggregate(summaries...)
	if stats.LunchboxCount > 0 {
		stats.AverageCalories = stats.Totals.TotalCalories / float64(stats.LunchboxCount)
	}
	return stats, nil
}
