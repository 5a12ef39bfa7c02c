package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/utils"
)

// BackfillReport summarizes one reconciliation pass.
type BackfillReport struct {
	Goals    int            `json:"goals"`
	Inserted int            `json:"inserted"`
	PerGoal  map[string]int `json:"per_goal,omitempty"`
}

// Store is the part of a provider the reconciler writes through.
type Store interface {
	storage.Reader
	Update(ctx context.Context, fn func(tx storage.Tx) error) error
}

// Backfill records an implicit miss (delta -1 at local midnight) for every
// past day without events since each goal's latest event, or since its
// creation when it has none. Today and future days are never written, so a
// second run is a no-op. Each goal is reconciled in its own transaction; a
// failing goal does not stop the others.
func Backfill(ctx context.Context, store Store, clock utils.Clock, loc *time.Location, logger *log.Logger) (BackfillReport, error) {
	report := BackfillReport{PerGoal: make(map[string]int)}

	goals, err := store.ListGoals(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list goals: %w", err)
	}
	report.Goals = len(goals)

	today := utils.StartOfDay(clock.Now(), loc)

	var errs []error
	for _, goal := range goals {
		inserted := 0
		err := store.Update(ctx, func(tx storage.Tx) error {
			inserted = 0

			cursor := goal.CreatedAt
			latest, ok, err := tx.LatestEvent(ctx, goal.ID)
			if err != nil {
				return err
			}
			if ok {
				cursor = latest.Timestamp
			}

			start := utils.StartOfDay(cursor, loc)
			gap := utils.DaysBetween(start, today, loc)
			for i := 1; i < gap; i++ {
				day := utils.AddDays(start, i)
				existing, err := tx.ListEvents(ctx, goal.ID, storage.EventFilter{
					From:  day,
					To:    utils.AddDays(day, 1),
					Limit: 1,
				})
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					continue
				}
				if _, err := tx.CreateEvent(ctx, goal.ID, constants.DeltaMiss, day); err != nil {
					return err
				}
				inserted++
			}
			return nil
		})
		if err != nil {
			logger.Error("Backfill failed", "goal", goal.ID, "error", err)
			errs = append(errs, fmt.Errorf("backfill goal %s: %w", goal.ID, err))
			continue
		}

		if inserted > 0 {
			report.PerGoal[goal.ID] = inserted
			report.Inserted += inserted
			logger.Debug("Backfilled missed days", "goal", goal.ID, "inserted", inserted)
		}
	}

	return report, errors.Join(errs...)
}
