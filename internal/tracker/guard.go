package tracker

import (
	"context"
	"time"

	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/utils"
)

// allowEvent reports whether a new event may be recorded for goal at now.
// Goals limited to once per day accept an event only if none exists yet in
// [startOfToday, startOfTomorrow) in loc.
func allowEvent(ctx context.Context, r storage.Reader, goal models.Goal, now time.Time, loc *time.Location) (bool, error) {
	if !goal.Frequency.LimitsToOncePerDay() {
		return true, nil
	}

	start := utils.StartOfDay(now, loc)
	existing, err := r.ListEvents(ctx, goal.ID, storage.EventFilter{
		From:  start,
		To:    utils.AddDays(start, 1),
		Limit: 1,
	})
	if err != nil {
		return false, err
	}
	return len(existing) == 0, nil
}
