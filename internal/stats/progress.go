package stats

import (
	"sort"
	"time"

	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/utils"
)

// ProgressPoint is the running score right after one event.
type ProgressPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Score     int       `json:"score"`
}

// Progress returns the running score after each of the last maxPoints events
// in timestamp order. The series starts from zero at the first kept event, so
// it charts the change over the window rather than the net score.
// maxPoints <= 0 keeps all events.
func Progress(events []models.Event, maxPoints int) []ProgressPoint {
	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	if maxPoints > 0 && len(sorted) > maxPoints {
		sorted = sorted[len(sorted)-maxPoints:]
	}

	points := make([]ProgressPoint, 0, len(sorted))
	score := 0
	for _, ev := range sorted {
		score += ev.Delta
		points = append(points, ProgressPoint{Timestamp: ev.Timestamp, Score: score})
	}
	return points
}

// Week returns the per-day delta totals of now's Monday-first week.
func Week(events []models.Event, now time.Time) [constants.DaysPerWeek]int {
	loc := now.Location()
	today := utils.StartOfDay(now, loc)
	monday := utils.AddDays(today, -utils.MondayIndex(today.Weekday()))
	nextMonday := utils.AddDays(monday, constants.DaysPerWeek)

	var week [constants.DaysPerWeek]int
	for _, ev := range events {
		ts := ev.Timestamp.In(loc)
		if ts.Before(monday) || !ts.Before(nextMonday) {
			continue
		}
		week[utils.MondayIndex(ts.Weekday())] += ev.Delta
	}
	return week
}
