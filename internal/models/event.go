package models

import (
	"time"

	"github.com/julianstephens/streaks/internal/constants"
)

// Event is a single immutable increment or decrement against a goal.
type Event struct {
	ID        string    `json:"id" yaml:"id"`
	GoalID    string    `json:"goal_id" yaml:"goal_id"`
	Delta     int       `json:"delta" yaml:"delta"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// DayKey returns the calendar day (YYYY-MM-DD) of the event in loc.
func (e Event) DayKey(loc *time.Location) string {
	return e.Timestamp.In(loc).Format(constants.DateFormat)
}
