// Package stats derives scores, streaks and calendar grids from a goal's
// event log. Every function is pure; "today" comes from the caller.
package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/utils"
)

// Aggregates summarizes a goal's event log.
type Aggregates struct {
	NetScore int `json:"net_score"`
	Total    int `json:"total"`
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Streak   int `json:"streak"`
}

type dayStats struct {
	sum      int
	count    int
	negative bool
}

// byDay groups events by calendar day in loc.
func byDay(events []models.Event, loc *time.Location) map[string]dayStats {
	days := make(map[string]dayStats)
	for _, ev := range events {
		key := ev.DayKey(loc)
		d := days[key]
		d.sum += ev.Delta
		d.count++
		if ev.Delta < 0 {
			d.negative = true
		}
		days[key] = d
	}
	return days
}

// Compute returns the aggregates of events as seen at now. Days are bucketed
// in now's location.
func Compute(events []models.Event, now time.Time) Aggregates {
	var a Aggregates
	for _, ev := range events {
		a.NetScore += ev.Delta
		switch {
		case ev.Delta > 0:
			a.Positive++
		case ev.Delta < 0:
			a.Negative++
		}
	}
	a.Total = len(events)
	a.Streak = Streak(events, now)
	return a
}

// Streak counts consecutive days, walking back from now's day, that have
// events and no negative delta. A negative day or an empty day ends the walk.
// Today is still in progress, so an empty today is skipped rather than ending
// the streak.
func Streak(events []models.Event, now time.Time) int {
	loc := now.Location()
	days := byDay(events, loc)

	streak := 0
	day := utils.StartOfDay(now, loc)
	for i := 0; ; i++ {
		d, ok := days[day.Format(constants.DateFormat)]
		switch {
		case !ok && i == 0:
		case !ok, d.negative:
			return streak
		default:
			streak++
		}
		day = utils.AddDays(day, -1)
	}
}

// BenchmarkProgress returns netScore as a fraction of benchmark. The result is
// invalid when there is no benchmark or it is zero.
func BenchmarkProgress(netScore int, benchmark decimal.NullDecimal) decimal.NullDecimal {
	if !benchmark.Valid || benchmark.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	ratio := decimal.NewFromInt(int64(netScore)).DivRound(benchmark.Decimal, 4)
	return decimal.NewNullDecimal(ratio)
}
