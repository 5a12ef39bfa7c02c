package stats

import (
	"fmt"
	"time"

	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/utils"
)

// CellState classifies one day of the calendar grid.
type CellState int

const (
	// CellEmpty is a placeholder for a day after today.
	CellEmpty CellState = iota
	// CellPreCreation is a day before the goal existed.
	CellPreCreation
	CellPositive
	CellNegative
	// CellNoActivity is a day without events.
	CellNoActivity
	// CellBalanced is a day whose events net to zero.
	CellBalanced
)

func (s CellState) String() string {
	switch s {
	case CellEmpty:
		return "empty"
	case CellPreCreation:
		return "pre-creation"
	case CellPositive:
		return "positive"
	case CellNegative:
		return "negative"
	case CellNoActivity:
		return "no-activity"
	case CellBalanced:
		return "balanced"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s CellState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Cell is one day of the grid.
type Cell struct {
	DayKey  string    `json:"day"`
	Row     int       `json:"row"`
	Col     int       `json:"col"`
	Sum     int       `json:"sum"`
	State   CellState `json:"state"`
	IsToday bool      `json:"is_today,omitempty"`
}

// Grid is a week-major calendar: Rows weeks of seven Monday-first days,
// oldest week first. Cells are stored row-major.
type Grid struct {
	Rows        int       `json:"rows"`
	WindowStart time.Time `json:"window_start"`
	Cells       []Cell    `json:"cells"`
}

// Cell returns the cell at row, col.
func (g Grid) Cell(row, col int) Cell {
	return g.Cells[row*constants.DaysPerWeek+col]
}

// Week returns the cells of one row.
func (g Grid) Week(row int) []Cell {
	start := row * constants.DaysPerWeek
	return g.Cells[start : start+constants.DaysPerWeek]
}

// BuildGrid lays out rows weeks ending with the week that contains today.
// Days are evaluated in today's location. rows < 1 is treated as 1.
func BuildGrid(createdAt time.Time, events []models.Event, rows int, today time.Time) Grid {
	if rows < 1 {
		rows = 1
	}

	loc := today.Location()
	todayDay := utils.StartOfDay(today, loc)
	createdDay := utils.StartOfDay(createdAt, loc)

	windowStart := utils.AddDays(todayDay, -(rows*constants.DaysPerWeek - 1))
	if createdDay.After(windowStart) {
		windowStart = createdDay
	}

	firstMonday := utils.AddDays(todayDay, -utils.MondayIndex(todayDay.Weekday())-(rows-1)*constants.DaysPerWeek)
	days := byDay(events, loc)

	grid := Grid{
		Rows:        rows,
		WindowStart: windowStart,
		Cells:       make([]Cell, 0, rows*constants.DaysPerWeek),
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < constants.DaysPerWeek; col++ {
			day := utils.AddDays(firstMonday, row*constants.DaysPerWeek+col)
			key := day.Format(constants.DateFormat)
			d, hasEvents := days[key]

			cell := Cell{
				DayKey:  key,
				Row:     row,
				Col:     col,
				IsToday: day.Equal(todayDay),
			}

			switch {
			case day.After(todayDay):
				cell.State = CellEmpty
			case day.Before(createdDay):
				cell.State = CellPreCreation
			case !hasEvents:
				cell.State = CellNoActivity
			case d.sum > 0:
				cell.Sum = d.sum
				cell.State = CellPositive
			case d.sum < 0:
				cell.Sum = d.sum
				cell.State = CellNegative
			default:
				cell.State = CellBalanced
			}

			grid.Cells = append(grid.Cells, cell)
		}
	}

	return grid
}
