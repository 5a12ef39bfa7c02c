package stats

import (
	"testing"
	"time"

	"github.com/julianstephens/streaks/internal/models"
)

func date(month time.Month, day, hour int) time.Time {
	return time.Date(2024, month, day, hour, 0, 0, 0, time.UTC)
}

func TestBuildGridLayout(t *testing.T) {
	// Wednesday 2024-01-17; goal created Tuesday 2024-01-02.
	today := date(time.January, 17, 9)
	created := date(time.January, 2, 8)
	events := []models.Event{
		ev(date(time.January, 3, 10), 1),
		ev(date(time.January, 4, 10), -1),
		ev(date(time.January, 5, 10), 1),
		ev(date(time.January, 5, 11), -1),
		ev(date(time.January, 17, 8), 1),
		ev(date(time.January, 17, 8), 1),
	}

	grid := BuildGrid(created, events, 3, today)

	if grid.Rows != 3 || len(grid.Cells) != 21 {
		t.Fatalf("grid has %d rows and %d cells, want 3 and 21", grid.Rows, len(grid.Cells))
	}
	if !grid.WindowStart.Equal(date(time.January, 2, 0)) {
		t.Errorf("WindowStart = %v, want 2024-01-02", grid.WindowStart)
	}

	tests := []struct {
		row, col int
		day      string
		state    CellState
		sum      int
		today    bool
	}{
		{0, 0, "2024-01-01", CellPreCreation, 0, false},
		{0, 1, "2024-01-02", CellNoActivity, 0, false},
		{0, 2, "2024-01-03", CellPositive, 1, false},
		{0, 3, "2024-01-04", CellNegative, -1, false},
		{0, 4, "2024-01-05", CellBalanced, 0, false},
		{1, 0, "2024-01-08", CellNoActivity, 0, false},
		{2, 0, "2024-01-15", CellNoActivity, 0, false},
		{2, 2, "2024-01-17", CellPositive, 2, true},
		{2, 3, "2024-01-18", CellEmpty, 0, false},
		{2, 6, "2024-01-21", CellEmpty, 0, false},
	}

	for _, tt := range tests {
		cell := grid.Cell(tt.row, tt.col)
		if cell.DayKey != tt.day {
			t.Errorf("cell(%d,%d) day = %s, want %s", tt.row, tt.col, cell.DayKey, tt.day)
		}
		if cell.State != tt.state {
			t.Errorf("cell %s state = %v, want %v", tt.day, cell.State, tt.state)
		}
		if cell.Sum != tt.sum {
			t.Errorf("cell %s sum = %d, want %d", tt.day, cell.Sum, tt.sum)
		}
		if cell.IsToday != tt.today {
			t.Errorf("cell %s IsToday = %v, want %v", tt.day, cell.IsToday, tt.today)
		}
		if cell.Row != tt.row || cell.Col != tt.col {
			t.Errorf("cell %s position = (%d,%d), want (%d,%d)", tt.day, cell.Row, cell.Col, tt.row, tt.col)
		}
	}
}

func TestBuildGridMondayFirst(t *testing.T) {
	// Sunday 2024-01-21 closes its week: every cell of the last row is in
	// the past or today.
	today := date(time.January, 21, 12)
	grid := BuildGrid(date(time.January, 1, 0), nil, 2, today)

	for row := 0; row < grid.Rows; row++ {
		week := grid.Week(row)
		first, err := time.Parse("2006-01-02", week[0].DayKey)
		if err != nil {
			t.Fatalf("bad day key: %v", err)
		}
		if first.Weekday() != time.Monday {
			t.Errorf("row %d starts on %s, want Monday", row, first.Weekday())
		}
	}

	last := grid.Week(1)
	if !last[6].IsToday || last[6].State != CellNoActivity {
		t.Errorf("last cell = %+v, want today with no activity", last[6])
	}
	for _, c := range grid.Cells {
		if c.State == CellEmpty {
			t.Errorf("unexpected future placeholder %s", c.DayKey)
		}
	}
}

func TestBuildGridWindowStartLimitedByRows(t *testing.T) {
	today := date(time.January, 17, 9)
	grid := BuildGrid(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), nil, 2, today)

	// today - (2*7 - 1) days
	if !grid.WindowStart.Equal(date(time.January, 4, 0)) {
		t.Errorf("WindowStart = %v, want 2024-01-04", grid.WindowStart)
	}
}

func TestBuildGridRowsClamped(t *testing.T) {
	today := date(time.January, 17, 9)
	grid := BuildGrid(today, nil, 0, today)

	if grid.Rows != 1 || len(grid.Cells) != 7 {
		t.Fatalf("rows = %d, cells = %d, want 1 and 7", grid.Rows, len(grid.Cells))
	}
	if grid.Cells[0].DayKey != "2024-01-15" {
		t.Errorf("first day = %s, want 2024-01-15", grid.Cells[0].DayKey)
	}
	if grid.Cells[0].State != CellPreCreation {
		t.Errorf("Monday before creation = %v, want pre-creation", grid.Cells[0].State)
	}
}

func TestBuildGridUsesTodayLocation(t *testing.T) {
	minus5 := time.FixedZone("UTC-5", -5*60*60)
	today := time.Date(2024, 1, 17, 9, 0, 0, 0, minus5)

	// 02:00 UTC on Jan 17 is 21:00 on Jan 16 in UTC-5.
	events := []models.Event{ev(time.Date(2024, 1, 17, 2, 0, 0, 0, time.UTC), 1)}
	grid := BuildGrid(time.Date(2024, 1, 1, 0, 0, 0, 0, minus5), events, 1, today)

	if got := grid.Cell(0, 1); got.DayKey != "2024-01-16" || got.State != CellPositive {
		t.Errorf("Tuesday cell = %+v, want positive 2024-01-16", got)
	}
	if got := grid.Cell(0, 2); got.State != CellNoActivity || !got.IsToday {
		t.Errorf("today cell = %+v, want no activity", got)
	}
}

func TestBuildGridStable(t *testing.T) {
	today := date(time.January, 17, 9)
	events := []models.Event{ev(date(time.January, 10, 1), 1)}

	a := BuildGrid(date(time.January, 1, 0), events, 4, today)
	b := BuildGrid(date(time.January, 1, 0), events, 4, today)
	for i := range a.Cells {
		if a.Cells[i] != b.Cells[i] {
			t.Fatalf("cell %d differs between identical builds", i)
		}
	}
}

func TestBuildGridCreationDayCounts(t *testing.T) {
	// Goal created Monday 2024-01-01; today is Wednesday 2024-01-03.
	created := date(time.January, 1, 0)
	today := date(time.January, 3, 12)
	events := []models.Event{ev(date(time.January, 2, 10), 1)}

	grid := BuildGrid(created, events, 1, today)

	want := []struct {
		day   string
		state CellState
		today bool
	}{
		{"2024-01-01", CellNoActivity, false},
		{"2024-01-02", CellPositive, false},
		{"2024-01-03", CellNoActivity, true},
		{"2024-01-04", CellEmpty, false},
		{"2024-01-05", CellEmpty, false},
		{"2024-01-06", CellEmpty, false},
		{"2024-01-07", CellEmpty, false},
	}

	week := grid.Week(0)
	if len(week) != len(want) {
		t.Fatalf("week has %d cells, want %d", len(week), len(want))
	}
	for i, w := range want {
		cell := week[i]
		if cell.DayKey != w.day || cell.State != w.state || cell.IsToday != w.today {
			t.Errorf("cell %d = {%s %v today=%v}, want {%s %v today=%v}",
				i, cell.DayKey, cell.State, cell.IsToday, w.day, w.state, w.today)
		}
	}
	if !grid.WindowStart.Equal(date(time.January, 1, 0)) {
		t.Errorf("WindowStart = %v, want the creation day", grid.WindowStart)
	}
}
