package goals

import (
	"fmt"

	"github.com/julianstephens/streaks/internal/cli"
	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/stats"
	"github.com/julianstephens/streaks/internal/tui/components/grid"
)

type GoalShowCmd struct {
	Goal string `arg:"" help:"Goal ID or name."`
	Rows int    `short:"r" help:"Weeks to show in the calendar grid. Defaults to the configured grid.rows."`
}

func (c *GoalShowCmd) Run(ctx *cli.Context) error {
	goal, err := ctx.ResolveGoal(c.Goal)
	if err != nil {
		return err
	}

	rows := c.Rows
	if rows == 0 {
		rows = ctx.GridRows()
	}
	if rows < 1 || rows > constants.MaxGridRows {
		return fmt.Errorf("--rows must be between 1 and %d", constants.MaxGridRows)
	}

	detail, err := ctx.Service.Detail(ctx.Ctx(), goal.ID)
	if err != nil {
		return err
	}

	now := ctx.Service.Now()
	agg := stats.Compute(detail.Events, now)
	ctx.Printf("%s\n", grid.Render(grid.Data{
		Goal:     detail.Goal,
		Grid:     stats.BuildGrid(detail.Goal.CreatedAt, detail.Events, rows, now),
		Stats:    agg,
		Week:     stats.Week(detail.Events, now),
		Progress: stats.BenchmarkProgress(agg.NetScore, detail.Goal.Benchmark),
	}))
	return nil
}
