package system

import (
	"github.com/julianstephens/streaks/internal/cli"
	"github.com/julianstephens/streaks/internal/tui"
)

type TuiCmd struct {
	Rows int `short:"r" help:"Weeks to show in the calendar grid. Defaults to the configured grid.rows."`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	// Automatic backup on startup, after a successful load
	ctx.PerformAutomaticBackup()

	rows := c.Rows
	if rows < 1 {
		rows = ctx.GridRows()
	}
	return tui.Run(ctx.Service, rows)
}
