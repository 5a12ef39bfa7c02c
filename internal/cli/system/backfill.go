package system

import (
	"fmt"
	"sort"

	"github.com/julianstephens/streaks/internal/cli"
)

// BackfillCmd reports the misses the startup reconciliation recorded.
type BackfillCmd struct {
	Verbose bool `short:"v" help:"List inserted misses per goal."`
}

func (c *BackfillCmd) Run(ctx *cli.Context) error {
	report, err := ctx.Service.ReconcileOnce(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	if report.Inserted == 0 {
		ctx.Printf("All %d goal(s) are up to date.\n", report.Goals)
		return nil
	}
	ctx.Printf("✓ Recorded %d missed day(s) across %d goal(s)\n", report.Inserted, report.Goals)

	if !c.Verbose {
		return nil
	}
	ids := make([]string, 0, len(report.PerGoal))
	for id := range report.PerGoal {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ctx.Printf("  %s  %d\n", id, report.PerGoal[id])
	}
	return nil
}
