package goals

import (
	"fmt"

	"github.com/julianstephens/streaks/internal/cli"
	"github.com/julianstephens/streaks/internal/constants"
)

func record(ctx *cli.Context, ref string, delta int) error {
	goal, err := ctx.ResolveGoal(ref)
	if err != nil {
		return err
	}

	_, recorded, err := ctx.Service.AddEvent(ctx.Ctx(), goal.ID, delta)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	if !recorded {
		ctx.Printf("%q already has an entry today; nothing recorded.\n", goal.Name)
		return nil
	}

	ctx.Printf("✓ Recorded %+d for %q\n", delta, goal.Name)
	return nil
}

// IncCmd records a success.
type IncCmd struct {
	Goal string `arg:"" help:"Goal ID or name."`
}

func (c *IncCmd) Run(ctx *cli.Context) error {
	return record(ctx, c.Goal, constants.DeltaSuccess)
}

// DecCmd records a miss.
type DecCmd struct {
	Goal string `arg:"" help:"Goal ID or name."`
}

func (c *DecCmd) Run(ctx *cli.Context) error {
	return record(ctx, c.Goal, constants.DeltaMiss)
}
