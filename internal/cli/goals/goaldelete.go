package goals

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streaks/internal/cli"
)

type GoalDeleteCmd struct {
	Goal string `arg:"" help:"Goal ID or name."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *GoalDeleteCmd) Run(ctx *cli.Context) error {
	goal, err := ctx.ResolveGoal(c.Goal)
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q and all of its events?", goal.Name)).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			ctx.Printf("Cancelled.\n")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()

	if err := ctx.Service.DeleteGoal(ctx.Ctx(), goal.ID); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	ctx.Printf("✓ Deleted goal %q\n", goal.Name)
	return nil
}
