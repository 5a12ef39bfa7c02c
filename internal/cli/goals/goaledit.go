package goals

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/streaks/internal/cli"
	"github.com/julianstephens/streaks/internal/models"
)

type GoalEditCmd struct {
	Goal           string  `arg:"" help:"Goal ID or name."`
	Name           *string `help:"New name."`
	Frequency      *string `short:"f" help:"New recording policy (daily|multi)."`
	Icon           *string `short:"i" help:"New icon."`
	Color          *string `short:"c" help:"New color."`
	Benchmark      *string `short:"b" help:"New target net score."`
	ClearBenchmark bool    `help:"Remove the benchmark."`
}

func (c *GoalEditCmd) changes() (models.GoalChanges, error) {
	changes := models.GoalChanges{Name: c.Name, Icon: c.Icon, Color: c.Color}

	if c.Frequency != nil {
		freq, err := models.ParseFrequency(*c.Frequency)
		if err != nil {
			return changes, err
		}
		changes.Frequency = &freq
	}

	switch {
	case c.ClearBenchmark && c.Benchmark != nil:
		return changes, fmt.Errorf("--benchmark and --clear-benchmark are mutually exclusive")
	case c.ClearBenchmark:
		changes.Benchmark = &decimal.NullDecimal{}
	case c.Benchmark != nil:
		d, err := decimal.NewFromString(strings.TrimSpace(*c.Benchmark))
		if err != nil {
			return changes, fmt.Errorf("invalid benchmark %q: %w", *c.Benchmark, err)
		}
		b := decimal.NewNullDecimal(d)
		changes.Benchmark = &b
	}
	return changes, nil
}

func (c *GoalEditCmd) Run(ctx *cli.Context) error {
	goal, err := ctx.ResolveGoal(c.Goal)
	if err != nil {
		return err
	}

	changes, err := c.changes()
	if err != nil {
		return err
	}
	if changes.IsEmpty() {
		ctx.Printf("Nothing to change.\n")
		return nil
	}

	if err := ctx.Service.UpdateGoal(ctx.Ctx(), goal.ID, changes); err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	ctx.Printf("✓ Updated goal %q\n", goal.Name)
	return nil
}
