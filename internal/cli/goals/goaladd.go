package goals

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/streaks/internal/cli"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/tui"
)

type GoalAddCmd struct {
	Name      string `arg:"" optional:"" help:"Goal name. Omit to fill in an interactive form."`
	Frequency string `short:"f" help:"Recording policy (daily|multi)." default:"daily" enum:"daily,multi"`
	Icon      string `short:"i" help:"Icon, e.g. an emoji."`
	Color     string `short:"c" help:"Display color, e.g. #40c463."`
	Benchmark string `short:"b" help:"Target net score."`
}

func (c *GoalAddCmd) input() (models.GoalInput, error) {
	freq, err := models.ParseFrequency(c.Frequency)
	if err != nil {
		return models.GoalInput{}, err
	}
	in := models.GoalInput{
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		Frequency: freq,
	}
	if b := strings.TrimSpace(c.Benchmark); b != "" {
		d, err := decimal.NewFromString(b)
		if err != nil {
			return in, fmt.Errorf("invalid benchmark %q: %w", b, err)
		}
		in.Benchmark = decimal.NewNullDecimal(d)
	}
	return in, nil
}

func (c *GoalAddCmd) Run(ctx *cli.Context) error {
	var in models.GoalInput
	if strings.TrimSpace(c.Name) == "" {
		fm := &tui.GoalFormModel{}
		if err := tui.NewGoalForm(fm).Run(); err != nil {
			return err
		}
		var err error
		if in, err = fm.Input(); err != nil {
			return err
		}
	} else {
		var err error
		if in, err = c.input(); err != nil {
			return err
		}
	}

	id, err := ctx.Service.AddGoal(ctx.Ctx(), in)
	if err != nil {
		return fmt.Errorf("failed to add goal: %w", err)
	}

	ctx.Printf("✓ Added goal %q (%s)\n", strings.TrimSpace(in.Name), id)
	return nil
}
