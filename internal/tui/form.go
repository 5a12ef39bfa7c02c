package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/julianstephens/streaks/internal/models"
)

// GoalFormModel backs the add-goal form.
type GoalFormModel struct {
	Name      string
	Icon      string
	Color     string
	Frequency models.Frequency
	Benchmark string
}

// Input converts the form values into a GoalInput.
func (fm GoalFormModel) Input() (models.GoalInput, error) {
	in := models.GoalInput{
		Name:      strings.TrimSpace(fm.Name),
		Icon:      strings.TrimSpace(fm.Icon),
		Color:     strings.TrimSpace(fm.Color),
		Frequency: fm.Frequency,
	}
	if b := strings.TrimSpace(fm.Benchmark); b != "" {
		d, err := decimal.NewFromString(b)
		if err != nil {
			return in, fmt.Errorf("invalid benchmark %q: %w", b, err)
		}
		in.Benchmark = decimal.NewNullDecimal(d)
	}
	return in, nil
}

func validateBenchmark(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("benchmark must be a number")
	}
	if d.IsNegative() {
		return fmt.Errorf("benchmark must not be negative")
	}
	return nil
}

// NewGoalForm creates the form used to add goals from the TUI and the CLI.
func NewGoalForm(fm *GoalFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewSelect[models.Frequency]().
				Title("Frequency").
				Options(
					huh.NewOption("Daily (once per day)", models.FrequencyDaily),
					huh.NewOption("Multi (any number per day)", models.FrequencyMulti),
				).
				Value(&fm.Frequency),
			huh.NewInput().
				Title("Icon").
				Description("Optional, e.g. an emoji").
				Value(&fm.Icon),
			huh.NewInput().
				Title("Color").
				Description("Optional, e.g. #40c463").
				Value(&fm.Color),
			huh.NewInput().
				Title("Benchmark").
				Description("Optional target net score").
				Value(&fm.Benchmark).
				Validate(validateBenchmark),
		),
	).WithTheme(huh.ThemeDracula())
}
