package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/streaks/internal/errors"
)

// Frequency is the per-day recording policy of a goal.
type Frequency int

const (
	// FrequencyDaily allows at most one event per calendar day.
	FrequencyDaily Frequency = iota
	// FrequencyMulti allows any number of events per day.
	FrequencyMulti
)

// ParseFrequency parses the persisted/wire form of a frequency.
// An empty string yields FrequencyDaily.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily":
		return FrequencyDaily, nil
	case "multi":
		return FrequencyMulti, nil
	}
	return 0, apperrors.NewValidation("frequency", fmt.Sprintf("unknown value %q (expected daily or multi)", s))
}

func (f Frequency) String() string {
	switch f {
	case FrequencyDaily:
		return "daily"
	case FrequencyMulti:
		return "multi"
	}
	return fmt.Sprintf("frequency(%d)", int(f))
}

// Valid reports whether f is one of the known variants.
func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyMulti
}

// LimitsToOncePerDay reports whether the daily-frequency guard applies.
func (f Frequency) LimitsToOncePerDay() bool {
	return f == FrequencyDaily
}

func (f Frequency) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid frequency %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *Frequency) UnmarshalText(text []byte) error {
	parsed, err := ParseFrequency(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Goal is a tracked habit
type Goal struct {
	ID        string              `json:"id" yaml:"id"`
	Name      string              `json:"name" yaml:"name"`
	Color     string              `json:"color" yaml:"color"`
	Icon      string              `json:"icon" yaml:"icon"`
	Frequency Frequency           `json:"frequency" yaml:"frequency"`
	Benchmark decimal.NullDecimal `json:"benchmark" yaml:"-"`
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
}

// GoalInput carries the caller-supplied fields of a new goal.
// ID and CreatedAt are assigned by the store.
type GoalInput struct {
	Name      string
	Color     string
	Icon      string
	Frequency Frequency
	Benchmark decimal.NullDecimal
}

// GoalChanges is a partial update. Nil fields are left untouched.
type GoalChanges struct {
	Name      *string
	Color     *string
	Icon      *string
	Frequency *Frequency
	// Benchmark replaces the stored benchmark when non-nil; a value with
	// Valid=false clears it.
	Benchmark *decimal.NullDecimal
}

// IsEmpty reports whether the change set touches no field.
func (c GoalChanges) IsEmpty() bool {
	return c.Name == nil && c.Color == nil && c.Icon == nil && c.Frequency == nil && c.Benchmark == nil
}

// Apply returns a copy of g with the changes applied.
func (c GoalChanges) Apply(g Goal) Goal {
	if c.Name != nil {
		g.Name = strings.TrimSpace(*c.Name)
	}
	if c.Color != nil {
		g.Color = *c.Color
	}
	if c.Icon != nil {
		g.Icon = *c.Icon
	}
	if c.Frequency != nil {
		g.Frequency = *c.Frequency
	}
	if c.Benchmark != nil {
		g.Benchmark = *c.Benchmark
	}
	return g
}

// Validate checks the invariants every persisted goal must hold.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return apperrors.NewValidation("name", "must not be empty")
	}
	if !g.Frequency.Valid() {
		return apperrors.NewValidation("frequency", fmt.Sprintf("unknown value %d", int(g.Frequency)))
	}
	if g.Benchmark.Valid && g.Benchmark.Decimal.IsNegative() {
		return apperrors.NewValidation("benchmark", "must not be negative")
	}
	return nil
}

// NewGoal builds an unsaved goal from input, trimming the name.
func NewGoal(id string, in GoalInput, createdAt time.Time) Goal {
	return Goal{
		ID:        id,
		Name:      strings.TrimSpace(in.Name),
		Color:     in.Color,
		Icon:      in.Icon,
		Frequency: in.Frequency,
		Benchmark: in.Benchmark,
		CreatedAt: createdAt,
	}
}
