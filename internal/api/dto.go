package api

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/stats"
)

// CreateGoalRequest is the body of POST /api/goals.
type CreateGoalRequest struct {
	Name      string              `json:"name"`
	Color     string              `json:"color"`
	Icon      string              `json:"icon"`
	Frequency string              `json:"frequency"`
	Benchmark decimal.NullDecimal `json:"benchmark"`
}

func (r CreateGoalRequest) input() (models.GoalInput, error) {
	freq, err := models.ParseFrequency(r.Frequency)
	if err != nil {
		return models.GoalInput{}, err
	}
	return models.GoalInput{
		Name:      r.Name,
		Color:     r.Color,
		Icon:      r.Icon,
		Frequency: freq,
		Benchmark: r.Benchmark,
	}, nil
}

// UpdateGoalRequest is the body of PATCH /api/goals/{id}. Absent fields are
// left untouched; "benchmark": null clears the benchmark.
type UpdateGoalRequest struct {
	Name      *string         `json:"name"`
	Color     *string         `json:"color"`
	Icon      *string         `json:"icon"`
	Frequency *string         `json:"frequency"`
	Benchmark json.RawMessage `json:"benchmark"`
}

func (r UpdateGoalRequest) changes() (models.GoalChanges, error) {
	c := models.GoalChanges{Name: r.Name, Color: r.Color, Icon: r.Icon}
	if r.Frequency != nil {
		freq, err := models.ParseFrequency(*r.Frequency)
		if err != nil {
			return c, err
		}
		c.Frequency = &freq
	}
	if len(r.Benchmark) > 0 {
		var b decimal.NullDecimal
		if strings.TrimSpace(string(r.Benchmark)) != "null" {
			if err := json.Unmarshal(r.Benchmark, &b.Decimal); err != nil {
				return c, apperrors.NewValidation("benchmark", "must be a number")
			}
			b.Valid = true
		}
		c.Benchmark = &b
	}
	return c, nil
}

// AddEventRequest is the body of POST /api/goals/{id}/events.
type AddEventRequest struct {
	Delta int `json:"delta"`
}

type AddEventResponse struct {
	Recorded bool          `json:"recorded"`
	Event    *models.Event `json:"event,omitempty"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

// StatsResponse is the body of GET /api/goals/{id}/stats.
type StatsResponse struct {
	stats.Aggregates
	Benchmark         decimal.NullDecimal   `json:"benchmark"`
	BenchmarkProgress decimal.NullDecimal   `json:"benchmark_progress"`
	Week              [7]int                `json:"week"`
	Progress          []stats.ProgressPoint `json:"progress"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
