package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/streaks/internal/errors"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Frequency
		wantErr bool
	}{
		{name: "daily", input: "daily", want: FrequencyDaily},
		{name: "multi", input: "multi", want: FrequencyMulti},
		{name: "mixed case", input: " Multi ", want: FrequencyMulti},
		{name: "empty defaults to daily", input: "", want: FrequencyDaily},
		{name: "unknown", input: "weekly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrequency(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFrequency(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFrequencyPolicy(t *testing.T) {
	if !FrequencyDaily.LimitsToOncePerDay() {
		t.Error("daily goals must be limited to one event per day")
	}
	if FrequencyMulti.LimitsToOncePerDay() {
		t.Error("multi goals must not be limited")
	}
	if Frequency(7).Valid() {
		t.Error("out-of-range frequency reported as valid")
	}
}

func TestFrequencyJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		F Frequency `json:"f"`
	}{F: FrequencyMulti})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"f":"multi"}` {
		t.Errorf("unexpected encoding %s", data)
	}

	var out struct {
		F Frequency `json:"f"`
	}
	if err := json.Unmarshal([]byte(`{"f":"daily"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.F != FrequencyDaily {
		t.Errorf("expected daily, got %v", out.F)
	}
	if err := json.Unmarshal([]byte(`{"f":"hourly"}`), &out); err == nil {
		t.Error("expected error for unknown frequency")
	}
}

func TestGoalChangesApply(t *testing.T) {
	goal := Goal{ID: "g1", Name: "Read", Color: "#fff", Frequency: FrequencyDaily}

	name := "  Read more  "
	freq := FrequencyMulti
	bench := decimal.NewNullDecimal(decimal.NewFromInt(10))
	changes := GoalChanges{Name: &name, Frequency: &freq, Benchmark: &bench}

	if changes.IsEmpty() {
		t.Fatal("changes should not be empty")
	}

	updated := changes.Apply(goal)
	if updated.Name != "Read more" {
		t.Errorf("expected trimmed name, got %q", updated.Name)
	}
	if updated.Frequency != FrequencyMulti {
		t.Errorf("expected multi, got %v", updated.Frequency)
	}
	if !updated.Benchmark.Valid || !updated.Benchmark.Decimal.Equal(decimal.NewFromInt(10)) {
		t.Errorf("unexpected benchmark %v", updated.Benchmark)
	}
	if updated.Color != "#fff" || updated.ID != "g1" {
		t.Error("untouched fields changed")
	}
	if goal.Name != "Read" {
		t.Error("Apply must not mutate its argument")
	}

	if !(GoalChanges{}).IsEmpty() {
		t.Error("zero GoalChanges should be empty")
	}
}

func TestGoalValidate(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		input     GoalInput
		wantField string
	}{
		{name: "valid", input: GoalInput{Name: "Read"}},
		{name: "empty name", input: GoalInput{Name: ""}, wantField: "name"},
		{name: "whitespace name", input: GoalInput{Name: "   "}, wantField: "name"},
		{name: "bad frequency", input: GoalInput{Name: "Read", Frequency: Frequency(7)}, wantField: "frequency"},
		{
			name:      "negative benchmark",
			input:     GoalInput{Name: "Read", Benchmark: decimal.NewNullDecimal(decimal.NewFromInt(-1))},
			wantField: "benchmark",
		},
		{
			name:  "zero benchmark",
			input: GoalInput{Name: "Read", Benchmark: decimal.NewNullDecimal(decimal.Zero)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewGoal("g1", tt.input, created).Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestNewGoalTrimsName(t *testing.T) {
	g := NewGoal("g1", GoalInput{Name: "  Run  "}, time.Now())
	if g.Name != "Run" {
		t.Errorf("Name = %q, want %q", g.Name, "Run")
	}
}

func TestParseFrequencyValidationError(t *testing.T) {
	_, err := ParseFrequency("hourly")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
