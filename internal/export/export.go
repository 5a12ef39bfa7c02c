// Package export dumps every goal with its events and aggregates as JSON or
// YAML.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/streaks/internal/constants"
	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/stats"
	"github.com/julianstephens/streaks/internal/storage"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", apperrors.NewValidation("format", fmt.Sprintf("unknown export format %q (expected json or yaml)", s))
}

type Document struct {
	App        string    `json:"app" yaml:"app"`
	Version    string    `json:"version" yaml:"version"`
	ExportedAt time.Time `json:"exported_at" yaml:"exported_at"`
	Goals      []Goal    `json:"goals" yaml:"goals"`
}

// Goal flattens models.Goal so the benchmark survives YAML as a string.
type Goal struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Color     string  `json:"color,omitempty" yaml:"color,omitempty"`
	Icon      string  `json:"icon,omitempty" yaml:"icon,omitempty"`
	Frequency string  `json:"frequency" yaml:"frequency"`
	Benchmark *string `json:"benchmark,omitempty" yaml:"benchmark,omitempty"`
	Progress  *string `json:"benchmark_progress,omitempty" yaml:"benchmark_progress,omitempty"`
	CreatedAt string  `json:"created_at" yaml:"created_at"`
	Stats     Stats   `json:"stats" yaml:"stats"`
	Events    []Event `json:"events" yaml:"events"`
}

type Stats struct {
	NetScore int `json:"net_score" yaml:"net_score"`
	Total    int `json:"total" yaml:"total"`
	Positive int `json:"positive" yaml:"positive"`
	Negative int `json:"negative" yaml:"negative"`
	Streak   int `json:"streak" yaml:"streak"`
}

type Event struct {
	ID        string `json:"id" yaml:"id"`
	Delta     int    `json:"delta" yaml:"delta"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// Build reads every goal and its events from one snapshot of v. Aggregates
// are computed as of now, in now's location.
func Build(ctx context.Context, v storage.Viewer, now time.Time) (*Document, error) {
	doc := &Document{
		App:        constants.AppName,
		Version:    constants.Version,
		ExportedAt: now,
	}

	err := v.View(ctx, func(r storage.Reader) error {
		goals, err := r.ListGoals(ctx)
		if err != nil {
			return fmt.Errorf("failed to list goals: %w", err)
		}

		doc.Goals = make([]Goal, 0, len(goals))
		for _, g := range goals {
			events, err := r.ListEvents(ctx, g.ID, storage.EventFilter{})
			if err != nil {
				return fmt.Errorf("failed to list events for goal %s: %w", g.ID, err)
			}
			doc.Goals = append(doc.Goals, newGoal(g, events, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func newGoal(g models.Goal, events []models.Event, now time.Time) Goal {
	agg := stats.Compute(events, now)
	out := Goal{
		ID:        g.ID,
		Name:      g.Name,
		Color:     g.Color,
		Icon:      g.Icon,
		Frequency: g.Frequency.String(),
		CreatedAt: g.CreatedAt.Format(time.RFC3339),
		Stats:     Stats(agg),
		Events:    make([]Event, len(events)),
	}
	if g.Benchmark.Valid {
		b := g.Benchmark.Decimal.String()
		out.Benchmark = &b
		if p := stats.BenchmarkProgress(agg.NetScore, g.Benchmark); p.Valid {
			s := p.Decimal.String()
			out.Progress = &s
		}
	}
	for i, ev := range events {
		out.Events[i] = Event{
			ID:        ev.ID,
			Delta:     ev.Delta,
			Timestamp: ev.Timestamp.Format(time.RFC3339),
		}
	}
	return out
}

// Write encodes doc to w.
func Write(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return apperrors.NewValidation("format", fmt.Sprintf("unknown export format %q", format))
}
