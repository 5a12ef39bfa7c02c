// Package tracker is the application facade: goal and event mutations gated
// by the daily-frequency guard, the startup backfill, and the live reads the
// CLI, API and TUI consume.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/streaks/internal/constants"
	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/live"
	"github.com/julianstephens/streaks/internal/logger"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/utils"
)

// GoalDetail is a goal together with its events in timestamp order.
type GoalDetail struct {
	Goal   models.Goal    `json:"goal"`
	Events []models.Event `json:"events"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the source of "now" for the guard and backfill.
func WithClock(c utils.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLocation sets the timezone calendar days are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithLogger overrides the global logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.log = l }
}

type Service struct {
	store storage.Provider
	hub   *live.Hub
	clock utils.Clock
	loc   *time.Location
	log   *log.Logger

	reconcile       sync.Once
	reconcileReport BackfillReport
	reconcileErr    error
}

func NewService(store storage.Provider, hub *live.Hub, opts ...Option) *Service {
	s := &Service{
		store: store,
		hub:   hub,
		clock: utils.RealClock{},
		loc:   time.Local,
		log:   logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() storage.Provider  { return s.store }
func (s *Service) Hub() *live.Hub           { return s.hub }
func (s *Service) Location() *time.Location { return s.loc }

// Now returns the current time in the service's location.
func (s *Service) Now() time.Time {
	return s.clock.Now().In(s.loc)
}

// AddGoal creates a goal and returns its ID.
func (s *Service) AddGoal(ctx context.Context, in models.GoalInput) (string, error) {
	g, err := s.store.CreateGoal(ctx, in)
	if err != nil {
		return "", err
	}
	s.log.Info("Goal created", "id", g.ID, "name", g.Name, "frequency", g.Frequency)
	return g.ID, nil
}

// UpdateGoal applies a partial change to an existing goal.
func (s *Service) UpdateGoal(ctx context.Context, id string, changes models.GoalChanges) error {
	if _, err := s.store.UpdateGoal(ctx, id, changes); err != nil {
		return err
	}
	s.log.Debug("Goal updated", "id", id)
	return nil
}

// DeleteGoal removes a goal and every event recorded against it.
func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return err
	}
	s.log.Info("Goal deleted", "id", id)
	return nil
}

// AddEvent records a +1 or -1 against a goal at the current time. recorded is
// false when the daily-frequency guard skipped the insert; that is not an
// error.
func (s *Service) AddEvent(ctx context.Context, goalID string, delta int) (ev models.Event, recorded bool, err error) {
	if delta != constants.DeltaSuccess && delta != constants.DeltaMiss {
		return models.Event{}, false, apperrors.NewValidation("delta", fmt.Sprintf("must be %d or %d, got %d", constants.DeltaSuccess, constants.DeltaMiss, delta))
	}

	now := s.clock.Now()
	err = s.store.Update(ctx, func(tx storage.Tx) error {
		goal, err := tx.GetGoal(ctx, goalID)
		if err != nil {
			return err
		}

		ok, err := allowEvent(ctx, tx, goal, now, s.loc)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		ev, err = tx.CreateEvent(ctx, goalID, delta, now)
		if err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		return models.Event{}, false, err
	}

	if !recorded {
		s.log.Debug("Event skipped: already recorded today", "goal", goalID)
	}
	return ev, recorded, nil
}

// ReconcileOnce runs Backfill the first time it is called and returns that
// result on every later call.
func (s *Service) ReconcileOnce(ctx context.Context) (BackfillReport, error) {
	s.reconcile.Do(func() {
		s.reconcileReport, s.reconcileErr = Backfill(ctx, s.store, s.clock, s.loc, s.log)
		if s.reconcileErr == nil && s.reconcileReport.Inserted > 0 {
			s.log.Info("Backfill complete", "goals", s.reconcileReport.Goals, "inserted", s.reconcileReport.Inserted)
		}
	})
	return s.reconcileReport, s.reconcileErr
}

// Queries shared by the live and one-shot reads.

func queryGoals(ctx context.Context, r storage.Reader) ([]models.Goal, error) {
	return r.ListGoals(ctx)
}

func queryEvents(goalID string) func(context.Context, storage.Reader) ([]models.Event, error) {
	return func(ctx context.Context, r storage.Reader) ([]models.Event, error) {
		return r.ListEvents(ctx, goalID, storage.EventFilter{})
	}
}

func queryDetail(goalID string) func(context.Context, storage.Reader) (GoalDetail, error) {
	return func(ctx context.Context, r storage.Reader) (GoalDetail, error) {
		goal, err := r.GetGoal(ctx, goalID)
		if err != nil {
			return GoalDetail{}, err
		}
		events, err := r.ListEvents(ctx, goalID, storage.EventFilter{})
		if err != nil {
			return GoalDetail{}, err
		}
		return GoalDetail{Goal: goal, Events: events}, nil
	}
}

// snapshot runs query against one consistent view of the store.
func snapshot[T any](ctx context.Context, v storage.Viewer, query func(context.Context, storage.Reader) (T, error)) (T, error) {
	var out T
	err := v.View(ctx, func(r storage.Reader) error {
		var err error
		out, err = query(ctx, r)
		return err
	})
	return out, err
}

// ListGoalsLive delivers every goal, ordered by creation, now and after each
// goal mutation.
func (s *Service) ListGoalsLive(onNext func([]models.Goal), opts ...live.Option) *live.Subscription {
	return live.Subscribe(s.hub, queryGoals, onNext, opts...)
}

// EventsForGoalLive delivers a goal's events in ascending timestamp order,
// now and after each change to them.
func (s *Service) EventsForGoalLive(goalID string, onNext func([]models.Event), opts ...live.Option) *live.Subscription {
	return live.Subscribe(s.hub, queryEvents(goalID), onNext, opts...)
}

// GoalLive delivers a goal with its events whenever either changes.
func (s *Service) GoalLive(goalID string, onNext func(GoalDetail), opts ...live.Option) *live.Subscription {
	return live.Subscribe(s.hub, queryDetail(goalID), onNext, opts...)
}

// Goals returns the current goal list.
func (s *Service) Goals(ctx context.Context) ([]models.Goal, error) {
	return queryGoals(ctx, s.store)
}

// Events returns a goal's events, failing with NotFoundError for an unknown
// goal.
func (s *Service) Events(ctx context.Context, goalID string) ([]models.Event, error) {
	detail, err := snapshot(ctx, s.store, queryDetail(goalID))
	if err != nil {
		return nil, err
	}
	return detail.Events, nil
}

// Detail returns a goal with its events.
func (s *Service) Detail(ctx context.Context, goalID string) (GoalDetail, error) {
	return snapshot(ctx, s.store, queryDetail(goalID))
}
