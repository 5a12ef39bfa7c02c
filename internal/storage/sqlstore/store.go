// Package sqlstore implements storage.Provider's data operations over
// database/sql. The sqlite and postgres packages own connection lifecycle and
// migrations, then delegate here.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/logger"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/utils"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for CreatedAt.
func WithClock(c utils.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDGenerator sets the generator used for goal and event IDs.
func WithIDGenerator(g utils.IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// Store implements every storage.Provider operation except lifecycle.
type Store struct {
	db      *sql.DB
	dialect Dialect
	clock   utils.Clock
	ids     utils.IDGenerator

	mu        sync.RWMutex
	listeners map[int]func([]storage.Change)
	nextID    int
}

func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		db:        db,
		dialect:   dialect,
		clock:     utils.RealClock{},
		ids:       utils.UUIDGenerator{},
		listeners: make(map[int]func([]storage.Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) reader() *txn {
	return &txn{s: s, q: s.db}
}

// Update runs fn inside one database transaction. Errors returned by fn are
// passed through unchanged after rollback; a failed commit is reported as a
// TransactionError.
func (s *Store) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewTransaction("begin", err)
	}

	t := &txn{s: s, q: sqlTx}
	if err := fn(t); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Warn("Rollback failed", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return apperrors.NewTransaction("commit", err)
	}

	s.notify(t.changes)
	return nil
}

// View runs fn inside a read-only transaction so multi-statement reads see a
// single snapshot. Errors returned by fn are passed through unchanged.
func (s *Store) View(ctx context.Context, fn func(r storage.Reader) error) error {
	sqlTx, err := s.db.BeginTx(ctx, s.dialect.SnapshotOptions())
	if err != nil {
		return apperrors.NewTransaction("begin read", err)
	}
	defer func() {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Warn("Rollback failed", "error", rbErr)
		}
	}()

	return fn(&txn{s: s, q: sqlTx})
}

// Watch registers a post-commit change listener.
func (s *Store) Watch(listener func([]storage.Change)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify(changes []storage.Change) {
	if len(changes) == 0 {
		return
	}

	s.mu.RLock()
	listeners := make([]func([]storage.Change), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		batch := make([]storage.Change, len(changes))
		copy(batch, changes)
		l(batch)
	}
}

// Single reads run directly against the pool; use View to combine several.

func (s *Store) GetGoal(ctx context.Context, id string) (models.Goal, error) {
	return s.reader().GetGoal(ctx, id)
}

func (s *Store) ListGoals(ctx context.Context) ([]models.Goal, error) {
	return s.reader().ListGoals(ctx)
}

func (s *Store) ListEvents(ctx context.Context, goalID string, filter storage.EventFilter) ([]models.Event, error) {
	return s.reader().ListEvents(ctx, goalID, filter)
}

func (s *Store) LatestEvent(ctx context.Context, goalID string) (models.Event, bool, error) {
	return s.reader().LatestEvent(ctx, goalID)
}

// Single-write operations each run in their own transaction.

func (s *Store) CreateGoal(ctx context.Context, in models.GoalInput) (models.Goal, error) {
	var g models.Goal
	err := s.Update(ctx, func(tx storage.Tx) error {
		var err error
		g, err = tx.CreateGoal(ctx, in)
		return err
	})
	return g, err
}

func (s *Store) UpdateGoal(ctx context.Context, id string, changes models.GoalChanges) (models.Goal, error) {
	var g models.Goal
	err := s.Update(ctx, func(tx storage.Tx) error {
		var err error
		g, err = tx.UpdateGoal(ctx, id, changes)
		return err
	})
	return g, err
}

// DeleteGoal removes the goal and its events in one transaction. Any failure
// is reported as a TransactionError and leaves both records intact.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	err := s.Update(ctx, func(tx storage.Tx) error {
		return tx.DeleteGoal(ctx, id)
	})
	if err != nil && !errors.Is(err, apperrors.ErrTransaction) {
		return apperrors.NewTransaction("delete goal", err)
	}
	return err
}

func (s *Store) CreateEvent(ctx context.Context, goalID string, delta int, ts time.Time) (models.Event, error) {
	var ev models.Event
	err := s.Update(ctx, func(tx storage.Tx) error {
		var err error
		ev, err = tx.CreateEvent(ctx, goalID, delta, ts)
		return err
	})
	return ev, err
}

// txn implements storage.Tx over a querier and collects the changes to
// publish once the transaction commits.
type txn struct {
	s       *Store
	q       querier
	changes []storage.Change
}

func (t *txn) record(c storage.Change) {
	for _, existing := range t.changes {
		if existing == c {
			return
		}
	}
	t.changes = append(t.changes, c)
}

func (t *txn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.q.ExecContext(ctx, t.s.dialect.Rebind(query), args...)
}

func (t *txn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.q.QueryContext(ctx, t.s.dialect.Rebind(query), args...)
}

func (t *txn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.q.QueryRowContext(ctx, t.s.dialect.Rebind(query), args...)
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
