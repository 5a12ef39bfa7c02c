package storage

import (
	"context"
	"time"

	"github.com/julianstephens/streaks/internal/models"
)

// Collection names a group of records that change notifications refer to.
type Collection string

const (
	CollectionGoals  Collection = "goals"
	CollectionEvents Collection = "events"
)

// Change identifies a record touched by a committed write. Key is the goal ID
// for both collections, so event changes are addressed per goal.
type Change struct {
	Collection Collection
	Key        string
}

// EventFilter narrows ListEvents. Zero From/To leave that side of the
// [From, To) range open; Limit <= 0 means no limit.
type EventFilter struct {
	From       time.Time
	To         time.Time
	Descending bool
	Limit      int
}

// Reader is the query surface shared by the store, its transactions and
// live-query computations.
type Reader interface {
	GetGoal(ctx context.Context, id string) (models.Goal, error)
	// ListGoals returns every goal ordered by CreatedAt, then ID.
	ListGoals(ctx context.Context) ([]models.Goal, error)
	ListEvents(ctx context.Context, goalID string, filter EventFilter) ([]models.Event, error)
	// LatestEvent returns the most recent event of a goal; ok is false when
	// the goal has none.
	LatestEvent(ctx context.Context, goalID string) (ev models.Event, ok bool, err error)
}

// Viewer runs reads against one consistent snapshot.
type Viewer interface {
	// View runs fn in a read-only transaction. Every read made through r
	// sees the same committed state, so a concurrent multi-row write is
	// observed either entirely or not at all.
	View(ctx context.Context, fn func(r Reader) error) error
}

// Tx is a read-write view inside a single transaction.
type Tx interface {
	Reader

	CreateGoal(ctx context.Context, in models.GoalInput) (models.Goal, error)
	UpdateGoal(ctx context.Context, id string, changes models.GoalChanges) (models.Goal, error)
	// DeleteGoal removes a goal and all of its events. Deleting a missing
	// goal is a no-op.
	DeleteGoal(ctx context.Context, id string) error
	CreateEvent(ctx context.Context, goalID string, delta int, ts time.Time) (models.Event, error)
}

// Provider is a durable goal/event store.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Each Tx method called on the provider runs in its own transaction.
	Tx

	Viewer

	// Update runs fn in one transaction. Writes become visible together and
	// change notifications are delivered only after commit.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Watch registers a listener receiving one batch per committed write.
	// Listeners run on the writer's goroutine and must not block.
	Watch(listener func([]Change)) (cancel func())

	// Utils
	GetConfigPath() string
}
