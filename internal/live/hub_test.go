package live_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/streaks/internal/live"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/storage/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "live.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func newHub(t *testing.T, store storage.Provider) *live.Hub {
	t.Helper()
	hub := live.NewHub(store)
	t.Cleanup(hub.Close)
	return hub
}

func syncHub(t *testing.T, hub *live.Hub) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, hub.Sync(ctx))
}

// recorder collects deliveries made on the scheduler goroutine.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder[T]) all() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

func listGoals(ctx context.Context, r storage.Reader) ([]models.Goal, error) {
	return r.ListGoals(ctx)
}

func eventsFor(goalID string) func(context.Context, storage.Reader) ([]models.Event, error) {
	return func(ctx context.Context, r storage.Reader) ([]models.Event, error) {
		return r.ListEvents(ctx, goalID, storage.EventFilter{})
	}
}

func TestSubscribeDeliversInitialResult(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, err := store.CreateGoal(ctx, models.GoalInput{Name: "Read"})
	require.NoError(t, err)

	hub := newHub(t, store)
	rec := &recorder[[]models.Goal]{}
	sub := live.Subscribe(hub, listGoals, rec.add)
	defer sub.Close()

	syncHub(t, hub)

	got := rec.all()
	require.Len(t, got, 1)
	require.Len(t, got[0], 1)
	assert.Equal(t, "Read", got[0][0].Name)
}

func TestGoalListRecomputesOnGoalWrites(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	hub := newHub(t, store)

	rec := &recorder[[]models.Goal]{}
	sub := live.Subscribe(hub, listGoals, rec.add)
	defer sub.Close()
	syncHub(t, hub)

	g, err := store.CreateGoal(ctx, models.GoalInput{Name: "Read"})
	require.NoError(t, err)
	syncHub(t, hub)

	name := "Read more"
	_, err = store.UpdateGoal(ctx, g.ID, models.GoalChanges{Name: &name})
	require.NoError(t, err)
	syncHub(t, hub)

	require.NoError(t, store.DeleteGoal(ctx, g.ID))
	syncHub(t, hub)

	got := rec.all()
	require.Len(t, got, 4)
	assert.Empty(t, got[0])
	assert.Equal(t, "Read", got[1][0].Name)
	assert.Equal(t, "Read more", got[2][0].Name)
	assert.Empty(t, got[3])
}

func TestEventsQueryIgnoresOtherGoals(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	a, err := store.CreateGoal(ctx, models.GoalInput{Name: "A", Frequency: models.FrequencyMulti})
	require.NoError(t, err)
	b, err := store.CreateGoal(ctx, models.GoalInput{Name: "B", Frequency: models.FrequencyMulti})
	require.NoError(t, err)

	hub := newHub(t, store)
	rec := &recorder[[]models.Event]{}
	sub := live.Subscribe(hub, eventsFor(a.ID), rec.add)
	defer sub.Close()
	syncHub(t, hub)

	_, err = store.CreateEvent(ctx, b.ID, 1, time.Now())
	require.NoError(t, err)
	syncHub(t, hub)
	assert.Len(t, rec.all(), 1, "write to another goal must not recompute")

	_, err = store.CreateEvent(ctx, a.ID, 1, time.Now())
	require.NoError(t, err)
	syncHub(t, hub)

	got := rec.all()
	require.Len(t, got, 2)
	assert.Len(t, got[1], 1)
}

func TestDeliveriesGrowMonotonicallyUnderAppends(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	g, err := store.CreateGoal(ctx, models.GoalInput{Name: "Run", Frequency: models.FrequencyMulti})
	require.NoError(t, err)

	hub := newHub(t, store)
	rec := &recorder[[]models.Event]{}
	sub := live.Subscribe(hub, eventsFor(g.ID), rec.add)
	defer sub.Close()

	const n = 10
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		_, err := store.CreateEvent(ctx, g.ID, 1, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	syncHub(t, hub)

	got := rec.all()
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, len(got[i]), len(got[i-1]), "delivery %d shrank", i)
	}
	assert.Len(t, got[len(got)-1], n)
}

func TestEachWriteQueuesItsOwnRecompute(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	g, err := store.CreateGoal(ctx, models.GoalInput{Name: "Run", Frequency: models.FrequencyMulti})
	require.NoError(t, err)

	hub := newHub(t, store)
	rec := &recorder[[]models.Event]{}
	sub := live.Subscribe(hub, eventsFor(g.ID), rec.add)
	defer sub.Close()
	syncHub(t, hub)

	for i := 0; i < 3; i++ {
		_, err := store.CreateEvent(ctx, g.ID, 1, time.Now())
		require.NoError(t, err)
	}
	syncHub(t, hub)

	// Initial delivery plus one per write; nothing coalesced.
	assert.Len(t, rec.all(), 4)
}

func TestFailedRecomputeRedeliversLastGoodValue(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	hub := newHub(t, store)

	var fail atomic.Bool
	boom := errors.New("boom")
	query := func(ctx context.Context, r storage.Reader) (int, error) {
		goals, err := r.ListGoals(ctx)
		if err != nil {
			return 0, err
		}
		if fail.Load() {
			return 0, boom
		}
		return len(goals), nil
	}

	rec := &recorder[int]{}
	errs := &recorder[error]{}
	sub := live.Subscribe(hub, query, rec.add, live.OnError(errs.add), live.WithName("count"))
	defer sub.Close()
	syncHub(t, hub)

	fail.Store(true)
	_, err := store.CreateGoal(ctx, models.GoalInput{Name: "Read"})
	require.NoError(t, err)
	syncHub(t, hub)

	fail.Store(false)
	_, err = store.CreateGoal(ctx, models.GoalInput{Name: "Run"})
	require.NoError(t, err)
	syncHub(t, hub)

	assert.Equal(t, []int{0, 0, 2}, rec.all())
	require.Len(t, errs.all(), 1)
	assert.ErrorIs(t, errs.all()[0], boom)
}

func TestClosedSubscriptionStopsDelivering(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	hub := newHub(t, store)

	rec := &recorder[[]models.Goal]{}
	sub := live.Subscribe(hub, listGoals, rec.add)
	syncHub(t, hub)
	require.Equal(t, 1, hub.Len())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Len())

	_, err := store.CreateGoal(ctx, models.GoalInput{Name: "Read"})
	require.NoError(t, err)
	syncHub(t, hub)

	assert.Len(t, rec.all(), 1)
}

func TestHubClose(t *testing.T) {
	store := newStore(t)
	hub := live.NewHub(store)

	rec := &recorder[[]models.Goal]{}
	live.Subscribe(hub, listGoals, rec.add)
	syncHub(t, hub)

	hub.Close()
	hub.Close()

	assert.ErrorIs(t, hub.Sync(context.Background()), live.ErrClosed)
	assert.Equal(t, 0, hub.Len())

	_, err := store.CreateGoal(context.Background(), models.GoalInput{Name: "after close"})
	require.NoError(t, err)
	assert.Len(t, rec.all(), 1)
}
