package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/storage/sqlstore"
	"github.com/julianstephens/streaks/internal/testutil"
)

func setupTestStore(t *testing.T) (*Store, *testutil.StubClock) {
	t.Helper()

	clock := testutil.FixedClock()
	store := NewStore(
		filepath.Join(t.TempDir(), "test.db"),
		sqlstore.WithClock(clock),
		sqlstore.WithIDGenerator(testutil.NewStubIDGenerator()),
	)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, clock
}

func mustCreateGoal(t *testing.T, store *Store, in models.GoalInput) models.Goal {
	t.Helper()
	g, err := store.CreateGoal(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	return g
}

func TestCreateAndGetGoal(t *testing.T) {
	store, clock := setupTestStore(t)
	ctx := context.Background()

	created := mustCreateGoal(t, store, models.GoalInput{
		Name:      "  Read  ",
		Color:     "#ff0000",
		Icon:      "book",
		Frequency: models.FrequencyMulti,
		Benchmark: decimal.NewNullDecimal(decimal.RequireFromString("30.5")),
	})

	if created.ID == "" {
		t.Fatal("expected an assigned ID")
	}
	if created.Name != "Read" {
		t.Errorf("Name = %q, want trimmed %q", created.Name, "Read")
	}
	if !created.CreatedAt.Equal(clock.Now()) {
		t.Errorf("CreatedAt = %v, want %v", created.CreatedAt, clock.Now())
	}

	got, err := store.GetGoal(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if got.Name != "Read" || got.Color != "#ff0000" || got.Icon != "book" {
		t.Errorf("unexpected goal: %+v", got)
	}
	if got.Frequency != models.FrequencyMulti {
		t.Errorf("Frequency = %v, want multi", got.Frequency)
	}
	if !got.Benchmark.Valid || !got.Benchmark.Decimal.Equal(decimal.RequireFromString("30.5")) {
		t.Errorf("Benchmark = %v, want 30.5", got.Benchmark)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestCreateGoalValidation(t *testing.T) {
	store, _ := setupTestStore(t)

	tests := []struct {
		name  string
		input models.GoalInput
	}{
		{name: "empty name", input: models.GoalInput{Name: ""}},
		{name: "whitespace name", input: models.GoalInput{Name: "  \t"}},
		{name: "bad frequency", input: models.GoalInput{Name: "x", Frequency: models.Frequency(9)}},
		{name: "negative benchmark", input: models.GoalInput{Name: "x", Benchmark: decimal.NewNullDecimal(decimal.NewFromInt(-3))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreateGoal(context.Background(), tt.input)
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	goals, err := store.ListGoals(context.Background())
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}
	if len(goals) != 0 {
		t.Errorf("expected no goals persisted, got %d", len(goals))
	}
}

func TestGetGoalNotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.GetGoal(context.Background(), "missing")
	var nf *apperrors.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.ID != "missing" {
		t.Errorf("NotFoundError.ID = %q, want %q", nf.ID, "missing")
	}
}

func TestListGoalsOrdering(t *testing.T) {
	store, clock := setupTestStore(t)

	first := mustCreateGoal(t, store, models.GoalInput{Name: "first"})
	clock.Advance(time.Hour)
	second := mustCreateGoal(t, store, models.GoalInput{Name: "second"})
	clock.Advance(time.Hour)
	third := mustCreateGoal(t, store, models.GoalInput{Name: "third"})

	goals, err := store.ListGoals(context.Background())
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}
	if len(goals) != 3 {
		t.Fatalf("expected 3 goals, got %d", len(goals))
	}
	want := []string{first.ID, second.ID, third.ID}
	for i, g := range goals {
		if g.ID != want[i] {
			t.Errorf("goals[%d] = %s, want %s", i, g.ID, want[i])
		}
	}
}

func TestUpdateGoal(t *testing.T) {
	store, clock := setupTestStore(t)
	ctx := context.Background()

	g := mustCreateGoal(t, store, models.GoalInput{Name: "Run", Color: "red"})
	clock.Advance(48 * time.Hour)

	newName := " Jog "
	multi := models.FrequencyMulti
	updated, err := store.UpdateGoal(ctx, g.ID, models.GoalChanges{Name: &newName, Frequency: &multi})
	if err != nil {
		t.Fatalf("UpdateGoal failed: %v", err)
	}
	if updated.Name != "Jog" || updated.Frequency != models.FrequencyMulti {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if updated.Color != "red" {
		t.Errorf("Color changed to %q, want untouched", updated.Color)
	}

	got, err := store.GetGoal(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if got.ID != g.ID || !got.CreatedAt.Equal(g.CreatedAt) {
		t.Errorf("identity changed: got %s/%v want %s/%v", got.ID, got.CreatedAt, g.ID, g.CreatedAt)
	}
	if got.Name != "Jog" {
		t.Errorf("Name = %q, want Jog", got.Name)
	}

	cleared := decimal.NullDecimal{}
	if _, err := store.UpdateGoal(ctx, g.ID, models.GoalChanges{Benchmark: &cleared}); err != nil {
		t.Fatalf("clearing benchmark failed: %v", err)
	}

	empty := ""
	if _, err := store.UpdateGoal(ctx, g.ID, models.GoalChanges{Name: &empty}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected validation error for empty name, got %v", err)
	}

	if _, err := store.UpdateGoal(ctx, "missing", models.GoalChanges{Name: &newName}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestCreateEventAndList(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	g := mustCreateGoal(t, store, models.GoalInput{Name: "Read", Frequency: models.FrequencyMulti})
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	offsets := []time.Duration{48 * time.Hour, 0, 24 * time.Hour, 72 * time.Hour}
	for _, off := range offsets {
		if _, err := store.CreateEvent(ctx, g.ID, 1, base.Add(off)); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	}

	events, err := store.ListEvents(ctx, g.ID, storage.EventFilter{})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("events not ascending at %d: %v before %v", i, events[i].Timestamp, events[i-1].Timestamp)
		}
	}

	ranged, err := store.ListEvents(ctx, g.ID, storage.EventFilter{
		From: base.Add(24 * time.Hour),
		To:   base.Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("ListEvents with range failed: %v", err)
	}
	if len(ranged) != 2 {
		t.Errorf("expected 2 events in [From, To), got %d", len(ranged))
	}

	latest, ok, err := store.LatestEvent(ctx, g.ID)
	if err != nil {
		t.Fatalf("LatestEvent failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a latest event")
	}
	if !latest.Timestamp.Equal(base.Add(72 * time.Hour)) {
		t.Errorf("latest = %v, want %v", latest.Timestamp, base.Add(72*time.Hour))
	}

	limited, err := store.ListEvents(ctx, g.ID, storage.EventFilter{Descending: true, Limit: 2})
	if err != nil {
		t.Fatalf("ListEvents with limit failed: %v", err)
	}
	if len(limited) != 2 || !limited[0].Timestamp.After(limited[1].Timestamp) {
		t.Errorf("unexpected descending page: %+v", limited)
	}
}

func TestLatestEventNone(t *testing.T) {
	store, _ := setupTestStore(t)
	g := mustCreateGoal(t, store, models.GoalInput{Name: "Read"})

	_, ok, err := store.LatestEvent(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("LatestEvent failed: %v", err)
	}
	if ok {
		t.Error("expected no latest event")
	}
}

func TestCreateEventMissingGoal(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.CreateEvent(context.Background(), "missing", 1, time.Now())
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteGoalCascades(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	g := mustCreateGoal(t, store, models.GoalInput{Name: "Read", Frequency: models.FrequencyMulti})
	other := mustCreateGoal(t, store, models.GoalInput{Name: "Run", Frequency: models.FrequencyMulti})
	for i := 0; i < 5; i++ {
		if _, err := store.CreateEvent(ctx, g.ID, 1, time.Now()); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	}
	if _, err := store.CreateEvent(ctx, other.ID, 1, time.Now()); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	if err := store.DeleteGoal(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGoal failed: %v", err)
	}

	if _, err := store.GetGoal(ctx, g.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected goal to be gone, got %v", err)
	}
	events, err := store.ListEvents(ctx, g.ID, storage.EventFilter{})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 events after delete, got %d", len(events))
	}

	otherEvents, err := store.ListEvents(ctx, other.ID, storage.EventFilter{})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(otherEvents) != 1 {
		t.Errorf("unrelated goal lost events: got %d", len(otherEvents))
	}

	// Second delete is a no-op.
	if err := store.DeleteGoal(ctx, g.ID); err != nil {
		t.Errorf("repeated DeleteGoal returned %v", err)
	}
}

func TestDeleteGoalNeverPartiallyVisible(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	const n = 50
	g := mustCreateGoal(t, store, models.GoalInput{Name: "Read", Frequency: models.FrequencyMulti})
	err := store.Update(ctx, func(tx storage.Tx) error {
		for i := 0; i < n; i++ {
			if _, err := tx.CreateEvent(ctx, g.ID, 1, time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding events failed: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	var violations []string
	var mu sync.Mutex

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			_ = store.View(ctx, func(r storage.Reader) error {
				_, goalErr := r.GetGoal(ctx, g.ID)
				events, err := r.ListEvents(ctx, g.ID, storage.EventFilter{})
				if err != nil {
					return err
				}
				goalExists := goalErr == nil
				if (goalExists && len(events) != n) || (!goalExists && len(events) != 0) {
					mu.Lock()
					violations = append(violations, "partial cascade observed")
					mu.Unlock()
				}
				return nil
			})
		}
	}()

	time.Sleep(10 * time.Millisecond)
	if err := store.DeleteGoal(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGoal failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	close(stop)
	wg.Wait()

	if len(violations) > 0 {
		t.Errorf("reader observed %d inconsistent states", len(violations))
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	var notified int
	cancel := store.Watch(func([]storage.Change) { notified++ })
	defer cancel()

	boom := errors.New("boom")
	err := store.Update(ctx, func(tx storage.Tx) error {
		if _, err := tx.CreateGoal(ctx, models.GoalInput{Name: "temp"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to pass through, got %v", err)
	}

	goals, err := store.ListGoals(ctx)
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}
	if len(goals) != 0 {
		t.Errorf("expected rollback, found %d goals", len(goals))
	}
	if notified != 0 {
		t.Errorf("expected no notifications for a rolled back transaction, got %d", notified)
	}
}

func TestWatchReceivesCommittedChanges(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	var batches [][]storage.Change
	cancel := store.Watch(func(changes []storage.Change) {
		batches = append(batches, changes)
	})

	g := mustCreateGoal(t, store, models.GoalInput{Name: "Read", Frequency: models.FrequencyMulti})

	err := store.Update(ctx, func(tx storage.Tx) error {
		for i := 0; i < 3; i++ {
			if _, err := tx.CreateEvent(ctx, g.ID, -1, time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := store.DeleteGoal(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGoal failed: %v", err)
	}

	cancel()
	mustCreateGoal(t, store, models.GoalInput{Name: "after cancel"})

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d: %+v", len(batches), batches)
	}

	wantCreate := storage.Change{Collection: storage.CollectionGoals, Key: g.ID}
	if len(batches[0]) != 1 || batches[0][0] != wantCreate {
		t.Errorf("create batch = %+v, want [%+v]", batches[0], wantCreate)
	}

	wantEvents := storage.Change{Collection: storage.CollectionEvents, Key: g.ID}
	if len(batches[1]) != 1 || batches[1][0] != wantEvents {
		t.Errorf("event batch = %+v, want one deduplicated %+v", batches[1], wantEvents)
	}

	seen := map[storage.Change]bool{}
	for _, c := range batches[2] {
		seen[c] = true
	}
	if !seen[wantCreate] || !seen[wantEvents] {
		t.Errorf("delete batch = %+v, want goals and events changes", batches[2])
	}
}

func TestLoadUninitialized(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(context.Background()); err == nil {
		t.Fatal("expected error loading an uninitialized store")
	}
}

func TestLoadAfterInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	first := NewStore(path)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	g, err := first.CreateGoal(ctx, models.GoalInput{Name: "Read"})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := NewStore(path)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer second.Close()

	got, err := second.GetGoal(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGoal after reload failed: %v", err)
	}
	if got.Name != "Read" {
		t.Errorf("Name = %q, want Read", got.Name)
	}
	if second.GetConfigPath() != path {
		t.Errorf("GetConfigPath() = %q, want %q", second.GetConfigPath(), path)
	}
}
