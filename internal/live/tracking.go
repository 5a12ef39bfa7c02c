package live

import (
	"context"

	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
)

// deps is the set of records a query read during its last run.
type deps struct {
	allGoals bool
	keys     map[storage.Change]struct{}
}

func newDeps() *deps {
	return &deps{keys: make(map[storage.Change]struct{})}
}

func (d *deps) add(c storage.Change) {
	d.keys[c] = struct{}{}
}

func (d *deps) merge(other *deps) {
	if other == nil {
		return
	}
	d.allGoals = d.allGoals || other.allGoals
	for k := range other.keys {
		d.keys[k] = struct{}{}
	}
}

// affectedBy reports whether any change in the batch touches a dependency.
func (d *deps) affectedBy(changes []storage.Change) bool {
	if d == nil {
		return false
	}
	for _, c := range changes {
		if c.Collection == storage.CollectionGoals && d.allGoals {
			return true
		}
		if _, ok := d.keys[c]; ok {
			return true
		}
	}
	return false
}

// trackingReader records what a query reads.
type trackingReader struct {
	r    storage.Reader
	deps *deps
}

func newTrackingReader(r storage.Reader) *trackingReader {
	return &trackingReader{r: r, deps: newDeps()}
}

func (t *trackingReader) GetGoal(ctx context.Context, id string) (models.Goal, error) {
	t.deps.add(storage.Change{Collection: storage.CollectionGoals, Key: id})
	return t.r.GetGoal(ctx, id)
}

func (t *trackingReader) ListGoals(ctx context.Context) ([]models.Goal, error) {
	t.deps.allGoals = true
	return t.r.ListGoals(ctx)
}

func (t *trackingReader) ListEvents(ctx context.Context, goalID string, filter storage.EventFilter) ([]models.Event, error) {
	t.deps.add(storage.Change{Collection: storage.CollectionEvents, Key: goalID})
	return t.r.ListEvents(ctx, goalID, filter)
}

func (t *trackingReader) LatestEvent(ctx context.Context, goalID string) (models.Event, bool, error) {
	t.deps.add(storage.Change{Collection: storage.CollectionEvents, Key: goalID})
	return t.r.LatestEvent(ctx, goalID)
}
