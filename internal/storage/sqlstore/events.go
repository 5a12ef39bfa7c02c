package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/utils"
)

func scanEvent(row rowScanner) (models.Event, error) {
	var ev models.Event
	var ts string
	if err := row.Scan(&ev.ID, &ev.GoalID, &ev.Delta, &ts); err != nil {
		return models.Event{}, err
	}
	parsed, err := utils.ParseTimestamp(ts)
	if err != nil {
		return models.Event{}, wrap("parse timestamp", err)
	}
	ev.Timestamp = parsed
	return ev, nil
}

func (t *txn) ListEvents(ctx context.Context, goalID string, filter storage.EventFilter) ([]models.Event, error) {
	var b strings.Builder
	args := []any{goalID}

	b.WriteString(`SELECT id, goal_id, delta, timestamp FROM events WHERE goal_id = ?`)
	if !filter.From.IsZero() {
		b.WriteString(` AND timestamp >= ?`)
		args = append(args, utils.FormatTimestamp(filter.From))
	}
	if !filter.To.IsZero() {
		b.WriteString(` AND timestamp < ?`)
		args = append(args, utils.FormatTimestamp(filter.To))
	}
	if filter.Descending {
		b.WriteString(` ORDER BY timestamp DESC, id DESC`)
	} else {
		b.WriteString(` ORDER BY timestamp ASC, id ASC`)
	}
	if filter.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := t.query(ctx, b.String(), args...)
	if err != nil {
		return nil, wrap("list events", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, wrap("scan event", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list events", err)
	}
	return events, nil
}

func (t *txn) LatestEvent(ctx context.Context, goalID string) (models.Event, bool, error) {
	events, err := t.ListEvents(ctx, goalID, storage.EventFilter{Descending: true, Limit: 1})
	if err != nil {
		return models.Event{}, false, err
	}
	if len(events) == 0 {
		return models.Event{}, false, nil
	}
	return events[0], true, nil
}

// CreateEvent appends an event to an existing goal. A missing goal is a
// NotFoundError.
func (t *txn) CreateEvent(ctx context.Context, goalID string, delta int, ts time.Time) (models.Event, error) {
	if _, err := t.GetGoal(ctx, goalID); err != nil {
		return models.Event{}, err
	}

	stamp := utils.FormatTimestamp(ts)
	ev := models.Event{
		ID:     t.s.ids.New(),
		GoalID: goalID,
		Delta:  delta,
	}
	ev.Timestamp, _ = utils.ParseTimestamp(stamp)

	_, err := t.exec(ctx, `INSERT INTO events (id, goal_id, delta, timestamp) VALUES (?, ?, ?, ?)`,
		ev.ID, ev.GoalID, ev.Delta, stamp,
	)
	if err != nil {
		return models.Event{}, wrap("insert event", err)
	}

	t.record(storage.Change{Collection: storage.CollectionEvents, Key: goalID})
	return ev, nil
}
