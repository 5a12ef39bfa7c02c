package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/utils"
)

const goalColumns = `id, name, color, icon, frequency, benchmark, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (models.Goal, error) {
	var g models.Goal
	var frequency, createdAt string
	var benchmark decimal.NullDecimal

	if err := row.Scan(&g.ID, &g.Name, &g.Color, &g.Icon, &frequency, &benchmark, &createdAt); err != nil {
		return models.Goal{}, err
	}

	freq, err := models.ParseFrequency(frequency)
	if err != nil {
		return models.Goal{}, err
	}
	g.Frequency = freq
	g.Benchmark = benchmark

	ts, err := utils.ParseTimestamp(createdAt)
	if err != nil {
		return models.Goal{}, wrap("parse created_at", err)
	}
	g.CreatedAt = ts

	return g, nil
}

func (t *txn) GetGoal(ctx context.Context, id string) (models.Goal, error) {
	row := t.queryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Goal{}, apperrors.NewNotFound("goal", id)
		}
		return models.Goal{}, wrap("get goal", err)
	}
	return g, nil
}

func (t *txn) ListGoals(ctx context.Context) ([]models.Goal, error) {
	rows, err := t.query(ctx, `SELECT `+goalColumns+` FROM goals ORDER BY created_at, id`)
	if err != nil {
		return nil, wrap("list goals", err)
	}
	defer rows.Close()

	goals := []models.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, wrap("scan goal", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list goals", err)
	}
	return goals, nil
}

func (t *txn) CreateGoal(ctx context.Context, in models.GoalInput) (models.Goal, error) {
	g := models.NewGoal(t.s.ids.New(), in, t.s.clock.Now())
	if err := g.Validate(); err != nil {
		return models.Goal{}, err
	}

	_, err := t.exec(ctx, `
		INSERT INTO goals (id, name, color, icon, frequency, benchmark, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Color, g.Icon, g.Frequency.String(), g.Benchmark, utils.FormatTimestamp(g.CreatedAt),
	)
	if err != nil {
		return models.Goal{}, wrap("insert goal", err)
	}

	// Round-trip through the persisted layout so callers see what readers see.
	g.CreatedAt, _ = utils.ParseTimestamp(utils.FormatTimestamp(g.CreatedAt))

	t.record(storage.Change{Collection: storage.CollectionGoals, Key: g.ID})
	return g, nil
}

func (t *txn) UpdateGoal(ctx context.Context, id string, changes models.GoalChanges) (models.Goal, error) {
	current, err := t.GetGoal(ctx, id)
	if err != nil {
		return models.Goal{}, err
	}
	if changes.IsEmpty() {
		return current, nil
	}

	updated := changes.Apply(current)
	if err := updated.Validate(); err != nil {
		return models.Goal{}, err
	}

	_, err = t.exec(ctx, `
		UPDATE goals SET name = ?, color = ?, icon = ?, frequency = ?, benchmark = ?
		WHERE id = ?`,
		updated.Name, updated.Color, updated.Icon, updated.Frequency.String(), updated.Benchmark, id,
	)
	if err != nil {
		return models.Goal{}, wrap("update goal", err)
	}

	t.record(storage.Change{Collection: storage.CollectionGoals, Key: id})
	return updated, nil
}

func (t *txn) DeleteGoal(ctx context.Context, id string) error {
	evRes, err := t.exec(ctx, `DELETE FROM events WHERE goal_id = ?`, id)
	if err != nil {
		return wrap("delete events", err)
	}
	goalRes, err := t.exec(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return wrap("delete goal", err)
	}

	if n, _ := evRes.RowsAffected(); n > 0 {
		t.record(storage.Change{Collection: storage.CollectionEvents, Key: id})
	}
	if n, _ := goalRes.RowsAffected(); n > 0 {
		t.record(storage.Change{Collection: storage.CollectionGoals, Key: id})
		t.record(storage.Change{Collection: storage.CollectionEvents, Key: id})
	}
	return nil
}
