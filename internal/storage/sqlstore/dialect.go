package sqlstore

import (
	"database/sql"
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported backends.
// Queries are written with "?" placeholders and rebound per dialect.
type Dialect struct {
	Name string
	// Numbered selects $1, $2, ... placeholders.
	Numbered bool
	// Snapshot is the isolation level that keeps every statement of a
	// read-only transaction on the same snapshot. SQLite transactions
	// already are; PostgreSQL defaults to per-statement snapshots.
	Snapshot sql.IsolationLevel
}

var (
	SQLite   = Dialect{Name: "sqlite"}
	Postgres = Dialect{Name: "postgres", Numbered: true, Snapshot: sql.LevelRepeatableRead}
)

// SnapshotOptions returns the options View begins its transaction with.
func (d Dialect) SnapshotOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: d.Snapshot, ReadOnly: true}
}

// Rebind rewrites "?" placeholders into the dialect's bind syntax.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Placeholder returns the bind syntax for the first parameter, as used by the
// migration runner.
func (d Dialect) Placeholder() string {
	if d.Numbered {
		return "$1"
	}
	return "?"
}
