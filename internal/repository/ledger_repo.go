package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"safewarner"
)

// SQLite TIMESTAMP format.
const sqliteTimeLayout = "2006-01-02 15:04:05"

type LedgerSQLite struct {
	db *sql.DB
}

func NewLedgerSQLite(db *sql.DB) *LedgerSQLite { return &LedgerSQLite{db: db} }

// AppendAlert inserts a new alert row. If EventID or OccurredAt are empty,
// they're set.
func (r *LedgerSQLite) AppendAlert(ctx context.Context, a safewarner.AlertRecord) error {
	if a.EventID == "" {
		a.EventID = uuid.NewString()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	} else {
		a.OccurredAt = a.OccurredAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_alerts (id, occurred_at, kind, title, message)
		VALUES (?, ?, ?, ?, ?)
	`,
		a.EventID,
		a.OccurredAt.Format(sqliteTimeLayout),
		normalizeKind(string(a.Kind)),
		a.Title,
		a.Message,
	)
	return err
}

// AppendExercise inserts a completed-exercise row.
func (r *LedgerSQLite) AppendExercise(ctx context.Context, e safewarner.ExerciseRecord) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_exercises (id, occurred_at, duration_s, success)
		VALUES (?, ?, ?, ?)
	`,
		e.EventID,
		e.OccurredAt.Format(sqliteTimeLayout),
		e.DurationSeconds,
		e.Success,
	)
	return err
}

// ListAlerts returns alerts filtered by [from, to] (inclusive) and/or kind,
// ordered ASC.
func (r *LedgerSQLite) ListAlerts(ctx context.Context, from, to time.Time, kind string) ([]safewarner.AlertRecord, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if kind = normalizeKind(kind); kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, kind)
	}

	q := `SELECT id, occurred_at, kind, title, message FROM session_alerts`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]safewarner.AlertRecord, 0, 64)
	for rows.Next() {
		var a safewarner.AlertRecord
		var kindStr string
		if err := rows.Scan(&a.EventID, &a.OccurredAt, &kindStr, &a.Title, &a.Message); err != nil {
			return nil, err
		}
		a.Kind = safewarner.AlertKind(kindStr)
		a.OccurredAt = a.OccurredAt.UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListExercises returns all exercise rows ordered ASC.
func (r *LedgerSQLite) ListExercises(ctx context.Context) ([]safewarner.ExerciseRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, occurred_at, duration_s, success
		FROM session_exercises ORDER BY occurred_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]safewarner.ExerciseRecord, 0, 16)
	for rows.Next() {
		var e safewarner.ExerciseRecord
		if err := rows.Scan(&e.EventID, &e.OccurredAt, &e.DurationSeconds, &e.Success); err != nil {
			return nil, err
		}
		e.OccurredAt = e.OccurredAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeKind(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
