package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"safewarner"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestAppendAlert_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewLedgerSQLite(db)

	// Generated id and timestamp are unknown here; match the statement and the
	// normalized kind.
	mock.ExpectExec(regexp.QuoteMeta(`
			INSERT INTO session_alerts (id, occurred_at, kind, title, message)
			VALUES (?, ?, ?, ?, ?)
		`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(),
			"proximity", "Move Back Slightly", "too close",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendAlert(ctx(t), safewarner.AlertRecord{
		// EventID empty -> repo generates
		// OccurredAt zero -> repo sets UTC now
		Kind:    "  Proximity ",
		Title:   "Move Back Slightly",
		Message: "too close",
	})
	if err != nil {
		t.Fatalf("AppendAlert: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppendAlert_DBError(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewLedgerSQLite(db)

	mock.ExpectExec("INSERT INTO session_alerts").
		WillReturnError(errors.New("disk full"))

	err := repo.AppendAlert(ctx(t), safewarner.AlertRecord{Kind: safewarner.AlertPosture})
	if err == nil {
		t.Fatal("expected db error")
	}
}

func TestAppendExercise_Success(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewLedgerSQLite(db)

	at := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`
			INSERT INTO session_exercises (id, occurred_at, duration_s, success)
			VALUES (?, ?, ?, ?)
		`)).
		WithArgs("ex-1", at.Format(sqliteTimeLayout), 31.5, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendExercise(ctx(t), safewarner.ExerciseRecord{
		EventID:         "ex-1",
		OccurredAt:      at,
		DurationSeconds: 31.5,
		Success:         true,
	})
	if err != nil {
		t.Fatalf("AppendExercise: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestListAlerts_NoFilters(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewLedgerSQLite(db)

	at := time.Date(2026, 8, 1, 9, 15, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "kind", "title", "message"}).
		AddRow("a-1", at, "proximity", "t1", "m1").
		AddRow("a-2", at.Add(time.Minute), "posture", "t2", "m2")

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, occurred_at, kind, title, message FROM session_alerts ORDER BY occurred_at ASC`,
	)).WillReturnRows(rows)

	got, err := repo.ListAlerts(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d alerts, want 2", len(got))
	}
	if got[0].Kind != safewarner.AlertProximity || got[1].Kind != safewarner.AlertPosture {
		t.Fatalf("kinds: %q, %q", got[0].Kind, got[1].Kind)
	}
}

func TestListAlerts_RangeAndKindFilters(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewLedgerSQLite(db)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "kind", "title", "message"}).
		AddRow("a-1", from.Add(time.Hour), "blink_rate", "t", "m")

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, occurred_at, kind, title, message FROM session_alerts`+
			` WHERE occurred_at >= ? AND occurred_at <= ? AND kind = ? ORDER BY occurred_at ASC`,
	)).
		WithArgs(from, to, "blink_rate").
		WillReturnRows(rows)

	got, err := repo.ListAlerts(ctx(t), from, to, " Blink_Rate ")
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(got) != 1 || got[0].Kind != safewarner.AlertBlinkRate {
		t.Fatalf("got %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestListExercises_Success(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewLedgerSQLite(db)

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "duration_s", "success"}).
		AddRow("e-1", at, 30.0, true).
		AddRow("e-2", at.Add(time.Hour), 12.5, false)

	mock.ExpectQuery("SELECT id, occurred_at, duration_s, success").
		WillReturnRows(rows)

	got, err := repo.ListExercises(ctx(t))
	if err != nil {
		t.Fatalf("ListExercises: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d exercises, want 2", len(got))
	}
	if got[0].Success != true || got[1].Success != false {
		t.Fatalf("success flags: %v, %v", got[0].Success, got[1].Success)
	}
}
