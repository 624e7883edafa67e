package repository

import (
	"context"
	"database/sql"
	"time"

	"safewarner"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*safewarner.User, error)
}

// LedgerRepo persists the append-only session ledger. Rows are never
// updated or deleted during a session.
type LedgerRepo interface {
	AppendAlert(ctx context.Context, a safewarner.AlertRecord) error
	AppendExercise(ctx context.Context, e safewarner.ExerciseRecord) error
	ListAlerts(ctx context.Context, from, to time.Time, kind string) ([]safewarner.AlertRecord, error)
	ListExercises(ctx context.Context) ([]safewarner.ExerciseRecord, error)
}

// PrefsStore loads and saves the small persisted preferences file.
type PrefsStore interface {
	Load() (safewarner.Preferences, error)
	Save(p safewarner.Preferences) error
}

type Repository struct {
	Ledger LedgerRepo
	Prefs  PrefsStore
	Auth   Authorization
}

func NewRepository(db *sql.DB, prefsPath string) *Repository {
	return &Repository{
		Ledger: NewLedgerSQLite(db),
		Prefs:  NewPrefsFile(prefsPath),
		Auth:   NewUserRepository(db),
	}
}
