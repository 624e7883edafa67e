package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"safewarner"
	"safewarner/internal/logger"
	"safewarner/internal/repository"
)

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// LogFilter narrows the alert history query.
type LogFilter struct {
	From time.Time
	To   time.Time
	Kind string
}

// LedgerService owns the append-only session ledger. The in-memory slices
// are authoritative for the process lifetime; every append is also written
// through to sqlite best-effort, so a write failure degrades durability but
// never the session (the tick loop is the only writer).
type LedgerService struct {
	mu        sync.Mutex
	repo      repository.LedgerRepo
	log       *logger.Logger
	startTime time.Time
	alerts    []safewarner.AlertRecord
	exercises []safewarner.ExerciseRecord
}

func NewLedgerService(repo repository.LedgerRepo, log *logger.Logger, startTime time.Time) *LedgerService {
	return &LedgerService{
		repo:      repo,
		log:       log,
		startTime: startTime.UTC(),
	}
}

// StartTime returns the session start instant.
func (s *LedgerService) StartTime() time.Time { return s.startTime }

// AppendAlert records a delivered notification. IDs and timestamps are
// filled in when empty.
func (s *LedgerService) AppendAlert(ctx context.Context, a safewarner.AlertRecord) {
	if a.EventID == "" {
		a.EventID = uuid.NewString()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	} else {
		a.OccurredAt = a.OccurredAt.UTC()
	}

	s.mu.Lock()
	s.alerts = append(s.alerts, a)
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.AppendAlert(ctx, a); err != nil && s.log != nil {
			s.log.Warnw("ledger alert write failed", "err", err, "kind", a.Kind)
		}
	}
}

// AppendExercise records a finished (or cancelled) exercise.
func (s *LedgerService) AppendExercise(ctx context.Context, e safewarner.ExerciseRecord) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	s.mu.Lock()
	s.exercises = append(s.exercises, e)
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.AppendExercise(ctx, e); err != nil && s.log != nil {
			s.log.Warnw("ledger exercise write failed", "err", err)
		}
	}
}

// Records returns copies of both in-memory sequences, in emission order.
func (s *LedgerService) Records() ([]safewarner.AlertRecord, []safewarner.ExerciseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	alerts := make([]safewarner.AlertRecord, len(s.alerts))
	copy(alerts, s.alerts)
	exercises := make([]safewarner.ExerciseRecord, len(s.exercises))
	copy(exercises, s.exercises)
	return alerts, exercises
}

// ListAlerts queries the durable alert history with an optional time range
// and kind filter.
func (s *LedgerService) ListAlerts(ctx context.Context, f LogFilter) ([]safewarner.AlertRecord, error) {
	from, to, kind, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	if s.repo == nil {
		alerts, _ := s.Records()
		return filterAlerts(alerts, from, to, kind), nil
	}
	return s.repo.ListAlerts(ctx, from, to, kind)
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	kind := strings.TrimSpace(strings.ToLower(f.Kind))
	return from, to, kind, nil
}

func filterAlerts(alerts []safewarner.AlertRecord, from, to time.Time, kind string) []safewarner.AlertRecord {
	out := make([]safewarner.AlertRecord, 0, len(alerts))
	for _, a := range alerts {
		if !from.IsZero() && a.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && a.OccurredAt.After(to) {
			continue
		}
		if kind != "" && string(a.Kind) != kind {
			continue
		}
		out = append(out, a)
	}
	return out
}
