package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"safewarner"
	"safewarner/internal/logger"
	"safewarner/internal/metrics"
	"safewarner/internal/notify"
)

var (
	// ErrExerciseActive is returned by Start while an exercise is running.
	ErrExerciseActive = errors.New("eye exercise already active")
	// ErrNoActiveExercise is returned by Cancel when nothing is running.
	ErrNoActiveExercise = errors.New("no active eye exercise")
)

// ExerciseService runs the two-phase gaze-hold exercise: hold RIGHT for the
// phase duration, then LEFT. The countdown only runs while the gaze matches
// the current phase; a glance away pauses it and the remaining time resumes
// unchanged. Guidance prompts bypass the notification cooldown, but the
// pause re-prompt fires only on the running→paused edge, never while
// already paused.
type ExerciseService struct {
	mu            sync.Mutex
	phaseDuration time.Duration
	gate          *NotificationGate
	speaker       notify.Speaker
	ledger        *LedgerService
	log           *logger.Logger
	now           func() time.Time

	// onComplete lets the mode controller defer its next auto poll.
	onComplete func(at time.Time)

	active           bool
	done             bool
	phase            safewarner.GazeDirection
	countdownRunning bool
	remaining        float64
	pausedRemaining  float64
	phaseStart       time.Time
	startedAt        time.Time
}

func NewExerciseService(cfg Config, gate *NotificationGate, speaker notify.Speaker, ledger *LedgerService, log *logger.Logger) *ExerciseService {
	return &ExerciseService{
		phaseDuration: cfg.ExercisePhase,
		gate:          gate,
		speaker:       speaker,
		ledger:        ledger,
		log:           log,
		now:           time.Now,
	}
}

// SetOnComplete registers the completion hook. Called during wiring, before
// the tick loop starts.
func (s *ExerciseService) SetOnComplete(fn func(at time.Time)) { s.onComplete = fn }

// Active reports whether an exercise is currently running.
func (s *ExerciseService) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start begins a new exercise in the RIGHT phase. Starting while one is
// already active returns ErrExerciseActive and leaves state unchanged.
func (s *ExerciseService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return ErrExerciseActive
	}
	now := s.now()
	secs := s.phaseSeconds()
	s.active = true
	s.done = false
	s.phase = safewarner.GazeRight
	s.countdownRunning = false
	s.remaining = secs
	s.pausedRemaining = secs
	s.phaseStart = now
	s.startedAt = now
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infow("eye exercise started", "phase", safewarner.GazeRight)
	}
	s.speaker.Speak(fmt.Sprintf("Eye exercise starting. Please look to the right for %.0f seconds.", secs))
	s.gate.Notify(ctx, safewarner.AlertEyeExercise,
		"Eye Exercise Time!",
		fmt.Sprintf("Please look to the RIGHT side for %.0f seconds", secs),
	)
	return nil
}

// Tick advances the state machine with the current gaze bucket. Called once
// per frame while an exercise is active; a no-op otherwise.
func (s *ExerciseService) Tick(ctx context.Context, gaze safewarner.GazeDirection) {
	s.mu.Lock()
	if !s.active || s.done {
		s.mu.Unlock()
		return
	}
	now := s.now()

	if gaze == s.phase {
		if !s.countdownRunning {
			// Resume (or first start) of the countdown for this phase.
			s.countdownRunning = true
			s.phaseStart = now
			s.remaining = s.pausedRemaining
		}
		elapsed := now.Sub(s.phaseStart).Seconds()
		s.remaining = s.pausedRemaining - elapsed
		if s.remaining < 0 {
			s.remaining = 0
		}
		if s.remaining > 0 {
			s.mu.Unlock()
			return
		}
		if s.phase == safewarner.GazeRight {
			s.advanceToLeftLocked(ctx)
			return
		}
		s.completeLocked(ctx, now)
		return
	}

	// Gaze lost: pause on the running→paused edge only.
	if s.countdownRunning {
		s.countdownRunning = false
		s.pausedRemaining = s.remaining
		phase := s.phase
		s.mu.Unlock()

		s.speaker.Speak(fmt.Sprintf("Please keep looking %s to continue.", phase))
		s.gate.Notify(ctx, safewarner.AlertEyeExercise,
			fmt.Sprintf("Keep Looking %s", directionWord(phase)),
			fmt.Sprintf("Please maintain your gaze to the %s side to continue the exercise", directionWord(phase)),
		)
		return
	}
	// Already waiting/paused: no state change, no extra prompt.
	s.mu.Unlock()
}

// advanceToLeftLocked switches RIGHT→LEFT. Caller holds the lock; it is
// released here before notifying.
func (s *ExerciseService) advanceToLeftLocked(ctx context.Context) {
	secs := s.phaseSeconds()
	s.phase = safewarner.GazeLeft
	s.countdownRunning = false
	s.remaining = secs
	s.pausedRemaining = secs
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infow("eye exercise phase complete", "next", safewarner.GazeLeft)
	}
	s.speaker.Speak(fmt.Sprintf("Good. Now look to the left for %.0f seconds.", secs))
	s.gate.Notify(ctx, safewarner.AlertEyeExercise,
		"Good! Now look LEFT",
		fmt.Sprintf("Please look to the LEFT side for %.0f seconds", secs),
	)
}

// completeLocked finishes the exercise. Caller holds the lock; it is
// released here before notifying.
func (s *ExerciseService) completeLocked(ctx context.Context, now time.Time) {
	s.active = false
	s.done = true
	s.countdownRunning = false
	duration := now.Sub(s.startedAt).Seconds()
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infow("eye exercise completed", "duration_s", duration)
	}
	metrics.ExercisesCompletedTotal.Inc()
	s.speaker.Speak("Exercise complete. Great job.")
	s.gate.Notify(ctx, safewarner.AlertEyeExercise,
		"Exercise Complete!",
		"Great job! Your eye exercise is complete.",
	)
	s.ledger.AppendExercise(ctx, safewarner.ExerciseRecord{
		OccurredAt:      now,
		DurationSeconds: duration,
		Success:         true,
	})
	if s.onComplete != nil {
		s.onComplete(now)
	}
}

// Cancel aborts the running exercise and records it as unsuccessful.
func (s *ExerciseService) Cancel(ctx context.Context) error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return ErrNoActiveExercise
	}
	now := s.now()
	duration := now.Sub(s.startedAt).Seconds()
	s.active = false
	s.done = false
	s.countdownRunning = false
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infow("eye exercise cancelled", "duration_s", duration)
	}
	s.ledger.AppendExercise(ctx, safewarner.ExerciseRecord{
		OccurredAt:      now,
		DurationSeconds: duration,
		Success:         false,
	})
	return nil
}

// Status returns the live exercise view, or nil when inactive.
func (s *ExerciseService) Status() *safewarner.ExerciseStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil
	}
	remaining := s.remaining
	if s.countdownRunning {
		remaining = s.pausedRemaining - s.now().Sub(s.phaseStart).Seconds()
		if remaining < 0 {
			remaining = 0
		}
	}
	return &safewarner.ExerciseStatus{
		Phase:            s.phase,
		RemainingSeconds: remaining,
		ElapsedSeconds:   s.now().Sub(s.startedAt).Seconds(),
		Paused:           !s.countdownRunning,
		Done:             s.done,
	}
}

func (s *ExerciseService) phaseSeconds() float64 {
	return s.phaseDuration.Seconds()
}

func directionWord(d safewarner.GazeDirection) string {
	if d == safewarner.GazeLeft {
		return "LEFT"
	}
	return "RIGHT"
}
