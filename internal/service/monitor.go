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
	"safewarner/internal/sysinfo"
)

var errInvalidMode = errors.New("invalid mode: must be AUTO or MANUAL")

// SessionStatus is the live session view served to the UI, the websocket
// stream, and the status endpoint.
type SessionStatus struct {
	Mode             string                        `json:"mode"`
	BackgroundActive bool                          `json:"background_active"`
	CameraAvailable  bool                          `json:"camera_available"`
	SessionSeconds   float64                       `json:"session_seconds"`
	NextCheckSeconds float64                       `json:"next_check_seconds,omitempty"`
	ScreenTimeAlert  bool                          `json:"screen_time_alert"`
	Exercise         *safewarner.ExerciseStatus    `json:"exercise,omitempty"`
	AlertStats       map[safewarner.AlertKind]int  `json:"alert_stats"`
}

// MonitorService is the mode/scheduling controller. It owns the mode state,
// the auto-poll and screen-time timers, and the per-tick alerting policy.
// All signal processing happens on the single tick goroutine; the mutex
// covers concurrent reads from the API and websocket paths.
type MonitorService struct {
	mu  sync.Mutex
	cfg Config

	mode             string
	backgroundActive bool
	cameraAvailable  bool
	sessionStart     time.Time
	lastAutoCheck    time.Time
	lastBreak        time.Time
	lastHealthSecond int64

	exercise *ExerciseService
	gate     *NotificationGate
	health   sysinfo.Reader
	ledger   *LedgerService
	log      *logger.Logger
	now      func() time.Time

	// onModeChange lets the runner cancel a pending wake timer when
	// auto mode is turned off.
	onModeChange func(mode string)
}

func NewMonitorService(cfg Config, exercise *ExerciseService, gate *NotificationGate, health sysinfo.Reader, ledger *LedgerService, log *logger.Logger) *MonitorService {
	now := time.Now()
	m := &MonitorService{
		cfg:              cfg,
		mode:             safewarner.ModeManual,
		sessionStart:     now,
		lastAutoCheck:    now,
		lastBreak:        now,
		lastHealthSecond: -1,
		exercise:         exercise,
		gate:             gate,
		health:           health,
		ledger:           ledger,
		log:              log,
		now:              time.Now,
	}
	exercise.SetOnComplete(m.onExerciseComplete)
	return m
}

// SetCameraAvailable records the startup capability probe result.
func (m *MonitorService) SetCameraAvailable(ok bool) {
	m.mu.Lock()
	m.cameraAvailable = ok
	m.mu.Unlock()
}

// SetOnModeChange registers the runner's mode-change hook.
func (m *MonitorService) SetOnModeChange(fn func(mode string)) {
	m.mu.Lock()
	m.onModeChange = fn
	m.mu.Unlock()
}

// SetMode switches between MANUAL and AUTO. Turning auto off also clears
// background state; the registered hook cancels any pending wake timer.
func (m *MonitorService) SetMode(mode string) error {
	if mode != safewarner.ModeAuto && mode != safewarner.ModeManual {
		return errInvalidMode
	}
	m.mu.Lock()
	if m.mode == mode {
		m.mu.Unlock()
		return nil
	}
	m.mode = mode
	if mode == safewarner.ModeManual {
		m.backgroundActive = false
	} else {
		// Delay the first auto exercise until a full interval passes.
		m.lastAutoCheck = m.now()
	}
	hook := m.onModeChange
	m.mu.Unlock()

	if m.log != nil {
		m.log.Infow("mode changed", "mode", mode)
	}
	if hook != nil {
		hook(mode)
	}
	return nil
}

func (m *MonitorService) Mode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

func (m *MonitorService) BackgroundActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backgroundActive
}

// ShouldPollNow reports whether the next periodic auto-mode health check is
// due. Always false in manual mode.
func (m *MonitorService) ShouldPollNow() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shouldPollLocked()
}

func (m *MonitorService) shouldPollLocked() bool {
	if m.mode != safewarner.ModeAuto {
		return false
	}
	return m.now().Sub(m.lastAutoCheck) >= m.cfg.AutoModeInterval
}

// ScreenTimeExceeded reports whether the user is past the break threshold.
func (m *MonitorService) ScreenTimeExceeded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().Sub(m.lastBreak) > m.cfg.ScreenTimeBreak
}

// ProcessSignals applies the alerting policy to one frame's measurements.
// While an exercise is active the signals drive only the state machine;
// otherwise they feed the cooldown-gated notifications and, in auto mode,
// the periodic exercise trigger.
func (m *MonitorService) ProcessSignals(ctx context.Context, sig safewarner.FrameSignals) {
	metrics.FramesProcessedTotal.Inc()

	if m.exercise.Active() {
		m.exercise.Tick(ctx, sig.Gaze)
		return
	}

	if sig.ProximityAlert {
		m.gate.Notify(ctx, safewarner.AlertProximity,
			"Move Back Slightly",
			"You're sitting too close to the screen. Maintain 20-30cm distance.",
		)
	}
	if sig.LowBlinkRate {
		m.gate.Notify(ctx, safewarner.AlertBlinkRate,
			"Rest Your Eyes",
			"Your blink rate is low. Remember to blink regularly.",
		)
	}
	if sig.Posture != nil {
		if sig.Posture.Tilted {
			m.gate.Notify(ctx, safewarner.AlertPosture,
				"Adjust Your Posture",
				"Your head is tilted. Keep your head straight and aligned.",
			)
		}
		if sig.Posture.Slouching {
			m.gate.Notify(ctx, safewarner.AlertPosture,
				"Sit Up Straight",
				"You're slouching. Straighten your back and relax your shoulders.",
			)
		}
	}

	m.mu.Lock()
	mode := m.mode
	pollDue := m.shouldPollLocked()
	if pollDue {
		m.lastAutoCheck = m.now()
	}
	m.mu.Unlock()

	if sig.ScreenTimeAlert && mode == safewarner.ModeManual {
		// In auto mode screen time feeds the poll below instead.
		m.gate.Notify(ctx, safewarner.AlertScreenTime,
			"Time for a Break!",
			"You've been using the screen for a while. Consider taking a break.",
		)
	}

	if mode == safewarner.ModeAuto && pollDue && sig.AlertConditionActive() {
		if m.log != nil {
			m.log.Infow("auto check found issues, starting exercise")
		}
		if err := m.StartExercise(ctx); err != nil && m.log != nil {
			m.log.Warnw("auto exercise start failed", "err", err)
		}
	}

	m.checkSystemHealth(ctx, sig.Timestamp)
}

// StartExercise begins an exercise and marks the break taken.
func (m *MonitorService) StartExercise(ctx context.Context) error {
	if err := m.exercise.Start(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.lastBreak = m.now()
	m.mu.Unlock()
	return nil
}

// onExerciseComplete defers the next auto poll by a full interval.
func (m *MonitorService) onExerciseComplete(at time.Time) {
	m.mu.Lock()
	if m.mode == safewarner.ModeAuto {
		m.lastAutoCheck = at
	}
	m.mu.Unlock()
}

// checkSystemHealth runs on a coarse decimated cadence: once per wall-clock
// second whose epoch value is a multiple of the configured period.
func (m *MonitorService) checkSystemHealth(ctx context.Context, at time.Time) {
	if m.health == nil || !m.health.Available() {
		return
	}
	if at.IsZero() {
		at = m.now()
	}
	sec := at.Unix()
	if sec%int64(m.cfg.HealthCheckEverySeconds) != 0 {
		return
	}
	m.mu.Lock()
	if sec == m.lastHealthSecond {
		m.mu.Unlock()
		return
	}
	m.lastHealthSecond = sec
	m.mu.Unlock()

	info := m.health.Read(ctx)
	if !info.Available {
		return
	}
	if temp, ok := info.MaxTemperature(); ok && temp > m.cfg.MaxTempC {
		m.gate.Notify(ctx, safewarner.AlertSystemHealth,
			"System Running Hot",
			fmt.Sprintf("High temperature detected (%.0f°C). Consider taking a break.", temp),
		)
	}
}

// ShouldEnterBackground reports whether the session can drop to background
// operation: auto mode, past the warm-up window, no exercise running and no
// alert condition in the current frame.
func (m *MonitorService) ShouldEnterBackground(sig safewarner.FrameSignals) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != safewarner.ModeAuto || m.backgroundActive {
		return false
	}
	if m.exercise.Active() {
		return false
	}
	if sig.AlertConditionActive() {
		return false
	}
	return m.now().Sub(m.sessionStart) >= m.cfg.MinSessionBeforeBackground
}

// EnterBackground flips the session into background state. Capture teardown
// and wake scheduling belong to the runner.
func (m *MonitorService) EnterBackground() {
	m.mu.Lock()
	m.backgroundActive = true
	m.mu.Unlock()
	metrics.BackgroundTransitionsTotal.WithLabelValues("enter").Inc()
	if m.log != nil {
		m.log.Infow("entering background mode", "wake_in", m.cfg.AutoModeInterval)
	}
}

// HandleWake returns to foreground and rolls the auto-check clock back a
// full interval so the next tick immediately qualifies for polling.
func (m *MonitorService) HandleWake() {
	m.mu.Lock()
	m.backgroundActive = false
	m.lastAutoCheck = m.now().Add(-m.cfg.AutoModeInterval)
	m.mu.Unlock()
	metrics.BackgroundTransitionsTotal.WithLabelValues("exit").Inc()
	if m.log != nil {
		m.log.Infow("woke from background mode")
	}
}

// Status assembles the live session view.
func (m *MonitorService) Status(ctx context.Context) (SessionStatus, error) {
	m.mu.Lock()
	now := m.now()
	st := SessionStatus{
		Mode:             m.mode,
		BackgroundActive: m.backgroundActive,
		CameraAvailable:  m.cameraAvailable,
		SessionSeconds:   now.Sub(m.sessionStart).Seconds(),
		ScreenTimeAlert:  now.Sub(m.lastBreak) > m.cfg.ScreenTimeBreak,
	}
	if m.mode == safewarner.ModeAuto {
		next := m.cfg.AutoModeInterval.Seconds() - now.Sub(m.lastAutoCheck).Seconds()
		if next < 0 {
			next = 0
		}
		st.NextCheckSeconds = next
	}
	m.mu.Unlock()

	st.Exercise = m.exercise.Status()
	st.AlertStats = m.gate.Stats()
	return st, nil
}

// Snapshot assembles the exportable session view from the ledger.
func (m *MonitorService) Snapshot(ctx context.Context) (safewarner.SessionSnapshot, error) {
	alerts, exercises := m.ledger.Records()
	return safewarner.SessionSnapshot{
		StartTime: m.ledger.StartTime(),
		Mode:      m.Mode(),
		Alerts:    alerts,
		Exercises: exercises,
		Stats:     m.gate.Stats(),
	}, nil
}
