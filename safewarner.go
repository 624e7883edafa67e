package safewarner

import "time"

// Operating modes.
const (
	ModeManual = "MANUAL"
	ModeAuto   = "AUTO"
)

// GazeDirection is the discretized horizontal gaze bucket.
type GazeDirection string

const (
	GazeLeft   GazeDirection = "left"
	GazeCenter GazeDirection = "center"
	GazeRight  GazeDirection = "right"
)

// AlertKind identifies a notification category for cooldown and stats.
type AlertKind string

const (
	AlertProximity    AlertKind = "proximity"
	AlertPosture      AlertKind = "posture"
	AlertBlinkRate    AlertKind = "blink_rate"
	AlertScreenTime   AlertKind = "screen_time"
	AlertSystemHealth AlertKind = "system_health"
	// AlertEyeExercise is exercise guidance; it bypasses the cooldown gate
	// because the prompts are progress-critical, not nags.
	AlertEyeExercise AlertKind = "eye_exercise"
)

// AlertKinds lists every kind, in stats display order.
var AlertKinds = []AlertKind{
	AlertProximity,
	AlertPosture,
	AlertBlinkRate,
	AlertScreenTime,
	AlertSystemHealth,
	AlertEyeExercise,
}

// PostureVerdict is the per-frame posture analysis result.
// A nil verdict means landmarks were missing; that is not an error.
type PostureVerdict struct {
	TiltAngle   float64 `json:"tilt_angle"`   // degrees, signed
	SlouchRatio float64 `json:"slouch_ratio"` // normalized ear-to-shoulder distance
	Tilted      bool    `json:"is_tilted"`
	Slouching   bool    `json:"is_slouching"`
}

// FrameSignals is the immutable per-frame measurement snapshot fed through
// the tick pipeline. Produced once per processed frame, never mutated.
type FrameSignals struct {
	Gaze            GazeDirection   `json:"gaze"`
	EyeAspectRatio  float64         `json:"ear"`
	ProximityAlert  bool            `json:"proximity_alert"`
	LowBlinkRate    bool            `json:"low_blink_rate"`
	Posture         *PostureVerdict `json:"posture,omitempty"`
	ScreenTimeAlert bool            `json:"screen_time_alert"`
	Timestamp       time.Time       `json:"timestamp"`
}

// AlertConditionActive reports whether any alert-worthy condition is present.
func (s FrameSignals) AlertConditionActive() bool {
	if s.ProximityAlert || s.LowBlinkRate || s.ScreenTimeAlert {
		return true
	}
	if s.Posture != nil && (s.Posture.Tilted || s.Posture.Slouching) {
		return true
	}
	return false
}

// AlertRecord is a single delivered-notification ledger entry.
type AlertRecord struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Kind       AlertKind `json:"kind"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
}

// ExerciseRecord is a completed (or cancelled) eye exercise ledger entry.
type ExerciseRecord struct {
	EventID         string    `json:"event_id"`
	OccurredAt      time.Time `json:"occurred_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Success         bool      `json:"success"`
}

// SessionSnapshot is the exportable view of the session ledger.
type SessionSnapshot struct {
	StartTime time.Time         `json:"start_time"`
	Mode      string            `json:"mode"`
	Alerts    []AlertRecord     `json:"alerts"`
	Exercises []ExerciseRecord  `json:"eye_exercises"`
	Stats     map[AlertKind]int `json:"alert_stats,omitempty"`
}

// ExerciseStatus is the point-in-time view of the active exercise,
// nil-when-inactive at the query site.
type ExerciseStatus struct {
	Phase            GazeDirection `json:"phase"`
	RemainingSeconds float64       `json:"remaining_seconds"`
	ElapsedSeconds   float64       `json:"elapsed_seconds"`
	Paused           bool          `json:"paused"`
	Done             bool          `json:"done"`
}

// Preferences is the small persisted settings file.
// A missing or corrupt file yields the zero value (everything disabled).
type Preferences struct {
	AutoStartEnabled bool `json:"auto_start_enabled"`
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don't expose hash
}
