package service

import (
	"time"

	"github.com/spf13/viper"

	"safewarner/internal/vision"
)

// Config carries every tuning knob of the monitoring session. All values
// come from configs/config.yml with the defaults below.
type Config struct {
	Thresholds vision.Thresholds

	// Blink tracking: EAR below Thresholds.EAR appends a blink timestamp;
	// fewer than MinBlinksPerMinute (pro-rata over BlinkWindow) is "low".
	BlinkWindow        time.Duration
	MinBlinksPerMinute float64

	ScreenTimeBreak      time.Duration
	NotificationCooldown time.Duration
	ExercisePhase        time.Duration

	// AutoModeInterval is the spacing of auto-mode health polls. The 30s
	// default is a responsiveness/testing shortcut; production deployments
	// should raise it to match ScreenTimeBreak (20m).
	AutoModeInterval time.Duration

	// Background-mode gating.
	MinSessionBeforeBackground time.Duration
	CaptureWarmup              time.Duration
	WakeWarmup                 time.Duration

	// System-health check decimation (whole seconds) and alert threshold.
	HealthCheckEverySeconds int
	MaxTempC                float64

	// Tick pacing and notification delivery.
	FrameDelay     time.Duration
	NotifyDuration time.Duration
	AppID          string

	JWTSigningKey string
}

// DefaultConfig mirrors the desktop build's constants.
func DefaultConfig() Config {
	return Config{
		Thresholds:                 vision.DefaultThresholds(),
		BlinkWindow:                10 * time.Second,
		MinBlinksPerMinute:         8,
		ScreenTimeBreak:            20 * time.Minute,
		NotificationCooldown:       30 * time.Second,
		ExercisePhase:              15 * time.Second,
		AutoModeInterval:           30 * time.Second,
		MinSessionBeforeBackground: 60 * time.Second,
		CaptureWarmup:              3 * time.Second,
		WakeWarmup:                 2 * time.Second,
		HealthCheckEverySeconds:    10,
		MaxTempC:                   70,
		FrameDelay:                 30 * time.Millisecond,
		NotifyDuration:             5 * time.Second,
		AppID:                      "Safe Warner",
	}
}

// FromViper overlays config file values onto the defaults. Unset keys keep
// the default.
func FromViper() Config {
	cfg := DefaultConfig()

	if v := viper.GetDuration("timing.blink_window"); v > 0 {
		cfg.BlinkWindow = v
	}
	if v := viper.GetFloat64("timing.min_blinks_per_minute"); v > 0 {
		cfg.MinBlinksPerMinute = v
	}
	if v := viper.GetDuration("timing.screen_time_break"); v > 0 {
		cfg.ScreenTimeBreak = v
	}
	if v := viper.GetDuration("timing.notification_cooldown"); v > 0 {
		cfg.NotificationCooldown = v
	}
	if v := viper.GetDuration("timing.exercise_phase"); v > 0 {
		cfg.ExercisePhase = v
	}
	if v := viper.GetDuration("timing.auto_mode_interval"); v > 0 {
		cfg.AutoModeInterval = v
	}
	if v := viper.GetDuration("timing.min_session_before_background"); v > 0 {
		cfg.MinSessionBeforeBackground = v
	}
	if v := viper.GetDuration("timing.capture_warmup"); v > 0 {
		cfg.CaptureWarmup = v
	}
	if v := viper.GetDuration("timing.wake_warmup"); v > 0 {
		cfg.WakeWarmup = v
	}
	if v := viper.GetInt("timing.health_check_every_seconds"); v > 0 {
		cfg.HealthCheckEverySeconds = v
	}
	if v := viper.GetFloat64("thresholds.max_temp_c"); v > 0 {
		cfg.MaxTempC = v
	}
	if v := viper.GetDuration("timing.frame_delay"); v > 0 {
		cfg.FrameDelay = v
	}

	if v := viper.GetFloat64("thresholds.ear"); v > 0 {
		cfg.Thresholds.EAR = v
	}
	if v := viper.GetFloat64("thresholds.proximity"); v > 0 {
		cfg.Thresholds.Proximity = v
	}
	if v := viper.GetFloat64("thresholds.posture_tilt"); v > 0 {
		cfg.Thresholds.PostureTilt = v
	}
	if v := viper.GetFloat64("thresholds.slouch"); v > 0 {
		cfg.Thresholds.Slouch = v
	}
	if v := viper.GetFloat64("thresholds.gaze"); v > 0 {
		cfg.Thresholds.Gaze = v
	}

	if v := viper.GetString("auth.signing_key"); v != "" {
		cfg.JWTSigningKey = v
	}
	return cfg
}
