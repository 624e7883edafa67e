package service

import (
	"context"
	"time"

	"safewarner"
	"safewarner/internal/autostart"
	"safewarner/internal/logger"
	"safewarner/internal/notify"
	"safewarner/internal/repository"
	"safewarner/internal/sysinfo"
	"safewarner/internal/vision"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Monitoring exposes the session controller: live status, mode switching
// and the exercise trigger.
type Monitoring interface {
	Status(ctx context.Context) (SessionStatus, error)
	Snapshot(ctx context.Context) (safewarner.SessionSnapshot, error)
	SetMode(mode string) error
	Mode() string
	StartExercise(ctx context.Context) error
}

// Exercise exposes the read/cancel side of the active eye exercise.
type Exercise interface {
	Cancel(ctx context.Context) error
	Status() *safewarner.ExerciseStatus
}

// Ledger exposes the append-only alert history with filtering access.
type Ledger interface {
	ListAlerts(ctx context.Context, f LogFilter) ([]safewarner.AlertRecord, error)
}

// Exporter writes session reports to disk.
type Exporter interface {
	Export(ctx context.Context, format string) (string, error)
}

// Prefs exposes the persisted user preferences.
type Prefs interface {
	Get() safewarner.Preferences
	Set(p safewarner.Preferences) error
	ApplyOnStartup()
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Monitoring
	Exercise
	Ledger
	Exporter
	Prefs
	Authorization

	// Runner is the capture/tick loop; main() starts it and stops it via
	// context cancellation for graceful shutdown.
	Runner *Runner
}

// Deps carries the external collaborators the services are wired with.
// Unavailable capabilities use the package Nop/Unavailable stand-ins.
type Deps struct {
	Capture   vision.Capture
	Detector  vision.Detector
	Notifier  notify.Notifier
	Speaker   notify.Speaker
	Health    sysinfo.Reader
	Autostart *autostart.Manager
	ExportDir string
}

// NewService wires the repository layer and collaborators into concrete
// services.
func NewService(cfg Config, repos *repository.Repository, deps Deps, log *logger.Logger) *Service {
	ledger := NewLedgerService(repos.Ledger, log, time.Now())
	gate := NewNotificationGate(cfg, deps.Notifier, ledger, log)
	exercise := NewExerciseService(cfg, gate, deps.Speaker, ledger, log)
	monitor := NewMonitorService(cfg, exercise, gate, deps.Health, ledger, log)
	runner := NewRunner(cfg, deps.Capture, deps.Detector, monitor, log)

	return &Service{
		Monitoring:    monitor,
		Exercise:      exercise,
		Ledger:        ledger,
		Exporter:      NewExportService(monitor, deps.ExportDir, log),
		Prefs:         NewPrefsService(repos.Prefs, deps.Autostart, log),
		Authorization: NewAuthService(repos.Auth, cfg.JWTSigningKey),
		Runner:        runner,
	}
}
