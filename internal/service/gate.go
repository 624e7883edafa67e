package service

import (
	"context"
	"sync"
	"time"

	"safewarner"
	"safewarner/internal/logger"
	"safewarner/internal/metrics"
	"safewarner/internal/notify"
)

// NotificationGate is the per-kind rate limiter in front of the external
// notifier. Exercise guidance bypasses the cooldown; everything else is
// spaced by at least cfg.NotificationCooldown. A gated request is dropped
// silently: no delivery, no ledger append, no counter bump.
type NotificationGate struct {
	mu        sync.Mutex
	cooldown  time.Duration
	duration  time.Duration
	appID     string
	lastFired map[safewarner.AlertKind]time.Time
	stats     map[safewarner.AlertKind]int

	notifier notify.Notifier
	ledger   *LedgerService
	log      *logger.Logger
	now      func() time.Time
}

func NewNotificationGate(cfg Config, notifier notify.Notifier, ledger *LedgerService, log *logger.Logger) *NotificationGate {
	return &NotificationGate{
		cooldown:  cfg.NotificationCooldown,
		duration:  cfg.NotifyDuration,
		appID:     cfg.AppID,
		lastFired: make(map[safewarner.AlertKind]time.Time),
		stats:     make(map[safewarner.AlertKind]int),
		notifier:  notifier,
		ledger:    ledger,
		log:       log,
		now:       time.Now,
	}
}

// ShouldNotify reports whether kind is past its cooldown (or never fired).
func (g *NotificationGate) ShouldNotify(kind safewarner.AlertKind) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shouldNotifyLocked(kind)
}

func (g *NotificationGate) shouldNotifyLocked(kind safewarner.AlertKind) bool {
	last, ok := g.lastFired[kind]
	if !ok {
		return true
	}
	return g.now().Sub(last) >= g.cooldown
}

// Notify delivers one notification if the gate admits it. Delivery to the
// external notifier is fire-and-forget so the tick loop never blocks on
// the OS notification facility. Returns whether the request was accepted.
func (g *NotificationGate) Notify(ctx context.Context, kind safewarner.AlertKind, title, message string) bool {
	g.mu.Lock()
	if !g.shouldNotifyLocked(kind) && kind != safewarner.AlertEyeExercise {
		g.mu.Unlock()
		metrics.SuppressedTotal.Inc()
		return false
	}
	now := g.now()
	g.lastFired[kind] = now
	g.stats[kind]++
	g.mu.Unlock()

	metrics.AlertsTotal.WithLabelValues(string(kind)).Inc()

	notifier := g.notifier
	go func() {
		if !notifier.Notify(title, message, g.duration, g.appID) && g.log != nil {
			g.log.Debugw("notification not delivered", "kind", kind, "title", title)
		}
	}()

	g.ledger.AppendAlert(ctx, safewarner.AlertRecord{
		OccurredAt: now,
		Kind:       kind,
		Title:      title,
		Message:    message,
	})

	if g.log != nil {
		g.log.Infow("alert", "kind", kind, "title", title)
	}
	return true
}

// Stats returns a copy of the per-kind fire counters.
func (g *NotificationGate) Stats() map[safewarner.AlertKind]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[safewarner.AlertKind]int, len(g.stats))
	for k, v := range g.stats {
		out[k] = v
	}
	return out
}
