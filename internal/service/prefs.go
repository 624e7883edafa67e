package service

import (
	"fmt"

	"safewarner"
	"safewarner/internal/autostart"
	"safewarner/internal/logger"
	"safewarner/internal/repository"
)

// PrefsService owns the persisted preferences and applies their side effects,
// currently just the boot-time autostart registration.
type PrefsService struct {
	store     repository.PrefsStore
	autostart *autostart.Manager
	log       *logger.Logger
}

// NewPrefsService wires the store and the autostart manager. A nil manager
// keeps preference persistence working with registration disabled (for
// example when the executable path cannot be resolved).
func NewPrefsService(store repository.PrefsStore, mgr *autostart.Manager, log *logger.Logger) *PrefsService {
	return &PrefsService{store: store, autostart: mgr, log: log}
}

// Get loads the current preferences. A missing or corrupt file yields
// defaults; corruption is logged, not surfaced.
func (s *PrefsService) Get() safewarner.Preferences {
	p, err := s.store.Load()
	if err != nil && s.log != nil {
		s.log.Warnw("preferences unreadable, using defaults", "err", err)
	}
	return p
}

// Set persists the preferences and applies the autostart registration.
// The file write is authoritative; a registration failure is reported but
// the saved preference stands.
func (s *PrefsService) Set(p safewarner.Preferences) error {
	if err := s.store.Save(p); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	if s.autostart == nil {
		if p.AutoStartEnabled && s.log != nil {
			s.log.Warnw("autostart requested but unavailable on this install")
		}
		return nil
	}
	if err := s.autostart.SetEnabled(p.AutoStartEnabled); err != nil {
		return fmt.Errorf("apply autostart registration: %w", err)
	}
	return nil
}

// ApplyOnStartup reconciles the boot registration with the stored
// preference. Called once during startup.
func (s *PrefsService) ApplyOnStartup() {
	if s.autostart == nil {
		return
	}
	p := s.Get()
	if err := s.autostart.SetEnabled(p.AutoStartEnabled); err != nil && s.log != nil {
		s.log.Warnw("autostart reconcile failed", "enabled", p.AutoStartEnabled, "err", err)
	}
}
