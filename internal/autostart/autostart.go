// Package autostart registers the application to launch at login.
// The OS-specific mechanics (registry, launchd, systemd) are owned by
// kardianos/service; this package only decides install/uninstall from the
// persisted preference.
package autostart

import (
	"errors"
	"fmt"
	"os"

	"github.com/kardianos/service"
)

const appName = "SafeWarner"

// Manager toggles boot-time registration.
type Manager struct {
	svc service.Service
}

// noopProgram satisfies service.Interface; the registration entry relaunches
// the regular binary with the boot flags, it never runs under this process.
type noopProgram struct{}

func (noopProgram) Start(service.Service) error { return nil }
func (noopProgram) Stop(service.Service) error  { return nil }

// New builds a Manager for the current executable. Boot launches start
// hidden and directly in auto mode.
func New() (*Manager, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	cfg := &service.Config{
		Name:        appName,
		DisplayName: "Safe Warner",
		Description: "Eye health and posture monitor",
		Executable:  exe,
		Arguments:   []string{"--auto-mode", "--minimal"},
	}
	svc, err := service.New(noopProgram{}, cfg)
	if err != nil {
		return nil, fmt.Errorf("init service handle: %w", err)
	}
	return &Manager{svc: svc}, nil
}

// SetEnabled installs or removes the boot registration. Both directions are
// idempotent: enabling twice or disabling an absent entry is not an error.
func (m *Manager) SetEnabled(enabled bool) error {
	if enabled {
		if m.installed() {
			return nil
		}
		return m.svc.Install()
	}
	if !m.installed() {
		return nil
	}
	err := m.svc.Uninstall()
	if errors.Is(err, service.ErrNotInstalled) {
		return nil
	}
	return err
}

// Enabled reports whether a boot registration currently exists.
func (m *Manager) Enabled() bool {
	return m.installed()
}

func (m *Manager) installed() bool {
	status, err := m.svc.Status()
	if err != nil {
		return false
	}
	return status != service.StatusUnknown
}
