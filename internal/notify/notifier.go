package notify

import (
	"time"

	"github.com/gen2brain/beeep"
)

// Notifier delivers a desktop notification. Implementations must not block
// beyond a short bound and must not panic; delivery failure is reported via
// the return value only.
type Notifier interface {
	Notify(title, message string, duration time.Duration, appID string) bool
}

// Desktop returns a Notifier backed by the OS notification facility.
func Desktop() Notifier { return desktopNotifier{} }

type desktopNotifier struct{}

func (desktopNotifier) Notify(title, message string, _ time.Duration, _ string) bool {
	return beeep.Notify(title, message, "") == nil
}

// Nop returns a Notifier that drops everything. Used when the host has no
// notification facility, and in tests.
func Nop() Notifier { return nopNotifier{} }

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, time.Duration, string) bool { return false }
