// Package sysinfo reads host temperature and battery sensors for the
// system-health alert. Sensor access is best-effort: a host without
// readable sensors degrades to an unavailable reader, never an error
// surfaced to the tick loop.
package sysinfo

import (
	"context"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v4/sensors"
)

// Info is one system-health snapshot.
type Info struct {
	Available      bool               `json:"available"`
	BatteryPercent float64            `json:"battery_percent,omitempty"`
	PowerPlugged   bool               `json:"power_plugged,omitempty"`
	Temperatures   map[string]float64 `json:"temperatures,omitempty"`
}

// MaxTemperature returns the hottest sensed temperature and whether any
// sensor reported at all.
func (i Info) MaxTemperature() (float64, bool) {
	var max float64
	found := false
	for _, t := range i.Temperatures {
		if !found || t > max {
			max = t
			found = true
		}
	}
	return max, found
}

// Reader samples system health.
type Reader interface {
	Available() bool
	Read(ctx context.Context) Info
}

// Nop returns a Reader for hosts where sensing is disabled.
func Nop() Reader { return nopReader{} }

type nopReader struct{}

func (nopReader) Available() bool            { return false }
func (nopReader) Read(context.Context) Info  { return Info{} }

// Host returns the real sensor-backed Reader.
func Host() Reader { return hostReader{} }

type hostReader struct{}

func (hostReader) Available() bool { return true }

func (hostReader) Read(ctx context.Context) Info {
	info := Info{Temperatures: map[string]float64{}}

	if temps, err := sensors.TemperaturesWithContext(ctx); err == nil {
		for _, t := range temps {
			if t.SensorKey == "" {
				continue
			}
			info.Temperatures[t.SensorKey] = t.Temperature
		}
	}

	if bats, err := battery.GetAll(); err == nil && len(bats) > 0 {
		b := bats[0]
		if b.Full > 0 {
			info.BatteryPercent = b.Current / b.Full * 100
		}
		info.PowerPlugged = b.State.Raw == battery.Charging || b.State.Raw == battery.Full
	}

	info.Available = len(info.Temperatures) > 0 || info.BatteryPercent > 0
	return info
}
