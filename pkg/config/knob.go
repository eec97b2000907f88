// Package config implements the administrative configuration surface of
// spec §6: read/write integer knobs with declared units and bounds,
// clamped rather than rejected when a write falls outside them (spec §7).
// The pattern is modeled on the teacher's pkg/settings int-setting
// registration (register with min/max, get/set through an atomic,
// clamp-not-reject on out-of-range writes).
package config

import (
	"context"

	"go.uber.org/atomic"

	"github.com/stonet-research/zinc-scheduler/internal/zlog"
)

// IntKnob is a single bounded, atomically-readable/writable integer
// configuration parameter.
type IntKnob struct {
	name  string
	unit  string
	min   int64
	max   int64
	value atomic.Int64
}

func newIntKnob(name, unit string, def, min, max int64) *IntKnob {
	k := &IntKnob{name: name, unit: unit, min: min, max: max}
	k.value.Store(clamp(def, min, max))
	return k
}

func clamp(v, min, max int64) int64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Name returns the knob's sysfs-style name, e.g. "read_expire".
func (k *IntKnob) Name() string { return k.name }

// Unit returns the knob's declared unit, e.g. "ms" or "count".
func (k *IntKnob) Unit() string { return k.unit }

// Bounds returns the knob's [min, max] range.
func (k *IntKnob) Bounds() (int64, int64) { return k.min, k.max }

// Get returns the knob's current value.
func (k *IntKnob) Get() int64 { return k.value.Load() }

// Set writes v, clamping to [min, max] rather than rejecting an
// out-of-bounds write (spec §7: "Config-knob writes out of bounds are
// clamped to the declared min/max rather than rejected").
func (k *IntKnob) Set(ctx context.Context, v int64) {
	clamped := clamp(v, k.min, k.max)
	if clamped != v {
		zlog.Warningf(ctx, "config: %s write %d out of bounds [%d, %d], clamped to %d",
			k.name, v, k.min, k.max, clamped)
	}
	k.value.Store(clamped)
}
