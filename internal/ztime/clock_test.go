package ztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualClockAdvanceAndSet(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(base)
	require.Equal(t, base, c.Now())

	got := c.Advance(time.Second)
	require.Equal(t, base.Add(time.Second), got)
	require.Equal(t, base.Add(time.Second), c.Now())

	other := base.Add(time.Hour)
	c.Set(other)
	require.Equal(t, other, c.Now())
}

func TestRealClockMonotonic(t *testing.T) {
	var c RealClock
	a := c.Now()
	b := c.Now()
	require.False(t, b.Before(a))
}
