package config

import "time"

// StreamKnobs bundles the four knobs of a single management stream (spec
// §4.4, §6): epoch_interval, command_tokens, minimum_concurrency_threshold,
// maximum_epoch_holds.
type StreamKnobs struct {
	EpochIntervalMs             *IntKnob
	CommandTokens               *IntKnob
	MinimumConcurrencyThreshold *IntKnob
	MaximumEpochHolds           *IntKnob
}

// EpochInterval returns the stream's epoch period as a time.Duration,
// floored to one tick (spec §6: "floor 1 tick") of one millisecond.
func (s *StreamKnobs) EpochInterval() time.Duration {
	ms := s.EpochIntervalMs.Get()
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

// Config is the full administrative surface of spec §6: every read/write
// text knob exposed per device.
type Config struct {
	ReadExpireMs      *IntKnob
	WriteExpireMs     *IntKnob
	WritesStarved     *IntKnob
	FrontMerges       *IntKnob
	AsyncDepth        *IntKnob
	FifoBatch         *IntKnob
	PrioAgingExpireMs *IntKnob

	Reset  StreamKnobs
	Finish StreamKnobs

	all map[string]*IntKnob
}

const maxInt64 = int64(1<<63 - 1)

// Default constructs a Config with every knob at the default named in
// spec §6.
func Default() *Config {
	c := &Config{
		ReadExpireMs:      newIntKnob("read_expire", "ms", 500, 0, maxInt64),
		WriteExpireMs:     newIntKnob("write_expire", "ms", 5000, 0, maxInt64),
		WritesStarved:     newIntKnob("writes_starved", "count", 2, 0, maxInt64),
		FrontMerges:       newIntKnob("front_merges", "bool", 1, 0, 1),
		AsyncDepth:        newIntKnob("async_depth", "count", 1, 1, maxInt64),
		FifoBatch:         newIntKnob("fifo_batch", "count", 16, 0, maxInt64),
		PrioAgingExpireMs: newIntKnob("prio_aging_expire", "ms", 10000, 0, maxInt64),
		Reset: StreamKnobs{
			EpochIntervalMs:             newIntKnob("reset_epoch_interval", "ms", 64, 1, maxInt64),
			CommandTokens:               newIntKnob("reset_command_tokens", "units", 2000, 0, maxInt64),
			MinimumConcurrencyThreshold: newIntKnob("reset_minimum_concurrency_treshold", "units", 3, 0, maxInt64),
			MaximumEpochHolds:           newIntKnob("reset_maximum_epoch_holds", "count", 3, 0, maxInt64),
		},
		Finish: StreamKnobs{
			EpochIntervalMs:             newIntKnob("finish_epoch_interval", "ms", 64, 1, maxInt64),
			CommandTokens:               newIntKnob("finish_command_tokens", "units", 2000, 0, maxInt64),
			MinimumConcurrencyThreshold: newIntKnob("finish_minimum_concurrency_treshold", "units", 3, 0, maxInt64),
			MaximumEpochHolds:           newIntKnob("finish_maximum_epoch_holds", "count", 3, 0, maxInt64),
		},
	}
	c.all = map[string]*IntKnob{
		c.ReadExpireMs.Name():                       c.ReadExpireMs,
		c.WriteExpireMs.Name():                      c.WriteExpireMs,
		c.WritesStarved.Name():                      c.WritesStarved,
		c.FrontMerges.Name():                        c.FrontMerges,
		c.AsyncDepth.Name():                         c.AsyncDepth,
		c.FifoBatch.Name():                          c.FifoBatch,
		c.PrioAgingExpireMs.Name():                  c.PrioAgingExpireMs,
		c.Reset.EpochIntervalMs.Name():              c.Reset.EpochIntervalMs,
		c.Reset.CommandTokens.Name():                c.Reset.CommandTokens,
		c.Reset.MinimumConcurrencyThreshold.Name():  c.Reset.MinimumConcurrencyThreshold,
		c.Reset.MaximumEpochHolds.Name():            c.Reset.MaximumEpochHolds,
		c.Finish.EpochIntervalMs.Name():             c.Finish.EpochIntervalMs,
		c.Finish.CommandTokens.Name():               c.Finish.CommandTokens,
		c.Finish.MinimumConcurrencyThreshold.Name(): c.Finish.MinimumConcurrencyThreshold,
		c.Finish.MaximumEpochHolds.Name():           c.Finish.MaximumEpochHolds,
	}
	return c
}

// Lookup returns the knob registered under name, for the admin HTTP and
// CLI surfaces (spec §6 Configuration parameters).
func (c *Config) Lookup(name string) (*IntKnob, bool) {
	k, ok := c.all[name]
	return k, ok
}

// Names returns every registered knob name, sorted by declaration order
// as a stable slice (used to render the admin surface's knob listing).
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.all))
	for _, k := range []*IntKnob{
		c.ReadExpireMs, c.WriteExpireMs, c.WritesStarved, c.FrontMerges,
		c.AsyncDepth, c.FifoBatch, c.PrioAgingExpireMs,
		c.Reset.EpochIntervalMs, c.Reset.CommandTokens,
		c.Reset.MinimumConcurrencyThreshold, c.Reset.MaximumEpochHolds,
		c.Finish.EpochIntervalMs, c.Finish.CommandTokens,
		c.Finish.MinimumConcurrencyThreshold, c.Finish.MaximumEpochHolds,
	} {
		names = append(names, k.Name())
	}
	return names
}

// ReadExpire returns the read-direction FIFO expiry interval.
func (c *Config) ReadExpire() time.Duration {
	return time.Duration(c.ReadExpireMs.Get()) * time.Millisecond
}

// WriteExpire returns the write-direction FIFO expiry interval.
func (c *Config) WriteExpire() time.Duration {
	return time.Duration(c.WriteExpireMs.Get()) * time.Millisecond
}

// PrioAgingExpire returns the priority-aging threshold duration.
func (c *Config) PrioAgingExpire() time.Duration {
	return time.Duration(c.PrioAgingExpireMs.Get()) * time.Millisecond
}
