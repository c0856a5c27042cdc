// If you are AI: This file maps validated ring configuration onto the
// coordination engine's claim modes and wait strategies.

package config

import (
	"ringbus/internal/core/disruptor"
)

// ClaimMode returns the configured producer coordination mode.
// Call Validate first; unknown spellings fall back to single-producer.
func (r *RingConfig) ClaimMode() disruptor.ClaimMode {
	if r.Claim == "multi" {
		return disruptor.MultiProducer
	}
	return disruptor.SingleProducer
}

// NewWaitStrategy constructs a fresh wait strategy instance from the
// configured name. Blocking strategies carry per-sequencer state, so every
// sequencer in the tree gets its own instance.
func (r *RingConfig) NewWaitStrategy() disruptor.WaitStrategy {
	switch r.Wait {
	case WaitYielding:
		return disruptor.YieldingStrategy{}
	case WaitSleeping:
		return disruptor.SleepingStrategy{Interval: r.SleepFor}
	case WaitBlocking:
		return &disruptor.BlockingStrategy{}
	case WaitTimedBlocking:
		return &disruptor.TimedBlockingStrategy{Timeout: r.WaitTimeout}
	default:
		return disruptor.BusySpinStrategy{}
	}
}
