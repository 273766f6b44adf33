// Package clock holds the deterministic tick counter and the timestamps derived
// from it.
package clock

import (
	"math"
	"strconv"
	"time"
)

// Tick is a monotonic counter advanced once per completed runtime cycle.
type Tick uint64

// Start returns tick zero.
func Start() Tick { return 0 }

// Next returns the tick after t.
func (t Tick) Next() Tick { return t + 1 }

// AdvanceBy returns t moved forward by offset ticks.
func (t Tick) AdvanceBy(offset uint64) Tick { return t + Tick(offset) }

// Get returns the raw counter value.
func (t Tick) Get() uint64 { return uint64(t) }

func (t Tick) String() string { return "tick " + strconv.FormatUint(uint64(t), 10) }

// Timestamp pairs a tick with the frame duration it was produced under.
type Timestamp struct {
	tick      Tick
	frameTime time.Duration
}

func NewTimestamp(tick Tick, frameTime time.Duration) Timestamp {
	return Timestamp{tick: tick, frameTime: frameTime}
}

func (ts Timestamp) Tick() Tick { return ts.tick }

func (ts Timestamp) FrameTime() time.Duration { return ts.frameTime }

// Elapsed returns frameTime × tick. time.Duration is int64 nanoseconds, so the
// product saturates at math.MaxInt64 (about 292 years) once tick exceeds
// MaxSafeTick(frameTime).
func (ts Timestamp) Elapsed() time.Duration {
	if ts.frameTime <= 0 || ts.tick == 0 {
		return 0
	}
	if uint64(ts.tick) > MaxSafeTick(ts.frameTime) {
		return time.Duration(math.MaxInt64)
	}
	return ts.frameTime * time.Duration(ts.tick)
}

// MaxSafeTick is the largest tick whose elapsed time is representable exactly
// for the given frame duration. At 60Hz this is roughly 5.5e11 ticks.
func MaxSafeTick(frameTime time.Duration) uint64 {
	if frameTime <= 0 {
		return math.MaxUint64
	}
	return uint64(math.MaxInt64 / int64(frameTime))
}
