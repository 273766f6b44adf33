package engine

import "time"

// Config controls the fixed-rate tick loop.
type Config struct {
	TickRateHz uint32
}

// Default60Hz returns the default 60 ticks per second configuration.
func Default60Hz() Config {
	return Config{TickRateHz: 60}
}

// FrameTime is the duration of one tick. A zero rate yields zero.
func (c Config) FrameTime() time.Duration {
	if c.TickRateHz == 0 {
		return 0
	}
	return time.Second / time.Duration(c.TickRateHz)
}
