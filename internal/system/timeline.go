package system

import (
	"fmt"

	"github.com/kitu-show/kitu/internal/core/clock"
	"github.com/kitu-show/kitu/internal/core/ecs"
	coresys "github.com/kitu-show/kitu/internal/core/system"
	"github.com/kitu-show/kitu/internal/osc"
	"github.com/kitu-show/kitu/internal/timeline"
	"github.com/kitu-show/kitu/internal/transport"
	"go.uber.org/zap"
)

// TimelinePlayer advances one timeline step per tick. Phase 2 (Timeline).
//
// A Wait(n) step consumes the tick it is read on and suppresses the next n
// ticks, so "emit:a / wait:2 / emit:b" emits a on tick t and b on t+4. An
// Emit step stays at the head of the timeline until its send succeeds.
type TimelinePlayer struct {
	name     string
	tl       *timeline.Timeline
	out      transport.Sender
	address  string
	waiting  uint64
	emitted  int
	finished bool
	log      *zap.Logger
}

// NewTimelinePlayer plays tl onto out. Emit labels that start with '/' are
// sent as addresses; other labels go to address as a single string arg.
func NewTimelinePlayer(name string, tl *timeline.Timeline, out transport.Sender, address string, log *zap.Logger) *TimelinePlayer {
	if log == nil {
		log = zap.NewNop()
	}
	return &TimelinePlayer{name: name, tl: tl, out: out, address: address, log: log}
}

func (s *TimelinePlayer) Phase() coresys.Phase { return coresys.PhaseTimeline }

func (s *TimelinePlayer) Run(_ *ecs.World, tick clock.Tick) error {
	if s.waiting > 0 {
		s.waiting--
		return nil
	}
	step, ok := s.tl.Peek()
	if !ok {
		if !s.finished {
			s.finished = true
			s.log.Info("timeline finished", zap.String("timeline", s.name), zap.Uint64("tick", tick.Get()), zap.Int("emitted", s.emitted))
		}
		return nil
	}
	switch step.Kind {
	case timeline.Emit:
		msg := s.messageFor(step.Label)
		if err := s.out.Send(msg); err != nil {
			return fmt.Errorf("timeline %s emit %q: %w", s.name, step.Label, err)
		}
		s.emitted++
	case timeline.Wait:
		s.waiting = step.Ticks
	}
	s.tl.NextStep(tick)
	return nil
}

func (s *TimelinePlayer) messageFor(label string) osc.Message {
	if len(label) > 0 && label[0] == '/' {
		return osc.NewMessage(label)
	}
	msg := osc.NewMessage(s.address)
	msg.PushArg(osc.String(label))
	return msg
}

// Finished reports whether every step has been played and no wait is pending.
func (s *TimelinePlayer) Finished() bool {
	return s.tl.IsFinished() && s.waiting == 0
}

// Emitted returns the number of messages sent so far.
func (s *TimelinePlayer) Emitted() int { return s.emitted }
