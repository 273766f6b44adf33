// Package timeline parses TSQ1 timelines: line-oriented scripts of emit and
// wait directives consumed one step at a time.
//
//	emit:<label>   emit a value (label is trimmed, may be empty)
//	wait:<n>       hold emission for n ticks (n is a non-negative integer)
//
// Blank lines are skipped. There is no comment syntax and directive keys are
// exact lowercase; anything else is an unknown directive.
package timeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kitu-show/kitu/internal/core/clock"
	"github.com/kitu-show/kitu/internal/core/errs"
)

// StepKind tags a Step.
type StepKind int

const (
	Emit StepKind = iota + 1
	Wait
)

// Step is one timeline directive. Label is set for Emit, Ticks for Wait.
type Step struct {
	Kind  StepKind
	Label string
	Ticks uint64
}

func EmitStep(label string) Step { return Step{Kind: Emit, Label: label} }
func WaitStep(n uint64) Step     { return Step{Kind: Wait, Ticks: n} }

func (s Step) String() string {
	switch s.Kind {
	case Emit:
		return fmt.Sprintf("Emit(%q)", s.Label)
	case Wait:
		return fmt.Sprintf("Wait(%d)", s.Ticks)
	default:
		return "Step(?)"
	}
}

// Timeline is a FIFO of parsed steps.
type Timeline struct {
	steps []Step
}

// Parse reads a whole document. A single bad line fails the parse and no
// timeline is returned.
func Parse(script string) (*Timeline, error) {
	var steps []Step
	for i, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "emit:"):
			steps = append(steps, EmitStep(strings.TrimSpace(strings.TrimPrefix(trimmed, "emit:"))))
		case strings.HasPrefix(trimmed, "wait:"):
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "wait:"))
			n, err := strconv.ParseUint(rest, 10, 64)
			if err != nil {
				return nil, errs.InvalidInput(fmt.Sprintf("line %d: wait expects a non-negative integer, got %q", i+1, rest))
			}
			steps = append(steps, WaitStep(n))
		default:
			return nil, errs.InvalidInput(fmt.Sprintf("line %d: unknown directive %q", i+1, trimmed))
		}
	}
	return &Timeline{steps: steps}, nil
}

// NextStep removes and returns the head step, or false once exhausted. The
// tick is accepted for tick-indexed timelines; stepping does not depend on it.
func (t *Timeline) NextStep(_ clock.Tick) (Step, bool) {
	if len(t.steps) == 0 {
		return Step{}, false
	}
	s := t.steps[0]
	t.steps = t.steps[1:]
	return s, true
}

// Peek returns the head step without consuming it.
func (t *Timeline) Peek() (Step, bool) {
	if len(t.steps) == 0 {
		return Step{}, false
	}
	return t.steps[0], true
}

func (t *Timeline) IsFinished() bool { return len(t.steps) == 0 }
func (t *Timeline) Len() int         { return len(t.steps) }
func (t *Timeline) IsEmpty() bool    { return len(t.steps) == 0 }
