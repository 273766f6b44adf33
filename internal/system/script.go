package system

import (
	"github.com/kitu-show/kitu/internal/core/clock"
	"github.com/kitu-show/kitu/internal/core/ecs"
	coresys "github.com/kitu-show/kitu/internal/core/system"
	"github.com/kitu-show/kitu/internal/scripting"
	lua "github.com/yuin/gopher-lua"
)

// OnTick is the Lua function a script defines to run every tick.
const OnTick = "on_tick"

// ScriptSystem calls fn in a loaded script once per tick with the tick
// number. Phase 1 (Update).
type ScriptSystem struct {
	host   *scripting.Host
	script string
	fn     string
}

func NewScriptSystem(host *scripting.Host, script, fn string) *ScriptSystem {
	return &ScriptSystem{host: host, script: script, fn: fn}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ScriptSystem) Run(w *ecs.World, tick clock.Tick) error {
	exit := s.host.Enter(w, tick)
	defer exit()
	_, err := s.host.Invoke(s.script, s.fn, lua.LNumber(tick.Get()))
	return err
}
