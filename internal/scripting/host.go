// Package scripting hosts user-defined behavior written in Lua.
package scripting

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kitu-show/kitu/internal/core/clock"
	"github.com/kitu-show/kitu/internal/core/ecs"
	"github.com/kitu-show/kitu/internal/core/errs"
	"github.com/kitu-show/kitu/internal/osc"
	"github.com/kitu-show/kitu/internal/transport"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

// Host wraps a single gopher-lua VM. Each registered script is evaluated in
// its own environment table (falling back to globals), so two scripts may
// define functions with the same name. Single-goroutine access only: the host
// is driven from the tick loop.
type Host struct {
	vm      *lua.LState
	scripts map[string]*lua.LTable
	sender  transport.Sender

	// bound while a system runs a script
	world *ecs.World
	tick  clock.Tick

	log *zap.Logger
}

func NewHost(log *zap.Logger) *Host {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	h := &Host{
		vm:      vm,
		scripts: make(map[string]*lua.LTable),
		log:     log,
	}
	vm.SetGlobal("emit", vm.NewFunction(h.luaEmit))
	vm.SetGlobal("register_component", vm.NewFunction(h.luaRegisterComponent))
	vm.SetGlobal("current_tick", vm.NewFunction(h.luaCurrentTick))
	vm.SetGlobal("log", vm.NewFunction(h.luaLog))
	return h
}

func (h *Host) Close() {
	h.vm.Close()
}

// BindSender sets where emit() sends messages.
func (h *Host) BindSender(s transport.Sender) {
	h.sender = s
}

// Enter binds w and tick for host API calls made by scripts until the
// returned function is called.
func (h *Host) Enter(w *ecs.World, tick clock.Tick) (exit func()) {
	h.world, h.tick = w, tick
	return func() { h.world = nil }
}

// RegisterScript compiles source and evaluates it into a fresh environment.
// A script registered again under the same name replaces the old one.
func (h *Host) RegisterScript(name, source string) error {
	chunk, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return errs.InvalidInput(fmt.Sprintf("compile %s: %v", name, err))
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return errs.InvalidInput(fmt.Sprintf("compile %s: %v", name, err))
	}

	env := h.vm.NewTable()
	mt := h.vm.NewTable()
	mt.RawSetString("__index", h.vm.G.Global)
	h.vm.SetMetatable(env, mt)

	fn := h.vm.NewFunctionFromProto(proto)
	fn.Env = env
	if err := h.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("load script %s: %w", name, err)
	}
	h.scripts[name] = env
	h.log.Debug("loaded lua script", zap.String("script", name))
	return nil
}

// Len returns the number of registered scripts.
func (h *Host) Len() int {
	return len(h.scripts)
}

// Names lists registered scripts in lexical order.
func (h *Host) Names() []string {
	names := make([]string, 0, len(h.scripts))
	for n := range h.scripts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether script defines a function named fn.
func (h *Host) Has(script, fn string) bool {
	env, ok := h.scripts[script]
	if !ok {
		return false
	}
	_, ok = env.RawGetString(fn).(*lua.LFunction)
	return ok
}

// Invoke calls fn defined by script and returns its first result.
func (h *Host) Invoke(script, fn string, args ...lua.LValue) (lua.LValue, error) {
	env, ok := h.scripts[script]
	if !ok {
		return lua.LNil, errs.InvalidInput("missing script: " + script)
	}
	f, ok := env.RawGetString(fn).(*lua.LFunction)
	if !ok {
		return lua.LNil, errs.InvalidInput(fmt.Sprintf("missing function %s in %s", fn, script))
	}
	if err := h.vm.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}, args...); err != nil {
		return lua.LNil, fmt.Errorf("invoke %s.%s: %w", script, fn, err)
	}
	ret := h.vm.Get(-1)
	h.vm.Pop(1)
	return ret, nil
}

// emit(address, ...) sends a message; numbers that are whole int32 values
// become Int arguments, other numbers Float.
func (h *Host) luaEmit(L *lua.LState) int {
	addr := L.CheckString(1)
	msg := osc.NewMessage(addr)
	for i := 2; i <= L.GetTop(); i++ {
		switch v := L.Get(i).(type) {
		case lua.LNumber:
			f := float64(v)
			if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 {
				msg.PushArg(osc.Int(int32(f)))
			} else {
				msg.PushArg(osc.Float(float32(f)))
			}
		case lua.LString:
			msg.PushArg(osc.String(string(v)))
		case lua.LBool:
			msg.PushArg(osc.Bool(bool(v)))
		default:
			L.ArgError(i, "number, string or boolean expected, got "+v.Type().String())
			return 0
		}
	}
	if h.sender == nil {
		L.RaiseError("emit: no outbox bound")
		return 0
	}
	if err := h.sender.Send(msg); err != nil {
		L.RaiseError("emit %s: %s", addr, err.Error())
		return 0
	}
	return 0
}

// register_component(name) returns true, or false and a reason.
func (h *Host) luaRegisterComponent(L *lua.LState) int {
	name := L.CheckString(1)
	if h.world == nil {
		L.RaiseError("register_component: no world bound outside a tick")
		return 0
	}
	if err := h.world.RegisterComponent(name); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func (h *Host) luaCurrentTick(L *lua.LState) int {
	L.Push(lua.LNumber(h.tick.Get()))
	return 1
}

func (h *Host) luaLog(L *lua.LState) int {
	h.log.Info("lua", zap.String("msg", L.CheckString(1)), zap.Uint64("tick", h.tick.Get()))
	return 0
}
