package luaembed

import (
	"bytes"

	lua "github.com/yuin/gopher-lua"
)

// Script is one compiled, running environment: a runtime state seeded with
// a registry's free functions and native types, sandboxed per
// Configuration, with the named buffer's top-level chunk already executed.
// Many independently configured Scripts can coexist, each with its own
// state, registry view, and loaded-library set.
type Script struct {
	name   string
	state  *lua.LState
	reg    *Registry
	cfg    *Configuration
	bridge *objectBridge
	loaded map[string]bool
}

// NewScript compiles and runs buffer under name against reg's registered
// functions and types, applying cfg. A nil reg or cfg falls back to an
// empty registry or the default configuration respectively.
func NewScript(name string, buffer []byte, reg *Registry, cfg *Configuration) (*Script, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	if cfg == nil {
		cfg = NewConfiguration()
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs:     true,
		RegistryMaxSize:  cfg.registryMax,
		RegistryGrowStep: cfg.growStep,
	})

	s := &Script{
		name:   name,
		state:  L,
		reg:    reg,
		cfg:    cfg,
		bridge: newObjectBridge(cfg, name),
		loaded: make(map[string]bool),
	}

	setupSandbox(L)
	installLibraries(L, cfg)
	L.SetGlobal("require", L.NewFunction(s.handleRequire))
	s.installFunctions()

	fn, err := L.Load(bytes.NewReader(buffer), name)
	if err != nil {
		L.Close()
		return nil, newSyntaxError(name, err.Error())
	}
	L.Push(fn)
	if err := L.PCall(0, 0, nil); err != nil {
		L.Close()
		return nil, classifyRaised(name, err)
	}

	return s, nil
}

// charge consults the configured memory hook, wrapping a denial as a
// *MemoryError scoped to this script.
func (s *Script) charge(n int) error {
	if err := s.cfg.charge(n); err != nil {
		return newMemoryError(s.name, err.Error())
	}
	return nil
}

// installFunctions publishes every registered free function and module
// table as a global, each wrapped by the trampoline so native failures
// surface as script-visible errors instead of Go panics.
func (s *Script) installFunctions() {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()

	for name, a := range s.reg.functions {
		s.state.SetGlobal(name, s.state.NewFunction(trampoline(a, s.reg, s.bridge)))
	}
	for modName, fns := range s.reg.modules {
		exports := make(map[string]lua.LGFunction, len(fns))
		for name, a := range fns {
			exports[name] = trampoline(a, s.reg, s.bridge)
		}
		s.state.PreloadModule(modName, func(L *lua.LState) int {
			mod := L.SetFuncs(L.NewTable(), exports)
			L.Push(mod)
			return 1
		})
	}
}

// Close releases the underlying runtime state. A Script is not usable after
// Close.
func (s *Script) Close() { s.state.Close() }

// Name returns the chunk name given at construction.
func (s *Script) Name() string { return s.name }

// HasFunction reports whether name is defined as a script-level function.
func (s *Script) HasFunction(name string) bool {
	return s.state.GetGlobal(name).Type() == lua.LTFunction
}

// Call invokes the script-level function name synchronously, marshalling
// args through the same conversions used for native callable parameters and
// converting the single returned value back to a Value. Args may be nil,
// bool, any integer or floating Go type, string, Value, or SharedRef.
func (s *Script) Call(name string, args ...interface{}) (Value, error) {
	fn := s.state.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return Nil(), newRuntimeError(s.name, "attempt to call a nil value")
	}

	luaArgs, err := s.convertArgs(args)
	if err != nil {
		return Nil(), err
	}

	if err := s.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, luaArgs...); err != nil {
		return Nil(), classifyRaised(s.name, err)
	}

	ret := s.state.Get(-1)
	s.state.Pop(1)
	return valueFromLValue(ret)
}

// NewCall builds a cooperatively scheduled Thread for name and args, for
// hosts driving it through an Executor instead of calling synchronously.
func (s *Script) NewCall(name string, args ...interface{}) (*Thread, error) {
	fn, ok := s.state.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil, newRuntimeError(s.name, "attempt to call a nil value")
	}
	luaArgs, err := s.convertArgs(args)
	if err != nil {
		return nil, err
	}
	return newThread(s.state, s.reg, s.bridge, s.name, fn, luaArgs), nil
}

func (s *Script) convertArgs(args []interface{}) ([]lua.LValue, error) {
	out := make([]lua.LValue, len(args))
	for i, arg := range args {
		lv, err := s.argToLValue(arg)
		if err != nil {
			return nil, err
		}
		out[i] = lv
	}
	return out, nil
}

func (s *Script) argToLValue(arg interface{}) (lua.LValue, error) {
	switch v := arg.(type) {
	case nil:
		return lua.LNil, nil
	case Value:
		if v.Kind() == KindObject {
			return nil, newRuntimeError(s.name, "cannot pass a bare object-ref value; pass its SharedRef")
		}
		return valueToLValue(v), nil
	case SharedRef:
		return s.bridge.build(s.state, s.reg, v)
	case bool:
		return lua.LBool(v), nil
	case string:
		return lua.LString(v), nil
	}
	return widenNumeric(arg)
}
