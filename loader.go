package luaembed

import (
	"bytes"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// handleRequire backs the sandboxed require() global: at-most-once per
// trimmed name, with the name inserted into the loaded set before the
// loader runs so a library that requires itself recursively sees itself
// already loaded rather than looping.
func (s *Script) handleRequire(L *lua.LState) int {
	raw, ok := L.Get(1).(lua.LString)
	if !ok {
		L.RaiseError("invalid call to require()")
		return 0
	}
	name := strings.TrimSpace(string(raw))
	if name == "" {
		L.RaiseError("invalid call to require()")
		return 0
	}

	if s.loaded[name] {
		return 0
	}

	loader := s.cfg.loader
	if loader == nil {
		loader = s.reg.defaultLoader()
	}
	if loader == nil {
		L.RaiseError("cannot load libraries")
		return 0
	}
	if err := s.charge(1); err != nil {
		raiseMemoryError(L, err.(*MemoryError).reason)
		return 0
	}
	s.loaded[name] = true

	buf, err := loader(name)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}

	fn, err := L.Load(bytes.NewReader(buf), name)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(fn)
	if err := L.PCall(0, 0, nil); err != nil {
		L.RaiseError("%s", errorReason(err))
		return 0
	}
	return 0
}
