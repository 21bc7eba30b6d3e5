package luaembed

import (
	"crypto/tls"
	"net/http"
	"unicode/utf8"

	"github.com/ailncode/gluaxmlpath"
	"github.com/ciaos/gluahttp"
	"github.com/cjoudrey/gluaurl"
	"github.com/yuin/gluare"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

// baseWhitelist are the only names kept from the base library after
// lua.OpenBase installs its full surface. Everything else -- pcall,
// error, setmetatable, dofile, loadfile, os, io, and the rest -- is
// stripped so scripts run inside a sandbox with no filesystem, process,
// or uncontrolled-error-handling access.
var baseWhitelist = map[string]bool{
	"assert":   true,
	"pairs":    true,
	"ipairs":   true,
	"next":     true,
	"select":   true,
	"tonumber": true,
	"tostring": true,
	"type":     true,
	"_G":       true,
	"_VERSION": true,
}

func setupSandbox(L *lua.LState) {
	lua.OpenBase(L)
	stripUnlisted(L)

	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	installUTF8(L)

	L.SetGlobal("yield", L.NewFunction(yieldBuiltin))
}

func stripUnlisted(L *lua.LState) {
	g, ok := L.GetGlobal("_G").(*lua.LTable)
	if !ok {
		return
	}
	var toRemove []string
	g.ForEach(func(k, _ lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok {
			return
		}
		if !baseWhitelist[string(name)] {
			toRemove = append(toRemove, string(name))
		}
	})
	for _, name := range toRemove {
		L.SetGlobal(name, lua.LNil)
	}
}

// yieldBuiltin returns -1, the sentinel gopher-lua's VM uses to suspend the
// running coroutine and hand control back to the caller of Resume. The
// script's arguments are already on the stack and are discarded by the
// executor on the next resume.
func yieldBuiltin(L *lua.LState) int {
	return -1
}

// installUTF8 provides the small subset of Lua 5.3's utf8 library the
// whitelist requires. gopher-lua, grounded on Lua 5.1 semantics, has no
// built-in utf8 module and the example pack carries no third-party
// gopher-lua utf8 library, so this one function is built directly on
// Go's standard unicode/utf8 -- the only suitable implementation
// available, per DESIGN.md.
func installUTF8(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "char", L.NewFunction(utf8Char))
	L.SetField(mod, "len", L.NewFunction(utf8Len))
	L.SetField(mod, "codepoint", L.NewFunction(utf8Codepoint))
	L.SetField(mod, "codes", L.NewFunction(utf8Codes))
	L.SetGlobal("utf8", mod)
}

func utf8Char(L *lua.LState) int {
	top := L.GetTop()
	buf := make([]rune, 0, top)
	for i := 1; i <= top; i++ {
		buf = append(buf, rune(L.CheckInt(i)))
	}
	L.Push(lua.LString(string(buf)))
	return 1
}

func utf8Len(L *lua.LState) int {
	s := L.CheckString(1)
	L.Push(lua.LNumber(utf8.RuneCountInString(s)))
	return 1
}

func utf8Codepoint(L *lua.LState) int {
	s := L.CheckString(1)
	r, _ := utf8.DecodeRuneInString(s)
	L.Push(lua.LNumber(r))
	return 1
}

func utf8Codes(L *lua.LState) int {
	s := L.CheckString(1)
	i := 0
	iter := L.NewFunction(func(L *lua.LState) int {
		if i >= len(s) {
			return 0
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		L.Push(lua.LNumber(i + 1))
		L.Push(lua.LNumber(r))
		i += size
		return 2
	})
	L.Push(iter)
	L.Push(lua.LString(s))
	L.Push(lua.LNumber(0))
	return 3
}

// installLibraries preloads the optional built-in modules the
// Configuration opts into via PreloadModule, one per supported library.
func installLibraries(L *lua.LState, cfg *Configuration) {
	if cfg == nil {
		return
	}
	if cfg.libraries.json {
		luajson.Preload(L)
	}
	if cfg.libraries.re {
		L.PreloadModule("re", gluare.Loader)
	}
	if cfg.libraries.url {
		L.PreloadModule("url", gluaurl.Loader)
	}
	if cfg.libraries.http {
		client := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{}}}
		L.PreloadModule("http", gluahttp.NewHttpModule(client).Loader)
	}
	if cfg.libraries.xmlpath {
		L.PreloadModule("xmlpath", gluaxmlpath.Loader)
	}
}
