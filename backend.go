package luaembed

// Backend is an alternate scripting runtime behind a coarser call surface
// than Script: a host that wants to run JavaScript or Go-as-a-script instead
// of the sandboxed Lua runtime uses one of these. Neither backend supports
// require(), registered native object types, or cooperative yielding --
// those stay specific to Script.
type Backend interface {
	// Run compiles and executes a top-level source buffer.
	Run(source string) error

	// RegisterFunction exposes a Go function under name to script code.
	RegisterFunction(name string, fn interface{})

	// Call invokes the named script-level function and returns its first
	// result converted back to a Go value.
	Call(name string, args ...interface{}) (interface{}, error)

	// Close releases any resources the backend holds.
	Close()
}
