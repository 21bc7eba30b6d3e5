package luaembed

import (
	"fmt"
	"strings"
)

// scriptError is embedded by every failure kind surfaced across the
// boundary. It carries the script name passed at compile time as a
// diagnostic prefix.
type scriptError struct {
	script string
	reason string
}

func (e *scriptError) Error() string {
	if e.script == "" {
		return e.reason
	}
	return fmt.Sprintf("%s: %s", e.script, e.reason)
}

func (e *scriptError) Unwrap() error { return nil }

// SyntaxError is raised only while compiling a buffer, either the top-level
// script or a require-loaded library.
type SyntaxError struct{ scriptError }

func newSyntaxError(script, reason string) *SyntaxError {
	return &SyntaxError{scriptError{script: script, reason: reason}}
}

// RuntimeError is raised by trampolines, by the loader gate, by marshalling,
// and by the executor when a coroutine errors.
type RuntimeError struct{ scriptError }

func newRuntimeError(script, reason string) *RuntimeError {
	return &RuntimeError{scriptError{script: script, reason: reason}}
}

func newRuntimeErrorf(script, format string, args ...interface{}) *RuntimeError {
	return newRuntimeError(script, fmt.Sprintf(format, args...))
}

// MemoryError is raised when the runtime or the configured memory hook
// reports allocation exhaustion.
type MemoryError struct{ scriptError }

func newMemoryError(script, reason string) *MemoryError {
	return &MemoryError{scriptError{script: script, reason: reason}}
}

// memoryMarker tags a raised Lua error as originating from a denied memory
// charge. A Go error crossing into the VM via L.RaiseError loses its type,
// so the marker is how classifyRaised recovers *MemoryError once the error
// comes back out through CallByParam or Resume.
const memoryMarker = "\x00luaembed-memory\x00"

func raiseMemoryError(L interface {
	RaiseError(format string, args ...interface{})
}, reason string) {
	L.RaiseError("%s%s", memoryMarker, reason)
}

// classifyRaised turns an error returned at a script/VM boundary into the
// right failure kind: a *MemoryError if it was raised via raiseMemoryError,
// a *RuntimeError otherwise.
func classifyRaised(script string, err error) error {
	msg := errorReason(err)
	if idx := strings.Index(msg, memoryMarker); idx >= 0 {
		return newMemoryError(script, msg[idx+len(memoryMarker):])
	}
	return newRuntimeError(script, msg)
}

// ScriptError is the common base every failure kind implements, letting
// hosts catch uniformly via errors.As(err, new(ScriptError)).
type ScriptError interface {
	error
	scriptName() string
}

func (e *scriptError) scriptName() string { return e.script }

var (
	_ ScriptError = (*SyntaxError)(nil)
	_ ScriptError = (*RuntimeError)(nil)
	_ ScriptError = (*MemoryError)(nil)
)
