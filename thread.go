package luaembed

import (
	"context"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// ThreadState reports the outcome of one Thread.Run step.
type ThreadState int

const (
	ThreadYielded ThreadState = iota
	ThreadFinished
)

// Thread wraps one coroutine-backed script call: a runtime thread whose top
// slots are the callee followed by its arguments. Run advances it once;
// repeated yields drive repeated Run calls from an Executor.
type Thread struct {
	parent     *lua.LState
	co         *lua.LState
	cancel     context.CancelFunc
	reg        *Registry
	bridge     *objectBridge
	scriptName string

	fn      *lua.LFunction
	args    []lua.LValue
	started bool

	mu       sync.Mutex
	resolved bool
	value    Value
	err      error
	done     chan struct{}
}

func newThread(parent *lua.LState, reg *Registry, bridge *objectBridge, scriptName string, fn *lua.LFunction, args []lua.LValue) *Thread {
	co, cancel := parent.NewThread()
	return &Thread{
		parent:     parent,
		co:         co,
		cancel:     cancel,
		reg:        reg,
		bridge:     bridge,
		scriptName: scriptName,
		fn:         fn,
		args:       args,
		done:       make(chan struct{}),
	}
}

// Run advances the thread by one resume step. On the first call it primes
// the coroutine's stack with the callee and its arguments; thereafter no
// further arguments are supplied.
func (t *Thread) Run() ThreadState {
	if t.isResolved() {
		return ThreadFinished
	}

	var state lua.ResumeState
	var values []lua.LValue
	var err error
	if !t.started {
		t.started = true
		state, err, values = t.parent.Resume(t.co, t.fn, t.args...)
	} else {
		state, err, values = t.parent.Resume(t.co, t.fn)
	}

	switch state {
	case lua.ResumeYield:
		return ThreadYielded
	case lua.ResumeError:
		t.resolve(Nil(), classifyRaised(t.scriptName, err))
		return ThreadFinished
	default:
		v := Nil()
		if len(values) > 0 {
			converted, cerr := valueFromLValue(values[0])
			if cerr != nil {
				t.resolve(Nil(), newRuntimeError(t.scriptName, cerr.Error()))
				return ThreadFinished
			}
			v = converted
		}
		t.resolve(v, nil)
		return ThreadFinished
	}
}

// GetFuture returns the handle a caller waits on for this thread's result.
func (t *Thread) GetFuture() *Future { return &Future{t: t} }

// Abandon resolves an unfinished thread with a broken-promise failure. An
// Executor calls this on every thread still queued when it shuts down.
func (t *Thread) Abandon() {
	t.resolve(Nil(), newRuntimeError(t.scriptName, "thread abandoned before completion"))
}

func (t *Thread) resolve(v Value, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved {
		return
	}
	t.resolved = true
	t.value = v
	t.err = err
	close(t.done)
	if t.cancel != nil {
		t.cancel()
	}
}

func (t *Thread) isResolved() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolved
}

// Future is the one-shot result slot for a Thread. Wait blocks until the
// thread finishes or the context is done, whichever comes first.
type Future struct {
	t *Thread
}

// Wait blocks for the thread's result.
func (f *Future) Wait(ctx context.Context) (Value, error) {
	select {
	case <-f.t.done:
		return f.t.value, f.t.err
	case <-ctx.Done():
		return Nil(), ctx.Err()
	}
}
