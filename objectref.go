package luaembed

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// SharedRef is a strong-ownership handle to a native object that can be
// duplicated; each duplicate must be released exactly once. Construct one
// with NewShared. Hosts pass a SharedRef into Script.Call to hand a
// reference into the script, and native callables may return one to push
// a freshly created object.
type SharedRef interface {
	retain() SharedRef
	release()
	strongCount() int64
	value() interface{}
	goType() reflect.Type
}

// Shared is a reference-counted handle to a native object of type T. It is
// the idiomatic Go stand-in for apolo's std::shared_ptr<T>: Push increments
// the strong count, and the runtime's finalizer decrements it exactly once
// when the script-side reference is garbage collected.
type Shared[T any] struct {
	ptr   *T
	count *int64
}

// NewShared wraps v in a fresh shared reference with a strong count of one.
func NewShared[T any](v *T) Shared[T] {
	c := int64(1)
	return Shared[T]{ptr: v, count: &c}
}

// Get returns the wrapped pointer.
func (s Shared[T]) Get() *T { return s.ptr }

// StrongCount reports the current number of live script-side copies plus
// the host's own handle.
func (s Shared[T]) StrongCount() int64 { return atomic.LoadInt64(s.count) }

func (s Shared[T]) retain() SharedRef {
	atomic.AddInt64(s.count, 1)
	return s
}

func (s Shared[T]) release() { atomic.AddInt64(s.count, -1) }

func (s Shared[T]) strongCount() int64 { return atomic.LoadInt64(s.count) }

func (s Shared[T]) value() interface{} { return s.ptr }

func (s Shared[T]) goType() reflect.Type { return reflect.TypeOf(s.ptr) }

var _ SharedRef = Shared[int]{}

// objectBridge owns the per-environment metatable cache: on first use for a
// given type in this environment, it builds and caches that type's
// metatable rather than rebuilding it on every push.
type objectBridge struct {
	mu         sync.Mutex
	metatables map[reflect.Type]*lua.LTable
	cfg        *Configuration
	scriptName string
}

func newObjectBridge(cfg *Configuration, scriptName string) *objectBridge {
	return &objectBridge{
		metatables: make(map[reflect.Type]*lua.LTable),
		cfg:        cfg,
		scriptName: scriptName,
	}
}

// push allocates a typed user-data block, retains the shared handle,
// installs it, and binds it to the referent type's cached metatable.
func (br *objectBridge) push(L *lua.LState, reg *Registry, ref SharedRef) error {
	ud, err := br.build(L, reg, ref)
	if err != nil {
		return err
	}
	L.Push(ud)
	return nil
}

// build is push without the final stack push, for callers (thread
// construction) that need the runtime value itself rather than a slot.
func (br *objectBridge) build(L *lua.LState, reg *Registry, ref SharedRef) (*lua.LUserData, error) {
	t := ref.goType()
	info, ok := reg.getObjectType(t)
	if !ok {
		return nil, fmt.Errorf("wrong arguments to function")
	}
	if err := br.cfg.charge(1); err != nil {
		return nil, newMemoryError(br.scriptName, err.Error())
	}

	mt := br.metatableFor(L, reg, t, info)

	ud := L.NewUserData()
	ud.Value = ref.retain()
	ud.Metatable = mt
	return ud, nil
}

// read checks that the stack slot carries an object reference whose
// metatable matches the expected type, and returns the underlying Go
// pointer without retaining it (it is not being kept past this call).
func (br *objectBridge) read(L *lua.LState, idx int, reg *Registry, expected reflect.Type) (interface{}, error) {
	ud, ok := L.Get(idx).(*lua.LUserData)
	if !ok {
		return nil, fmt.Errorf("wrong arguments to function")
	}
	ref, ok := ud.Value.(SharedRef)
	if !ok || ref.goType() != expected {
		return nil, fmt.Errorf("wrong arguments to function")
	}
	return ref.value(), nil
}

func (br *objectBridge) metatableFor(L *lua.LState, reg *Registry, t reflect.Type, info *typeInfo) *lua.LTable {
	br.mu.Lock()
	defer br.mu.Unlock()

	if mt, ok := br.metatables[t]; ok {
		return mt
	}

	mt := L.NewTypeMetatable(metatableName(t))
	for name, a := range info.allMethods() {
		mt.RawSetString(name, L.NewFunction(trampoline(a, reg, br)))
	}
	mt.RawSetString("__index", mt)
	mt.RawSetString("__gc", L.NewFunction(finalize))
	br.metatables[t] = mt
	return mt
}

func finalize(L *lua.LState) int {
	ud, ok := L.Get(1).(*lua.LUserData)
	if !ok {
		return 0
	}
	if ref, ok := ud.Value.(SharedRef); ok {
		ref.release()
	}
	return 0
}

func metatableName(t reflect.Type) string {
	return "luaembed:" + t.String()
}
