package luaembed

import (
	"fmt"
	"reflect"
	"sync"
)

// typeInfo holds a registered native type's fully merged method table
// (own methods plus copies inherited from its bases, wrapped to down-cast
// their receiver) and its declared base types.
type typeInfo struct {
	typ     reflect.Type
	methods map[string]*adapter
	bases   []reflect.Type
}

func (ti *typeInfo) allMethods() map[string]*adapter { return ti.methods }

// Registry is the host-side catalog of free functions and native object
// types made visible to scripts. It is built once by the host, then shared
// read-only across every Script constructed from it; adding entries after
// a Script exists is undefined per registry construction.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]*adapter
	modules   map[string]map[string]*adapter
	types     map[reflect.Type]*typeInfo
	loader    LoaderFunc
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		functions: make(map[string]*adapter),
		modules:   make(map[string]map[string]*adapter),
		types:     make(map[reflect.Type]*typeInfo),
	}
}

// AddFreeFunction registers callable as a global script function under
// name. callable may be a free function, a closure, or a bound method
// value. Duplicate names panic: registration violations are programming
// errors, not runtime-recoverable.
func (r *Registry) AddFreeFunction(name string, callable interface{}) {
	a, err := newAdapter(callable)
	if err != nil {
		panic(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.functions[name]; exists {
		panic(fmt.Sprintf("luaembed: duplicate free function %q", name))
	}
	r.functions[name] = a
}

// AddModuleFunction registers callable under name inside a require()-able
// module table.
func (r *Registry) AddModuleFunction(moduleName, name string, callable interface{}) {
	a, err := newAdapter(callable)
	if err != nil {
		panic(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	mod, ok := r.modules[moduleName]
	if !ok {
		mod = make(map[string]*adapter)
		r.modules[moduleName] = mod
	}
	if _, exists := mod[name]; exists {
		panic(fmt.Sprintf("luaembed: duplicate function %q in module %q", name, moduleName))
	}
	mod[name] = a
}

// TypeBuilder chains WithMethod and WithBase calls for a single native
// object type registration.
type TypeBuilder struct {
	reg  *Registry
	info *typeInfo
}

// AddObjectType registers a native object type for use in scripts, keyed
// by the type of samplePtr, which must be a nil pointer of the desired
// struct type, e.g. AddObjectType((*Account)(nil)).
func (r *Registry) AddObjectType(samplePtr interface{}) *TypeBuilder {
	t := reflect.TypeOf(samplePtr)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		panic("luaembed: AddObjectType requires a nil pointer to a struct type, e.g. (*T)(nil)")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[t]; exists {
		panic(fmt.Sprintf("luaembed: object type %s already registered", t))
	}
	info := &typeInfo{typ: t, methods: make(map[string]*adapter)}
	r.types[t] = info
	return &TypeBuilder{reg: r, info: info}
}

// WithMethod adds a method, given as a method expression such as
// (*Account).Deposit, whose first parameter is the declaring receiver
// type. A name already present on this type, whether added directly or
// inherited via WithBase, panics.
func (b *TypeBuilder) WithMethod(name string, method interface{}) *TypeBuilder {
	a, err := newMethodAdapter(method, b.info.typ)
	if err != nil {
		panic(err)
	}

	b.reg.mu.Lock()
	defer b.reg.mu.Unlock()
	if _, exists := b.info.methods[name]; exists {
		panic(fmt.Sprintf("luaembed: duplicate method %q on %s", name, b.info.typ))
	}
	b.info.methods[name] = a
	return b
}

// WithBase inherits every method currently registered on basePtr's type
// (which must already be registered) into this type's method table, each
// wrapped to down-cast the receiver from this type to the base type via
// cast. Go has no native object inheritance, so the host supplies the
// down-cast explicitly, the same shape as apolo's SharedPointerCaster.
func (b *TypeBuilder) WithBase(basePtr interface{}, cast func(interface{}) interface{}) *TypeBuilder {
	baseType := reflect.TypeOf(basePtr)

	b.reg.mu.Lock()
	defer b.reg.mu.Unlock()
	baseInfo, ok := b.reg.types[baseType]
	if !ok {
		panic(fmt.Sprintf("luaembed: base type %s is not registered", baseType))
	}
	for name, a := range baseInfo.methods {
		if _, exists := b.info.methods[name]; exists {
			panic(fmt.Sprintf("luaembed: duplicate method %q on %s", name, b.info.typ))
		}
		b.info.methods[name] = a.wrapInherited(b.info.typ, cast)
	}
	b.info.bases = append(b.info.bases, baseType)
	return b
}

func (r *Registry) getObjectType(t reflect.Type) (*typeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.types[t]
	return info, ok
}

// HasObjectType reports whether the type of samplePtr has been registered.
func (r *Registry) HasObjectType(samplePtr interface{}) bool {
	_, ok := r.getObjectType(reflect.TypeOf(samplePtr))
	return ok
}

// FunctionNames lists every registered free function name.
func (r *Registry) FunctionNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	return names
}

// SetLoader installs the require() fetcher used by every Script built from
// this registry that doesn't supply its own via Configuration.
func (r *Registry) SetLoader(loader LoaderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loader = loader
}

func (r *Registry) defaultLoader() LoaderFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loader
}
