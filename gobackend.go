package luaembed

import (
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// GoBackend runs scripts through yaegi, interpreting Go source directly
// rather than compiling it. Registered functions and values are published
// as yaegi symbols under a fixed package path rather than as interpreter
// globals, since yaegi has no bare-global registration surface.
type GoBackend struct {
	i       *interp.Interpreter
	symbols map[string]reflect.Value
	fns     map[string]reflect.Value
}

const goBackendSymbolPath = "luaembed/luaembed"

// NewGoBackend builds a fresh yaegi interpreter with the Go standard
// library symbols loaded.
func NewGoBackend() (*GoBackend, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, err
	}
	return &GoBackend{
		i:       i,
		symbols: make(map[string]reflect.Value),
		fns:     make(map[string]reflect.Value),
	}, nil
}

func (b *GoBackend) Run(source string) error {
	_, err := b.i.Eval(source)
	return err
}

func (b *GoBackend) RegisterFunction(name string, fn interface{}) {
	b.symbols[name] = reflect.ValueOf(fn)
	b.i.Use(map[string]map[string]reflect.Value{goBackendSymbolPath: b.symbols})
}

func (b *GoBackend) Call(name string, args ...interface{}) (interface{}, error) {
	f, ok := b.fns[name]
	if !ok {
		evaluated, err := b.i.Eval(name)
		if err != nil {
			return nil, err
		}
		f = evaluated
		b.fns[name] = f
	}

	params := make([]reflect.Value, len(args))
	for i, a := range args {
		params[i] = reflect.ValueOf(a)
	}
	rets := f.Call(params)
	if len(rets) == 0 {
		return nil, nil
	}
	return rets[0].Interface(), nil
}

func (b *GoBackend) Close() {}

var _ Backend = (*GoBackend)(nil)
