package luaembed

import (
	"fmt"
	"reflect"

	"github.com/robertkrimen/otto"
)

// JSBackend runs scripts through otto, a pure-Go ECMAScript interpreter.
// RegisterFunction does its own reflect-based argument marshalling rather
// than relying on otto's automatic wrapping, so a native panic inside the
// registered function becomes a returned error instead of propagating
// through the interpreter.
type JSBackend struct {
	vm *otto.Otto
}

// NewJSBackend builds a fresh otto runtime with nothing registered.
func NewJSBackend() *JSBackend {
	return &JSBackend{vm: otto.New()}
}

func (b *JSBackend) Run(source string) error {
	_, err := b.vm.Run(source)
	return err
}

func (b *JSBackend) RegisterFunction(name string, fn interface{}) {
	goFuncVal := reflect.ValueOf(fn)
	if goFuncVal.Kind() != reflect.Func {
		panic("luaembed: RegisterFunction requires a function value")
	}
	fnType := goFuncVal.Type()
	paramsNum := fnType.NumIn()

	b.vm.Set(name, func(call otto.FunctionCall) otto.Value {
		defer func() {
			if r := recover(); r != nil {
				panic(b.vm.MakeCustomError("GoError", fmt.Sprint(r)))
			}
		}()
		in := make([]reflect.Value, paramsNum)
		for i := 0; i < paramsNum; i++ {
			exported, err := call.Argument(i).Export()
			if err != nil {
				panic(err)
			}
			arg := reflect.ValueOf(exported)
			if !arg.IsValid() {
				arg = reflect.Zero(fnType.In(i))
			} else if arg.Type().ConvertibleTo(fnType.In(i)) {
				arg = arg.Convert(fnType.In(i))
			}
			in[i] = arg
		}
		rets := goFuncVal.Call(in)
		if len(rets) == 0 {
			return otto.NullValue()
		}
		result, _ := b.vm.ToValue(rets[0].Interface())
		return result
	})
}

func (b *JSBackend) Call(name string, args ...interface{}) (interface{}, error) {
	value, err := b.vm.Call(name, nil, args...)
	if err != nil {
		return nil, err
	}
	return value.Export()
}

func (b *JSBackend) Close() {}

var _ Backend = (*JSBackend)(nil)
