package luaembed

import (
	"errors"
	"reflect"

	lua "github.com/yuin/gopher-lua"
	luar "layeh.com/gopher-luar"
)

var argsType = reflect.TypeOf(Args{})
var errorType = reflect.TypeOf((*error)(nil)).Elem()
var valueType = reflect.TypeOf(Value{})

// adapter is the type-erased bridge object described in a registered native callable: it
// reads declared argument types from the stack, checks an object receiver
// if it's a method, applies the native callable, and pushes the result.
type adapter struct {
	fn           reflect.Value
	paramTypes   []reflect.Type
	variadic     bool
	isMethod     bool
	receiverType reflect.Type // expected Go pointer type on this metatable
	receiverCast func(interface{}) interface{}
	retKind      returnKind
}

type returnKind int

const (
	retNone returnKind = iota
	retValue
	retValueAndError
	retErrorOnly
)

// newAdapter builds an adapter for a free function. fn must be a Go func
// value; its signature is reflected to determine argument kinds.
func newAdapter(fn interface{}) (*adapter, error) {
	return newAdapterFor(fn, false, nil, nil)
}

// newMethodAdapter builds an adapter for a method expression such as
// (*Base).Foo, whose first parameter is the receiver.
func newMethodAdapter(fn interface{}, receiverType reflect.Type) (*adapter, error) {
	return newAdapterFor(fn, true, receiverType, identityCast)
}

func identityCast(v interface{}) interface{} { return v }

func newAdapterFor(fn interface{}, isMethod bool, receiverType reflect.Type, cast func(interface{}) interface{}) (*adapter, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, errors.New("luaembed: registered value is not a function")
	}
	ft := fv.Type()

	start := 0
	if isMethod {
		start = 1
		if ft.NumIn() < 1 || ft.In(0) != receiverType {
			return nil, errors.New("luaembed: method's first parameter must be the declaring receiver type")
		}
	}

	params := make([]reflect.Type, 0, ft.NumIn()-start)
	variadic := false
	for i := start; i < ft.NumIn(); i++ {
		pt := ft.In(i)
		if pt == argsType {
			if i != ft.NumIn()-1 {
				return nil, errors.New("luaembed: the open sequence argument must be last")
			}
			variadic = true
			continue
		}
		if err := validateParamType(pt); err != nil {
			return nil, err
		}
		params = append(params, pt)
	}

	retKind, err := classifyReturn(ft)
	if err != nil {
		return nil, err
	}

	return &adapter{
		fn:           fv,
		paramTypes:   params,
		variadic:     variadic,
		isMethod:     isMethod,
		receiverType: receiverType,
		receiverCast: cast,
		retKind:      retKind,
	}, nil
}

func validateParamType(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	}
	if t == valueType {
		return nil
	}
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct {
		return nil
	}
	return errors.New("luaembed: unsupported parameter type " + t.String())
}

func classifyReturn(ft reflect.Type) (returnKind, error) {
	switch ft.NumOut() {
	case 0:
		return retNone, nil
	case 1:
		if ft.Out(0) == errorType {
			return retErrorOnly, nil
		}
		return retValue, nil
	case 2:
		if ft.Out(1) != errorType {
			return 0, errors.New("luaembed: a two-value return must end in error")
		}
		return retValueAndError, nil
	default:
		return 0, errors.New("luaembed: at most one return value (plus an optional error) is supported")
	}
}

// wrapInherited copies an adapter registered on a base type into a derived
// type's method table, composing the receiver down-cast so the copy reads
// its receiver as the derived reference and converts it to the base's
// expected type before delegating.
func (a *adapter) wrapInherited(derivedType reflect.Type, cast func(interface{}) interface{}) *adapter {
	outer := *a
	outer.receiverType = derivedType
	prev := a.receiverCast
	outer.receiverCast = func(v interface{}) interface{} {
		return prev(cast(v))
	}
	return &outer
}

// invoke reads arguments from the stack (for a method, starting at slot 2;
// for a free function, starting at slot 1), applies the native callable,
// and pushes at most one return value. It returns the number of values
// pushed.
func (a *adapter) invoke(L *lua.LState, reg *Registry, bridge *objectBridge) (int, error) {
	first := 1
	var args []reflect.Value

	if a.isMethod {
		ud, ok := L.Get(1).(*lua.LUserData)
		if !ok {
			return 0, errors.New("wrong arguments to function")
		}
		ref, ok := ud.Value.(SharedRef)
		if !ok || ref.goType() != a.receiverType {
			return 0, errors.New("wrong arguments to function")
		}
		receiver := a.receiverCast(ref.value())
		args = append(args, reflect.ValueOf(receiver))
		first = 2
	}

	if !a.variadic {
		if err := readArguments(L, first, len(a.paramTypes)); err != nil {
			return 0, err
		}
	} else if got := L.GetTop() - first + 1; got < len(a.paramTypes) {
		return 0, errors.New("insufficient arguments to function")
	}

	idx := first
	for _, pt := range a.paramTypes {
		arg, err := readArgumentAs(L, idx, pt, reg, bridge)
		if err != nil {
			return 0, err
		}
		args = append(args, arg)
		idx++
	}
	if a.variadic {
		tail, err := readVariadicTail(L, idx)
		if err != nil {
			return 0, err
		}
		args = append(args, reflect.ValueOf(Args(tail)))
	}

	out := a.fn.Call(args)
	return a.pushResult(L, reg, bridge, out)
}

func readArgumentAs(L *lua.LState, idx int, pt reflect.Type, reg *Registry, bridge *objectBridge) (reflect.Value, error) {
	if pt == valueType {
		v, err := readValue(L, idx)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(v), nil
	}
	switch pt.Kind() {
	case reflect.Bool:
		b, err := readAsBool(L, idx)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil
	case reflect.String:
		s, err := readAsString(L, idx)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := readAsInt(L, idx)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(i).Convert(pt), nil
	case reflect.Float32, reflect.Float64:
		f, err := readAsFloat(L, idx)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(f).Convert(pt), nil
	case reflect.Ptr:
		if tbl, ok := L.Get(idx).(*lua.LTable); ok {
			return decodeTable(tbl, pt)
		}
		ref, err := bridge.read(L, idx, reg, pt)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(ref), nil
	}
	return reflect.Value{}, errors.New("wrong arguments to function")
}

func (a *adapter) pushResult(L *lua.LState, reg *Registry, bridge *objectBridge, out []reflect.Value) (int, error) {
	switch a.retKind {
	case retNone:
		return 0, nil
	case retErrorOnly:
		if err, _ := out[0].Interface().(error); err != nil {
			return 0, err
		}
		return 0, nil
	case retValueAndError:
		if err, _ := out[1].Interface().(error); err != nil {
			return 0, err
		}
		return pushNative(L, reg, bridge, out[0])
	case retValue:
		return pushNative(L, reg, bridge, out[0])
	}
	return 0, nil
}

func pushNative(L *lua.LState, reg *Registry, bridge *objectBridge, rv reflect.Value) (int, error) {
	if ref, ok := rv.Interface().(SharedRef); ok {
		if err := bridge.push(L, reg, ref); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err := bridge.cfg.charge(1); err != nil {
		return 0, newMemoryError(bridge.scriptName, err.Error())
	}
	if rv.Type() == valueType {
		pushValue(L, rv.Interface().(Value))
		return 1, nil
	}
	switch rv.Kind() {
	case reflect.Bool:
		pushValue(L, Bool(rv.Bool()))
	case reflect.String:
		pushValue(L, String(rv.String()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		pushValue(L, Int(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		pushValue(L, Int(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		pushValue(L, Float(rv.Float()))
	default:
		// Slices, maps, and nested structs fall outside the typed Value
		// variants and aren't registered object types; gopher-luar mirrors
		// them into a reflection-backed Lua proxy rather than rejecting the
		// return outright.
		L.Push(luar.New(L, rv.Interface()))
	}
	return 1, nil
}

// trampoline wraps invoke, catching native failures so they become
// script-visible errors: the failure's textual reason is pushed onto the
// stack and the runtime's error primitive is triggered.
func trampoline(a *adapter, reg *Registry, bridge *objectBridge) lua.LGFunction {
	return func(L *lua.LState) int {
		n, err := a.invoke(L, reg, bridge)
		if err != nil {
			if me, ok := err.(*MemoryError); ok {
				raiseMemoryError(L, me.reason)
				return 0
			}
			L.RaiseError("%s", errorReason(err))
			return 0
		}
		return n
	}
}

func errorReason(err error) string {
	if re, ok := err.(*RuntimeError); ok {
		return re.reason
	}
	return err.Error()
}
