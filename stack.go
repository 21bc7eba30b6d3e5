package luaembed

import (
	"reflect"

	lua "github.com/yuin/gopher-lua"
)

// Args is the open sequence variant: when it is the last declared parameter
// type of a registered callable, it absorbs every remaining stack slot.
type Args []Value

// readValue inspects the runtime's kind tag at the given stack slot and
// returns the matching Value variant. Any other slot kind fails.
func readValue(L *lua.LState, idx int) (Value, error) {
	return valueFromLValue(L.Get(idx))
}

// valueFromLValue converts a runtime value already in hand (not necessarily
// on a stack slot, e.g. a coroutine's return value) to a Value. A user-data
// slot becomes an identity-only object-ref: see the Value variants, object-refs
// carry no ownership on their own.
func valueFromLValue(lv lua.LValue) (Value, error) {
	switch lv.Type() {
	case lua.LTNil:
		return Nil(), nil
	case lua.LTBool:
		return Bool(bool(lv.(lua.LBool))), nil
	case lua.LTNumber:
		n := float64(lv.(lua.LNumber))
		if n == float64(int64(n)) {
			return Int(int64(n)), nil
		}
		return Float(n), nil
	case lua.LTString:
		return String(string(lv.(lua.LString))), nil
	case lua.LTUserData:
		ud := lv.(*lua.LUserData)
		ref, ok := ud.Value.(SharedRef)
		if !ok {
			return Value{}, newRuntimeError("", "wrong arguments to function")
		}
		return objectValue(ObjectRef{typ: ref.goType(), addr: reflect.ValueOf(ref.value()).Pointer()}), nil
	default:
		return Value{}, newRuntimeError("", "wrong arguments to function")
	}
}

// valueToLValue maps a scalar Value back to a runtime primitive. Object-refs
// are not representable since a bare Value carries no ownership; callers
// that need to pass a native object use a SharedRef directly instead.
func valueToLValue(v Value) lua.LValue {
	switch v.kind {
	case KindBool:
		return lua.LBool(v.b)
	case KindInt:
		return lua.LNumber(v.i)
	case KindFloat:
		return lua.LNumber(v.f)
	case KindString:
		return lua.LString(v.s)
	default:
		return lua.LNil
	}
}

// readAsInt is strict: only number-shaped slots are accepted, truncated via
// a numeric cast. No string coercion.
func readAsInt(L *lua.LState, idx int) (int64, error) {
	lv := L.Get(idx)
	n, ok := lv.(lua.LNumber)
	if !ok {
		return 0, newRuntimeError("", "wrong arguments to function")
	}
	return int64(n), nil
}

// readAsFloat is strict: only number-shaped slots are accepted.
func readAsFloat(L *lua.LState, idx int) (float64, error) {
	lv := L.Get(idx)
	n, ok := lv.(lua.LNumber)
	if !ok {
		return 0, newRuntimeError("", "wrong arguments to function")
	}
	return float64(n), nil
}

// readAsString is strict: only string-shaped slots are accepted.
func readAsString(L *lua.LState, idx int) (string, error) {
	lv := L.Get(idx)
	s, ok := lv.(lua.LString)
	if !ok {
		return "", newRuntimeError("", "wrong arguments to function")
	}
	return string(s), nil
}

func readAsBool(L *lua.LState, idx int) (bool, error) {
	lv := L.Get(idx)
	b, ok := lv.(lua.LBool)
	if !ok {
		return false, newRuntimeError("", "wrong arguments to function")
	}
	return bool(b), nil
}

// pushValue maps a Value variant to the matching runtime primitive push.
// Integer values always push through the integer-shaped path; object-refs
// are not pushable from a bare Value since it carries no ownership (see
// objectBridge.push for pushing native references).
func pushValue(L *lua.LState, v Value) {
	switch v.kind {
	case KindNil:
		L.Push(lua.LNil)
	case KindBool:
		L.Push(lua.LBool(v.b))
	case KindInt:
		L.Push(lua.LNumber(v.i))
	case KindFloat:
		L.Push(lua.LNumber(v.f))
	case KindString:
		L.Push(lua.LString(v.s))
	case KindObject:
		L.Push(lua.LNil)
	}
}

// widenNumeric converts any Go integer or floating-point value to a runtime
// number, for host-supplied Script.Call arguments whose static type isn't
// known until reflected on.
func widenNumeric(arg interface{}) (lua.LValue, error) {
	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float()), nil
	default:
		return nil, newRuntimeError("", "unsupported argument type "+rv.Kind().String())
	}
}

// readArguments reads count positional arguments starting at firstIndex and
// fails with a runtime error distinguishing too-few from too-many when the
// stack doesn't have exactly count arguments above firstIndex-1.
func readArguments(L *lua.LState, firstIndex, count int) error {
	top := L.GetTop()
	got := top - firstIndex + 1
	if got < count {
		return newRuntimeError("", "insufficient arguments to function")
	}
	if got > count {
		return newRuntimeError("", "wrong arguments to function")
	}
	return nil
}

// readVariadicTail reads every stack slot from firstIndex to the top as
// generic Values, for a callable whose last declared parameter is Args.
func readVariadicTail(L *lua.LState, firstIndex int) (Args, error) {
	top := L.GetTop()
	tail := make(Args, 0, top-firstIndex+1)
	for i := firstIndex; i <= top; i++ {
		v, err := readValue(L, i)
		if err != nil {
			return nil, err
		}
		tail = append(tail, v)
	}
	return tail, nil
}
