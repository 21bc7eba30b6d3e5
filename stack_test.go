package luaembed

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestReadValueRoundTripsScalars(t *testing.T) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	L.Push(lua.LNumber(3))
	L.Push(lua.LString("hi"))
	L.Push(lua.LBool(true))
	L.Push(lua.LNil)

	if v, err := readValue(L, 1); err != nil || v.Kind() != KindInt || v.AsInt() != 3 {
		t.Fatalf("expected integer 3, got %v, %v", v, err)
	}
	if v, err := readValue(L, 2); err != nil || v.Kind() != KindString || v.AsString() != "hi" {
		t.Fatalf("expected string %q, got %v, %v", "hi", v, err)
	}
	if v, err := readValue(L, 3); err != nil || v.Kind() != KindBool || !v.AsBool() {
		t.Fatalf("expected boolean true, got %v, %v", v, err)
	}
	if v, err := readValue(L, 4); err != nil || v.Kind() != KindNil {
		t.Fatalf("expected nil, got %v, %v", v, err)
	}
}

func TestReadArgumentsDistinguishesTooFewFromTooMany(t *testing.T) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	L.Push(lua.LNumber(1))
	tooFew := readArguments(L, 1, 2)
	if tooFew == nil {
		t.Fatalf("expected an error for too few arguments")
	}

	L.Push(lua.LNumber(2))
	L.Push(lua.LNumber(3))
	tooMany := readArguments(L, 1, 2)
	if tooMany == nil {
		t.Fatalf("expected an error for too many arguments")
	}
	if tooFew.Error() == tooMany.Error() {
		t.Fatalf("expected distinct errors for too few and too many arguments, both were %q", tooFew.Error())
	}
}

func TestReadVariadicTailCollectsEverythingFromFirstIndex(t *testing.T) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	L.Push(lua.LString("ignored"))
	L.Push(lua.LNumber(1))
	L.Push(lua.LNumber(2))
	L.Push(lua.LString("three"))

	tail, err := readVariadicTail(L, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tail) != 3 {
		t.Fatalf("expected 3 values in the tail, got %d", len(tail))
	}
	if tail[0].AsInt() != 1 || tail[1].AsInt() != 2 || tail[2].AsString() != "three" {
		t.Fatalf("unexpected tail contents: %v", tail)
	}
}
