package luaembed

import (
	"reflect"
	"testing"
)

func TestAddFreeFunctionRejectsMisplacedVariadicTail(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic: Args must be the last parameter")
		}
	}()
	reg := NewRegistry()
	reg.AddFreeFunction("bad", func(a Args, b int) {})
}

func TestAddFreeFunctionRejectsUnsupportedParamType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic: unsupported parameter type")
		}
	}()
	reg := NewRegistry()
	reg.AddFreeFunction("bad", func(ch chan int) {})
}

func TestAddFreeFunctionRejectsDuplicateNames(t *testing.T) {
	reg := NewRegistry()
	reg.AddFreeFunction("once", func() {})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	reg.AddFreeFunction("once", func() {})
}

type base struct{ tag string }

func (b *base) Tag() string { return b.tag }

type derived struct {
	base
	extra int
}

func TestWithBaseCopiesInheritedMethods(t *testing.T) {
	reg := NewRegistry()
	reg.AddObjectType((*base)(nil)).WithMethod("tag", (*base).Tag)
	reg.AddObjectType((*derived)(nil)).WithBase((*base)(nil), func(v interface{}) interface{} {
		return &v.(*derived).base
	})

	info, ok := reg.getObjectType(reflect.TypeOf((*derived)(nil)))
	if !ok {
		t.Fatalf("derived type not registered")
	}
	if _, ok := info.allMethods()["tag"]; !ok {
		t.Fatalf("expected inherited method %q to be present on derived type", "tag")
	}
}

func TestWithBaseRejectsUnregisteredBase(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic: base type not registered")
		}
	}()
	reg := NewRegistry()
	reg.AddObjectType((*derived)(nil)).WithBase((*base)(nil), func(v interface{}) interface{} { return v })
}
