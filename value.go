package luaembed

import (
	"fmt"
	"reflect"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "floating"
	case KindString:
		return "string"
	case KindObject:
		return "object-ref"
	default:
		return "unknown"
	}
}

// ObjectRef identifies a native object that crossed into the script by
// reference. It carries no ownership over the referent; it exists only for
// identity comparison and printing.
type ObjectRef struct {
	typ  reflect.Type
	addr uintptr
}

func (o ObjectRef) Type() reflect.Type { return o.typ }

func (o ObjectRef) String() string {
	return fmt.Sprintf("%s: 0x%x", o.typ, o.addr)
}

func (o ObjectRef) equal(other ObjectRef) bool {
	return o.typ == other.typ && o.addr == other.addr
}

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type floating interface {
	~float32 | ~float64
}

// Value is a tagged union of the scalar kinds that can cross the script
// boundary, plus an identity-only reference to a native object.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	obj  ObjectRef
}

func Nil() Value { return Value{kind: KindNil} }

func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int constructs an integer Value from any integral Go type, widening it
// to the 64-bit storage used across the boundary.
func Int[T integer](v T) Value { return Value{kind: KindInt, i: int64(v)} }

// Float constructs a floating Value from any floating-point Go type,
// widening it to 64-bit storage.
func Float[T floating](v T) Value { return Value{kind: KindFloat, f: float64(v)} }

// String constructs a Value owning a copy of the given text.
func String(v string) Value { return Value{kind: KindString, s: v} }

func objectValue(ref ObjectRef) Value { return Value{kind: KindObject, obj: ref} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

// AsBool, AsInt, AsFloat, AsString and AsObject return the payload of their
// variant. On a Value of another Kind they return that type's zero value
// rather than failing, so callers that aren't sure of the Kind should branch
// on Kind() or use Visit first.
func (v Value) AsBool() bool { return v.b }
func (v Value) AsInt() int64 { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsString() string { return v.s }
func (v Value) AsObject() ObjectRef { return v.obj }

// Visitor holds one handler per Value variant. Visit calls exactly one,
// matching the Value's Kind. A nil handler for the matching Kind is a no-op.
type Visitor struct {
	Nil    func()
	Bool   func(bool)
	Int    func(int64)
	Float  func(float64)
	String func(string)
	Object func(ObjectRef)
}

func (v Value) Visit(vis Visitor) {
	switch v.kind {
	case KindNil:
		if vis.Nil != nil {
			vis.Nil()
		}
	case KindBool:
		if vis.Bool != nil {
			vis.Bool(v.b)
		}
	case KindInt:
		if vis.Int != nil {
			vis.Int(v.i)
		}
	case KindFloat:
		if vis.Float != nil {
			vis.Float(v.f)
		}
	case KindString:
		if vis.String != nil {
			vis.String(v.s)
		}
	case KindObject:
		if vis.Object != nil {
			vis.Object(v.obj)
		}
	}
}

// Equal reports structural equality between two Values. Values of different
// Kind are never equal; object-ref equality compares type identity and
// address, not referent contents.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindObject:
		return v.obj.equal(other.obj)
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindObject:
		return v.obj.String()
	}
	return "?"
}
