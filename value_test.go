package luaembed

import "testing"

func TestValueEqualAcrossKinds(t *testing.T) {
	if Int(1).Equal(Float(1.0)) {
		t.Fatalf("values of different kinds must never compare equal")
	}
	if !Int(3).Equal(Int(3)) {
		t.Fatalf("equal integers must compare equal")
	}
	if !Nil().Equal(Nil()) {
		t.Fatalf("nil must equal nil")
	}
}

func TestValueVisitCallsExactlyOneHandler(t *testing.T) {
	calls := 0
	String("hi").Visit(Visitor{
		Nil:    func() { calls++ },
		Bool:   func(bool) { calls++ },
		Int:    func(int64) { calls++ },
		Float:  func(float64) { calls++ },
		String: func(s string) { calls++; if s != "hi" { t.Fatalf("got %q", s) } },
		Object: func(ObjectRef) { calls++ },
	})
	if calls != 1 {
		t.Fatalf("expected exactly one handler invoked, got %d", calls)
	}
}

func TestIntWidensAnyIntegralType(t *testing.T) {
	var n int32 = 7
	v := Int(n)
	if v.Kind() != KindInt || v.AsInt() != 7 {
		t.Fatalf("expected widened int value, got %v", v)
	}
}

func TestObjectRefIdentityOnly(t *testing.T) {
	type widget struct{}
	w := &widget{}
	a := objectValue(ObjectRef{typ: nil, addr: 1})
	b := objectValue(ObjectRef{typ: nil, addr: 1})
	if !a.Equal(b) {
		t.Fatalf("object-refs with the same type and address must compare equal")
	}
	_ = w
}
