package luaembed

import "testing"

func TestJSBackendRegisterAndCall(t *testing.T) {
	b := NewJSBackend()
	defer b.Close()

	b.RegisterFunction("double", func(n int) int { return n * 2 })
	if err := b.Run(`function run() { return double(21); }`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := b.Call("run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := result.(int64)
	if !ok {
		if f, ok2 := result.(float64); ok2 {
			n = int64(f)
		} else {
			t.Fatalf("unexpected result type %T: %v", result, result)
		}
	}
	if n != 42 {
		t.Fatalf("expected 42, got %v", n)
	}
}

func TestGoBackendEvaluatesExpression(t *testing.T) {
	b, err := NewGoBackend()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer b.Close()

	if err := b.Run(`2 + 2`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
