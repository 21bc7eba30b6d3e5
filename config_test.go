package luaembed

import (
	"errors"
	"testing"
)

func TestMemoryHookDeniesAllocation(t *testing.T) {
	cfg := NewConfiguration(WithMemoryHook(func(n int) error {
		return errors.New("budget exceeded")
	}))
	if err := cfg.charge(1); err == nil {
		t.Fatalf("expected the configured memory hook to deny the charge")
	}
}

func TestNilConfigurationChargeIsANoop(t *testing.T) {
	var cfg *Configuration
	if err := cfg.charge(100); err != nil {
		t.Fatalf("unexpected error from a nil configuration: %v", err)
	}
}

func TestMemoryHookDenialSurfacesAsMemoryErrorPushingAnObjectReference(t *testing.T) {
	type widget struct{ n int }
	reg := NewRegistry()
	reg.AddObjectType((*widget)(nil))
	reg.AddFreeFunction("makeWidget", func() SharedRef { return NewShared(&widget{n: 1}) })

	cfg := NewConfiguration(WithMemoryHook(func(n int) error {
		return errors.New("budget exceeded")
	}))

	s, err := NewScript("makes_widget.lua", []byte(`
		function run()
			return makeWidget()
		end
	`), reg, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if _, err := s.Call("run"); err == nil {
		t.Fatalf("expected the memory hook's denial to surface")
	} else if _, ok := err.(*MemoryError); !ok {
		t.Fatalf("expected *MemoryError, got %T: %v", err, err)
	}
}

func TestMemoryHookDenialSurfacesAsMemoryErrorOnScalarReturn(t *testing.T) {
	reg := NewRegistry()
	reg.AddFreeFunction("answer", func() int64 { return 42 })

	cfg := NewConfiguration(WithMemoryHook(func(n int) error {
		return errors.New("budget exceeded")
	}))

	s, err := NewScript("uses_native.lua", []byte(`
		function run()
			return answer()
		end
	`), reg, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if _, err := s.Call("run"); err == nil {
		t.Fatalf("expected the memory hook's denial to surface")
	} else if _, ok := err.(*MemoryError); !ok {
		t.Fatalf("expected *MemoryError, got %T: %v", err, err)
	}
}
