package luaembed

import (
	"errors"
	"testing"
)

func TestRequireLoadsALibraryExactlyOnce(t *testing.T) {
	loads := 0
	cfg := NewConfiguration(WithLoader(func(name string) ([]byte, error) {
		loads++
		return []byte(`loadedCount = (loadedCount or 0) + 1`), nil
	}))

	s, err := NewScript("main.lua", []byte(`
		function run()
			require("util")
			require("util")
			require(" util ")
			return loadedCount
		end
	`), nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	v, err := s.Call("run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loads != 1 {
		t.Fatalf("expected the loader to run exactly once, ran %d times", loads)
	}
	if v.AsInt() != 1 {
		t.Fatalf("expected the library body to execute exactly once, got %v", v)
	}
}

func TestRequireRejectsEmptyName(t *testing.T) {
	cfg := NewConfiguration(WithLoader(func(name string) ([]byte, error) {
		return nil, nil
	}))
	s, err := NewScript("main.lua", []byte(`
		function run()
			require("   ")
		end
	`), nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if _, err := s.Call("run"); err == nil {
		t.Fatalf("expected an error for a blank require() name")
	}
}

func TestRequireWithNoLoaderConfiguredFails(t *testing.T) {
	s, err := NewScript("main.lua", []byte(`
		function run()
			require("anything")
		end
	`), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if _, err := s.Call("run"); err == nil {
		t.Fatalf("expected an error when no loader is configured")
	}
}

func TestRequireDeniedByMemoryHookSurfacesAsMemoryError(t *testing.T) {
	cfg := NewConfiguration(
		WithLoader(func(name string) ([]byte, error) {
			return []byte(``), nil
		}),
		WithMemoryHook(func(n int) error {
			return errors.New("budget exceeded")
		}),
	)
	s, err := NewScript("main.lua", []byte(`
		function run()
			require("util")
		end
	`), nil, cfg)
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

func TestRequireAllowsSelfReferentialRecursion(t *testing.T) {
	cfg := NewConfiguration(WithLoader(func(name string) ([]byte, error) {
		return []byte(`require("self"); selfLoaded = true`), nil
	}))
	s, err := NewScript("main.lua", []byte(`
		function run()
			require("self")
			return selfLoaded
		end
	`), nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	v, err := s.Call("run")
	if err != nil {
		t.Fatalf("recursive require must not deadlock or loop: %v", err)
	}
	if v.Kind() != KindBool || !v.AsBool() {
		t.Fatalf("expected selfLoaded to be true, got %v", v)
	}
}
