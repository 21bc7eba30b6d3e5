package luaembed

import "testing"

func TestSharedStrongCountTracksRetainRelease(t *testing.T) {
	type widget struct{ n int }
	s := NewShared(&widget{n: 1})
	if s.StrongCount() != 1 {
		t.Fatalf("expected initial strong count 1, got %d", s.StrongCount())
	}

	dup := s.retain()
	if s.StrongCount() != 2 {
		t.Fatalf("expected strong count 2 after retain, got %d", s.StrongCount())
	}

	dup.release()
	if s.StrongCount() != 1 {
		t.Fatalf("expected strong count 1 after release, got %d", s.StrongCount())
	}
}

func TestObjectBridgePushRejectsUnregisteredType(t *testing.T) {
	type widget struct{}
	reg := NewRegistry()
	br := newObjectBridge(nil, "probe.lua")
	ref := NewShared(&widget{})

	if err := br.push(nil, reg, ref); err == nil {
		t.Fatalf("expected error pushing a reference whose type was never registered")
	}
}
