package session

import (
	"strings"
	"testing"
)

func TestNewIDShape(t *testing.T) {
	id := NewID()
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		t.Fatalf("NewID() = %q, want three dash-separated parts", id)
	}
	if len(parts[0]) != 8 || len(parts[1]) != 6 || len(parts[2]) != 8 {
		t.Errorf("NewID() = %q, want 8-6-8 part lengths", id)
	}
	if !strings.HasPrefix(id, "20") {
		t.Errorf("NewID() = %q, want a 20xx timestamp prefix", id)
	}
}

func TestNewIDCollisions(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		id := NewID()
		if _, dup := seen[id]; dup {
			t.Fatalf("NewID() repeated %q within one second", id)
		}
		seen[id] = struct{}{}
	}
}

func TestShortID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"20260115-103000-a1b2c3d4", "260115-1030"},
		{"20251231-235959-00ff00ff", "251231-2359"},
		{"stub", "stub"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ShortID(tc.in); got != tc.want {
			t.Errorf("ShortID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
