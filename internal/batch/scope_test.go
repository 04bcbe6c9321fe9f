package batch

import (
	"testing"

	"pgregory.net/rapid"
)

func TestAdaptScopeHalvesOnExhaustion(t *testing.T) {
	cases := []struct {
		name      string
		exhausted bool
		scope     int
		orig      int
		want      int
	}{
		{"clean run restores baseline", false, 50, 100, 100},
		{"clean run at baseline stays", false, 100, 100, 100},
		{"exhaustion halves above floor", true, 100, 100, 50},
		{"exhaustion halves odd scope", true, 51, 100, 25},
		{"exhaustion at floor holds", true, 25, 100, 25},
		{"exhaustion below floor holds", true, 10, 100, 10},
		{"exhaustion just above floor", true, 26, 100, 13},
		{"clean run restores small baseline", false, 25, 40, 40},
	}

	for _, tc := range cases {
		got := AdaptScope(tc.exhausted, tc.scope, tc.orig)
		if got != tc.want {
			t.Errorf("%s: AdaptScope(%t, %d, %d) = %d, want %d",
				tc.name, tc.exhausted, tc.scope, tc.orig, got, tc.want)
		}
	}
}

func TestAdaptScopeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		scope := rapid.IntRange(1, 100000).Draw(t, "scope")
		orig := rapid.IntRange(1, 100000).Draw(t, "orig")

		clean := AdaptScope(false, scope, orig)
		if clean != orig {
			t.Fatalf("clean generation must restore baseline: got %d, want %d", clean, orig)
		}

		shrunk := AdaptScope(true, scope, orig)
		if shrunk > scope {
			t.Fatalf("exhaustion must never grow scope: %d -> %d", scope, shrunk)
		}
		if scope > ScopeFloor && shrunk != scope/2 {
			t.Fatalf("above the floor exhaustion halves: %d -> %d", scope, shrunk)
		}
		if scope <= ScopeFloor && shrunk != scope {
			t.Fatalf("at or below the floor scope holds: %d -> %d", scope, shrunk)
		}
	})
}

func TestAdaptScopeConvergesToFloor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		scope := rapid.IntRange(ScopeFloor, 100000).Draw(t, "scope")

		// Sustained exhaustion must reach a fixed point at or below the
		// floor in a bounded number of generations.
		for i := 0; i < 64; i++ {
			next := AdaptScope(true, scope, scope)
			if next == scope {
				if scope > ScopeFloor {
					t.Fatalf("fixed point %d above floor %d", scope, ScopeFloor)
				}
				return
			}
			scope = next
		}
		t.Fatalf("no fixed point reached, ended at %d", scope)
	})
}
