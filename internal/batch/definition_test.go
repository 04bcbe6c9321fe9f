package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestNewDefinitionDefaults(t *testing.T) {
	def, err := NewDefinition("refresh")
	if err != nil {
		t.Fatalf("NewDefinition: %v", err)
	}
	if def.Name() != "refresh" {
		t.Errorf("Name = %q, want refresh", def.Name())
	}
	if !def.RunForever() {
		t.Error("RunForever should default to true")
	}
	if def.DelayBeforeNextRun() != 60 {
		t.Errorf("DelayBeforeNextRun = %d, want 60", def.DelayBeforeNextRun())
	}
	if def.ScopeSize() != 100 {
		t.Errorf("ScopeSize = %d, want 100", def.ScopeSize())
	}
	if def.EligibilityWindow() != 0 {
		t.Errorf("EligibilityWindow = %v, want 0", def.EligibilityWindow())
	}
}

func TestNewDefinitionRejectsBlankName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := NewDefinition(name); !errors.Is(err, ErrConfiguration) {
			t.Errorf("NewDefinition(%q) err = %v, want ErrConfiguration", name, err)
		}
	}
}

func TestSettersRejectNil(t *testing.T) {
	def, err := NewDefinition("refresh")
	if err != nil {
		t.Fatalf("NewDefinition: %v", err)
	}

	if err := def.SetRunForever(nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("SetRunForever(nil) err = %v, want ErrConfiguration", err)
	}
	if err := def.SetDelayBeforeNextRun(nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("SetDelayBeforeNextRun(nil) err = %v, want ErrConfiguration", err)
	}
	if err := def.SetScopeSize(nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("SetScopeSize(nil) err = %v, want ErrConfiguration", err)
	}

	// Failed setters must leave the definition untouched.
	if !def.RunForever() || def.DelayBeforeNextRun() != 60 || def.ScopeSize() != 100 {
		t.Error("failed setters mutated the definition")
	}
}

func TestSettersClampToOne(t *testing.T) {
	def, err := NewDefinition("refresh")
	if err != nil {
		t.Fatalf("NewDefinition: %v", err)
	}

	for _, v := range []int{-100, -1, 0} {
		if err := def.SetScopeSize(intPtr(v)); err != nil {
			t.Fatalf("SetScopeSize(%d): %v", v, err)
		}
		if def.ScopeSize() != 1 {
			t.Errorf("ScopeSize after Set(%d) = %d, want 1", v, def.ScopeSize())
		}
		if err := def.SetDelayBeforeNextRun(intPtr(v)); err != nil {
			t.Fatalf("SetDelayBeforeNextRun(%d): %v", v, err)
		}
		if def.DelayBeforeNextRun() != 1 {
			t.Errorf("DelayBeforeNextRun after Set(%d) = %d, want 1", v, def.DelayBeforeNextRun())
		}
	}

	if err := def.SetScopeSize(intPtr(250)); err != nil {
		t.Fatalf("SetScopeSize(250): %v", err)
	}
	if def.ScopeSize() != 250 {
		t.Errorf("ScopeSize = %d, want 250", def.ScopeSize())
	}
}

func TestSetterClampProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		def, err := NewDefinition("refresh")
		if err != nil {
			t.Fatalf("NewDefinition: %v", err)
		}

		v := rapid.IntRange(-100000, 100000).Draw(t, "value")
		want := v
		if want < 1 {
			want = 1
		}

		if err := def.SetScopeSize(&v); err != nil {
			t.Fatalf("SetScopeSize(%d): %v", v, err)
		}
		if def.ScopeSize() != want {
			t.Fatalf("ScopeSize = %d, want %d", def.ScopeSize(), want)
		}
		if err := def.SetDelayBeforeNextRun(&v); err != nil {
			t.Fatalf("SetDelayBeforeNextRun(%d): %v", v, err)
		}
		if def.DelayBeforeNextRun() != want {
			t.Fatalf("DelayBeforeNextRun = %d, want %d", def.DelayBeforeNextRun(), want)
		}
	})
}

func TestSetEligibilityWindowClampsNegative(t *testing.T) {
	def, err := NewDefinition("refresh")
	if err != nil {
		t.Fatalf("NewDefinition: %v", err)
	}

	def.SetEligibilityWindow(-time.Minute)
	if def.EligibilityWindow() != 0 {
		t.Errorf("EligibilityWindow = %v, want 0", def.EligibilityWindow())
	}
	def.SetEligibilityWindow(5 * time.Second)
	if def.EligibilityWindow() != 5*time.Second {
		t.Errorf("EligibilityWindow = %v, want 5s", def.EligibilityWindow())
	}
}

type namedProcessor struct {
	name string
}

func (p *namedProcessor) Process(ctx context.Context, targetIDs []string) error { return nil }
func (p *namedProcessor) ScheduledName() string                                 { return p.name }

func TestScheduledNameResolution(t *testing.T) {
	def, err := NewDefinition("refresh")
	if err != nil {
		t.Fatalf("NewDefinition: %v", err)
	}
	plain := ProcessorFunc(func(ctx context.Context, targetIDs []string) error { return nil })

	if got := def.ScheduledName(plain); got != "refresh" {
		t.Errorf("default scheduled name = %q, want refresh", got)
	}

	def.SetScheduledName("refresh-nightly")
	if got := def.ScheduledName(plain); got != "refresh-nightly" {
		t.Errorf("override scheduled name = %q, want refresh-nightly", got)
	}

	// A processor-provided name wins over the definition override.
	if got := def.ScheduledName(&namedProcessor{name: "refresh-hot"}); got != "refresh-hot" {
		t.Errorf("processor scheduled name = %q, want refresh-hot", got)
	}

	// A blank processor name falls back to the override.
	if got := def.ScheduledName(&namedProcessor{name: "  "}); got != "refresh-nightly" {
		t.Errorf("blank processor name resolved to %q, want refresh-nightly", got)
	}

	def.SetScheduledName("")
	if got := def.ScheduledName(plain); got != "refresh" {
		t.Errorf("cleared override resolved to %q, want refresh", got)
	}
}
