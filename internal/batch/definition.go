package batch

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultScopeSize  = 100
	defaultDelayTicks = 60
	defaultRunForever = true
)

// Definition holds the durable configuration of one job type. Generations
// copy it by value so no two generations share mutable state.
type Definition struct {
	name              string
	runForever        bool
	delayTicks        int
	scopeSize         int
	eligibilityWindow time.Duration
	scheduledName     string
}

// NewDefinition returns a job definition with repository defaults: run
// forever, scope 100, one generation per 60 ticks.
func NewDefinition(name string) (Definition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Definition{}, fmt.Errorf("%w: job name must not be empty", ErrConfiguration)
	}
	return Definition{
		name:       name,
		runForever: defaultRunForever,
		delayTicks: defaultDelayTicks,
		scopeSize:  defaultScopeSize,
	}, nil
}

// Name returns the job name, which doubles as the backlog queue name.
func (d *Definition) Name() string { return d.name }

// RunForever reports whether the chain continues after each generation.
func (d *Definition) RunForever() bool { return d.runForever }

// DelayBeforeNextRun returns the inter-generation delay in ticks (seconds).
func (d *Definition) DelayBeforeNextRun() int { return d.delayTicks }

// ScopeSize returns the baseline chunk-size target.
func (d *Definition) ScopeSize() int { return d.scopeSize }

// EligibilityWindow returns the minimum item age before selection.
func (d *Definition) EligibilityWindow() time.Duration { return d.eligibilityWindow }

// SetRunForever controls whether the chain reschedules after Complete. A
// nil value fails with ErrConfiguration.
func (d *Definition) SetRunForever(value *bool) error {
	if value == nil {
		return fmt.Errorf("%w: runForever must not be nil", ErrConfiguration)
	}
	d.runForever = *value
	return nil
}

// SetDelayBeforeNextRun sets the inter-generation delay in ticks. A nil
// value fails with ErrConfiguration; values below 1 clamp to 1.
func (d *Definition) SetDelayBeforeNextRun(ticks *int) error {
	if ticks == nil {
		return fmt.Errorf("%w: delayBeforeNextRun must not be nil", ErrConfiguration)
	}
	d.delayTicks = clampMin(*ticks, 1)
	return nil
}

// SetScopeSize sets the baseline chunk-size target. A nil value fails with
// ErrConfiguration; values below 1 clamp to 1.
func (d *Definition) SetScopeSize(size *int) error {
	if size == nil {
		return fmt.Errorf("%w: scopeSize must not be nil", ErrConfiguration)
	}
	d.scopeSize = clampMin(*size, 1)
	return nil
}

// SetEligibilityWindow sets the minimum item age before selection. Negative
// values clamp to zero. A zero window is the immediate mode used by tests
// and one-off runs.
func (d *Definition) SetEligibilityWindow(window time.Duration) {
	if window < 0 {
		window = 0
	}
	d.eligibilityWindow = window
}

// SetScheduledName overrides the name generations are scheduled under. A
// blank value restores the default (the job name).
func (d *Definition) SetScheduledName(name string) {
	d.scheduledName = strings.TrimSpace(name)
}

// ScheduledName resolves the scheduling name for this job's generations:
// the processor's ScheduledNamer override wins, then the definition
// override, then the job name.
func (d *Definition) ScheduledName(proc Processor) string {
	if namer, ok := proc.(ScheduledNamer); ok {
		if name := strings.TrimSpace(namer.ScheduledName()); name != "" {
			return name
		}
	}
	if d.scheduledName != "" {
		return d.scheduledName
	}
	return d.name
}

func clampMin(value, floor int) int {
	if value < floor {
		return floor
	}
	return value
}
