package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"grist/internal/logging"
	"grist/internal/queue"
)

// Execution is the host execution contract: the host framework drives one
// generation through Select, a sequence of Process calls over chunks of
// ScopeSize items, and a final Complete.
type Execution interface {
	Select(ctx context.Context) ([]*queue.WorkItem, error)
	Process(ctx context.Context, chunk []*queue.WorkItem) error
	Complete(ctx context.Context) error
	ScopeSize() int
}

// Scheduler is the host's async one-shot scheduling primitive. Schedule
// runs the execution once after the delay under the given name.
type Scheduler interface {
	Schedule(exec Execution, name string, delay time.Duration, chunkSize int)
}

// Deps bundles the collaborators a generation needs.
type Deps struct {
	Store     *queue.Store
	Scheduler Scheduler
	Registry  *Registry
	Logger    *slog.Logger
	// Retention is how long processed items stay before the cleanup sweep
	// removes them. Zero means the 30-day default.
	Retention time.Duration
}

const defaultRetention = 30 * 24 * time.Hour

// Option tweaks generation construction.
type Option func(*Generation)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generation) { g.now = now }
}

// Generation is the in-memory state of one execution in the chain. It is
// constructed fresh per generation; configuration travels forward by value
// through the rescheduler, never by reference. Within a generation, chunk
// processing is sequential, so the exhaustion flag needs no locking.
type Generation struct {
	def  Definition
	proc Processor
	deps Deps

	num           int
	scope         int
	hadExhaustion bool
	now           func() time.Time
	logger        *slog.Logger
}

// NewGeneration builds the first generation of a job's chain. Its scope
// starts at the definition's baseline.
func NewGeneration(def Definition, proc Processor, deps Deps, opts ...Option) (*Generation, error) {
	if proc == nil {
		return nil, fmt.Errorf("%w: processor must not be nil", ErrConfiguration)
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: store must not be nil", ErrConfiguration)
	}
	if deps.Retention <= 0 {
		deps.Retention = defaultRetention
	}
	g := &Generation{
		def:   def,
		proc:  proc,
		deps:  deps,
		num:   1,
		scope: clampMin(def.ScopeSize(), 1),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.WithComponent(deps.Logger, "batch").With(
		logging.String(logging.FieldJobName, def.Name()),
		logging.Int(logging.FieldGeneration, g.num),
	)
	return g, nil
}

// successor builds generation N+1 with an explicitly copied definition, a
// fresh processor, and the adapted scope. The exhaustion flag deliberately
// does not carry over.
func (g *Generation) successor(proc Processor, scope int) *Generation {
	next := &Generation{
		def:   g.def,
		proc:  proc,
		deps:  g.deps,
		num:   g.num + 1,
		scope: clampMin(scope, 1),
		now:   g.now,
	}
	next.logger = logging.WithComponent(g.deps.Logger, "batch").With(
		logging.String(logging.FieldJobName, g.def.Name()),
		logging.Int(logging.FieldGeneration, next.num),
	)
	return next
}

// ScopeSize returns this generation's chunk-size target. The host uses it
// to partition the selected items.
func (g *Generation) ScopeSize() int { return g.scope }

// Number returns the generation's ordinal within its chain, starting at 1.
func (g *Generation) Number() int { return g.num }

// HadExhaustion reports whether any chunk of this generation hit a
// recoverable exhaustion signal.
func (g *Generation) HadExhaustion() bool { return g.hadExhaustion }

// Definition returns a copy of the job configuration this generation runs
// under.
func (g *Generation) Definition() Definition { return g.def }
