package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/cases"
)

// Processor is the per-job hook supplied by job authors. It receives the
// distinct target ids of one chunk. Returning an exhaustion-tagged error
// (see Exhausted) requests adaptive backoff; any other error propagates to
// the host unchanged.
type Processor interface {
	Process(ctx context.Context, targetIDs []string) error
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(ctx context.Context, targetIDs []string) error

func (f ProcessorFunc) Process(ctx context.Context, targetIDs []string) error {
	return f(ctx, targetIDs)
}

// ScheduledNamer optionally overrides the name a job's generations are
// scheduled under. Defaults to the job name.
type ScheduledNamer interface {
	ScheduledName() string
}

// Factory produces a fresh Processor for one generation. The rescheduler
// uses it to construct the next generation without reflection.
type Factory func() Processor

// Registry maps job names to processor factories. Lookups are
// case-insensitive: names are case-folded on the way in.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	names     []string
}

var foldCaser = cases.Fold()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the job name. Registering a duplicate or a
// nil factory is an error.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("register job: name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("register job %q: factory must not be nil", name)
	}

	key := foldCaser.String(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("register job %q: already registered", name)
	}
	r.factories[key] = factory
	r.names = append(r.names, name)
	return nil
}

// Lookup returns the factory for a job name, or nil when unknown.
func (r *Registry) Lookup(name string) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factories[foldCaser.String(name)]
}

// Names returns the registered job names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]string(nil), r.names...)
	sort.Strings(out)
	return out
}
