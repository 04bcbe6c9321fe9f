package batch

import (
	"context"

	"grist/internal/logging"
	"grist/internal/queue"
	"grist/internal/quota"
)

// Cleanup runs only when the execution still has comfortable headroom; it
// is opportunistic work and must never starve the job itself.
const (
	cleanupLimit               = 1000
	cleanupMinQueryHeadroom    = 2
	cleanupMinQueryRowHeadroom = 100
	cleanupMinMutationHeadroom = cleanupLimit
)

// Select returns the items this generation may work on: unprocessed rows of
// this job whose last modification has settled past the eligibility window.
// The window keeps a generation from racing an in-flight writer that is
// still touching a just-enqueued item.
func (g *Generation) Select(ctx context.Context) ([]*queue.WorkItem, error) {
	cutoff := g.now().Add(-g.def.EligibilityWindow())
	items, err := g.deps.Store.Eligible(ctx, g.def.Name(), cutoff)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("selected eligible items",
		logging.Int("items", len(items)),
		logging.Int(logging.FieldScopeSize, g.scope),
	)
	return items, nil
}

// Process runs the job hook over one host-partitioned chunk and, on
// success, marks the chunk's items processed.
//
// Failure handling follows one rule: never swallow. An exhaustion-tagged
// failure (from the hook, or synthesized when committing would blow the
// mutation quota) sets the generation's exhaustion flag and propagates
// without any store write. Every other failure propagates untouched.
func (g *Generation) Process(ctx context.Context, chunk []*queue.WorkItem) error {
	if len(chunk) == 0 {
		return nil
	}

	targetIDs := distinctTargetIDs(chunk)
	chunkStart := g.now()

	if err := g.proc.Process(ctx, targetIDs); err != nil {
		if IsExhaustion(err) {
			g.hadExhaustion = true
			g.logger.Warn("chunk hit resource exhaustion",
				logging.Int(logging.FieldChunkSize, len(targetIDs)),
				logging.Error(err),
			)
		}
		return err
	}

	if q := quota.FromContext(ctx); q != nil && q.RemainingMutationRows() < int64(len(targetIDs)) {
		g.hadExhaustion = true
		return Exhaustedf("marking %d items would exceed the remaining mutation quota (%d rows left)",
			len(targetIDs), q.RemainingMutationRows())
	}

	// Re-check staleness at commit time: an item touched by another writer
	// after chunkStart stays unprocessed and is picked up again next
	// generation, instead of being silently marked done.
	marked, err := g.deps.Store.MarkProcessed(ctx, g.def.Name(), targetIDs, chunkStart)
	if err != nil {
		return err
	}
	if skipped := int64(len(targetIDs)) - marked; skipped > 0 {
		g.logger.Debug("left concurrently modified items unprocessed",
			logging.Int64("skipped", skipped),
		)
	}
	return nil
}

// Complete finishes the generation: an opportunistic retention sweep, then
// either termination or handoff to the next generation. This is the only
// point where the stop signal (runForever=false) is honored; a generation
// in progress always runs to completion.
func (g *Generation) Complete(ctx context.Context) error {
	g.cleanup(ctx)

	if !g.def.RunForever() {
		g.logger.Info("chain stopping, runForever disabled")
		return nil
	}

	g.reschedule()
	return nil
}

// cleanup deletes old processed items while quota headroom allows. Silent
// on insufficient headroom and on failure: retention is best-effort and
// must not fail the generation.
func (g *Generation) cleanup(ctx context.Context) {
	if q := quota.FromContext(ctx); q != nil {
		if q.RemainingQueries() < cleanupMinQueryHeadroom ||
			q.RemainingQueryRows() < cleanupMinQueryRowHeadroom ||
			q.RemainingMutationRows() < cleanupMinMutationHeadroom {
			return
		}
	}

	cutoff := g.now().Add(-g.deps.Retention)
	deleted, err := g.deps.Store.DeleteProcessedBefore(ctx, g.def.Name(), cutoff, cleanupLimit)
	if err != nil {
		g.logger.Debug("retention sweep failed", logging.Error(err))
		return
	}
	if deleted > 0 {
		g.logger.Info("retention sweep removed processed items",
			logging.Int64("deleted", deleted),
			logging.Time("cutoff", cutoff),
		)
	}
}

func distinctTargetIDs(chunk []*queue.WorkItem) []string {
	seen := make(map[string]struct{}, len(chunk))
	ids := make([]string, 0, len(chunk))
	for _, item := range chunk {
		if item == nil || item.TargetID == "" {
			continue
		}
		if _, ok := seen[item.TargetID]; ok {
			continue
		}
		seen[item.TargetID] = struct{}{}
		ids = append(ids, item.TargetID)
	}
	return ids
}
