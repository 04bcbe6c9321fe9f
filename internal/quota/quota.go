package quota

import (
	"context"
	"math"
	"sync/atomic"
)

// Limits holds the per-execution ceilings. A zero value means unlimited.
type Limits struct {
	MaxQueries      int64
	MaxQueryRows    int64
	MaxMutationRows int64
}

// Quota accumulates resource usage for one execution. Counters only grow;
// callers gate work on the Remaining* values, the counters themselves are
// never reset mid-execution.
type Quota struct {
	limits Limits

	queries      atomic.Int64
	queryRows    atomic.Int64
	mutationRows atomic.Int64
}

// New returns a fresh Quota bound to the given limits.
func New(limits Limits) *Quota {
	return &Quota{limits: limits}
}

// RecordQuery counts one issued query and the rows it fetched.
func (q *Quota) RecordQuery(rows int64) {
	if q == nil {
		return
	}
	q.queries.Add(1)
	if rows > 0 {
		q.queryRows.Add(rows)
	}
}

// RecordMutation counts rows written by one mutation. The statement itself
// also counts as an issued query.
func (q *Quota) RecordMutation(rows int64) {
	if q == nil {
		return
	}
	q.queries.Add(1)
	if rows > 0 {
		q.mutationRows.Add(rows)
	}
}

// Queries reports the number of statements issued so far.
func (q *Quota) Queries() int64 { return q.queries.Load() }

// QueryRows reports the number of rows fetched so far.
func (q *Quota) QueryRows() int64 { return q.queryRows.Load() }

// MutationRows reports the number of rows written so far.
func (q *Quota) MutationRows() int64 { return q.mutationRows.Load() }

// RemainingQueries returns the statement headroom left in this execution.
func (q *Quota) RemainingQueries() int64 {
	return remaining(q.limits.MaxQueries, q.queries.Load())
}

// RemainingQueryRows returns the fetch-row headroom left in this execution.
func (q *Quota) RemainingQueryRows() int64 {
	return remaining(q.limits.MaxQueryRows, q.queryRows.Load())
}

// RemainingMutationRows returns the write-row headroom left in this execution.
func (q *Quota) RemainingMutationRows() int64 {
	return remaining(q.limits.MaxMutationRows, q.mutationRows.Load())
}

func remaining(limit, used int64) int64 {
	if limit <= 0 {
		return math.MaxInt64
	}
	if used >= limit {
		return 0
	}
	return limit - used
}

type contextKey struct{}

// NewContext attaches a Quota to the context.
func NewContext(ctx context.Context, q *Quota) context.Context {
	return context.WithValue(ctx, contextKey{}, q)
}

// FromContext returns the execution's Quota, or nil when the context carries
// none (callers treat nil as unlimited).
func FromContext(ctx context.Context) *Quota {
	if ctx == nil {
		return nil
	}
	q, _ := ctx.Value(contextKey{}).(*Quota)
	return q
}
