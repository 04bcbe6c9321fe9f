// Package host is the batch-execution framework the core runs under. It
// owns what the core must not: chunk partitioning, the async one-shot
// scheduling primitive, per-execution quota accounting, and parallelism
// across distinct jobs. Executions themselves are disposable; persistence
// of the overall daemon comes from generations rescheduling each other.
package host
