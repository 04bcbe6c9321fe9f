// Package batch contains the recurring-job core: the per-generation
// lifecycle controller, the adaptive scope sizing, and the self-chaining
// rescheduler.
//
// The host framework (internal/host) offers only one-shot, quota-limited
// executions. A Generation implements one such execution: it selects
// eligible backlog items, processes them in host-partitioned chunks
// through the job's Processor, marks completed work in the store, runs an
// opportunistic retention sweep, and finally constructs and schedules its
// successor. The chain of generations presents as a long-running daemon
// even though no single execution outlives its run.
package batch
