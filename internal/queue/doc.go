// Package queue persists the durable backlog of work items in SQLite.
//
// Rows are keyed by a dedup key (job name + "-" + target id) so enqueueing
// the same pair twice coalesces to one row. The store refreshes updated_at
// on every write; the batch core leans on that timestamp both for the
// eligibility window and for the staleness re-check before marking items
// processed.
package queue
