// Package quota tracks per-execution resource usage against host-imposed
// ceilings. A Quota travels on the context so every phase of an execution
// reads the same counters; the store records usage, the batch core only
// reads headroom to decide whether committing or cleaning up is safe.
package quota
