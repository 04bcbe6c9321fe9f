package logging

// Standardized attribute keys. Components log with these so events stay
// queryable across the daemon.
const (
	FieldComponent  = "component"
	FieldEventType  = "event_type"
	FieldJobName    = "job"
	FieldRunID      = "run_id"
	FieldGeneration = "generation"
	FieldScopeSize  = "scope_size"
	FieldChunkSize  = "chunk_size"
	FieldErrorHint  = "error_hint"
)
