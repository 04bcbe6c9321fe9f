package testsupport

import (
	"context"
	"testing"

	"grist/internal/config"
	"grist/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Enqueue inserts work items for tests using the provided store.
func Enqueue(t testing.TB, store *queue.Store, jobName string, targetIDs ...string) {
	t.Helper()

	if _, err := store.Enqueue(context.Background(), jobName, targetIDs); err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
}
