package queue_test

import (
	"context"
	"testing"
	"time"

	"grist/internal/queue"
	"grist/internal/quota"
	"grist/internal/testsupport"
)

func TestEnqueueDeduplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	written, err := store.Enqueue(ctx, "refresh", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}

	// Re-submitting the same pair coalesces to the existing row.
	if _, err := store.Enqueue(ctx, "refresh", []string{"a"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	items, err := store.List(ctx, "refresh")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("rows = %d, want 2 after duplicate enqueue", len(items))
	}

	item, err := store.GetByDedupKey(ctx, queue.DedupKey("refresh", "a"))
	if err != nil {
		t.Fatalf("GetByDedupKey: %v", err)
	}
	if item == nil {
		t.Fatal("item missing after enqueue")
	}
	if item.DedupKey != "refresh-a" {
		t.Errorf("DedupKey = %q, want refresh-a", item.DedupKey)
	}
}

func TestEnqueueResetsProcessed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.Enqueue(t, store, "refresh", "a")
	if _, err := store.MarkProcessed(ctx, "refresh", []string{"a"}, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	// A fresh enqueue of a processed target makes it pending again.
	testsupport.Enqueue(t, store, "refresh", "a")

	item, err := store.GetByDedupKey(ctx, queue.DedupKey("refresh", "a"))
	if err != nil {
		t.Fatalf("GetByDedupKey: %v", err)
	}
	if item == nil || item.Processed {
		t.Error("re-enqueued item should be pending")
	}
}

func TestEnqueueIgnoresBlankInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if written, err := store.Enqueue(ctx, "  ", []string{"a"}); err != nil || written != 0 {
		t.Errorf("blank job name: written=%d err=%v, want 0, nil", written, err)
	}
	if written, err := store.Enqueue(ctx, "refresh", nil); err != nil || written != 0 {
		t.Errorf("empty id set: written=%d err=%v, want 0, nil", written, err)
	}
	if written, err := store.Enqueue(ctx, "refresh", []string{"", "a"}); err != nil || written != 1 {
		t.Errorf("blank target id: written=%d err=%v, want 1, nil", written, err)
	}
}

func TestEligibleRespectsCutoff(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.Enqueue(t, store, "refresh", "a", "b")

	past := time.Now().Add(-time.Minute)
	items, err := store.Eligible(ctx, "refresh", past)
	if err != nil {
		t.Fatalf("Eligible: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items newer than the cutoff selected: got %d", len(items))
	}

	future := time.Now().Add(time.Minute)
	items, err = store.Eligible(ctx, "refresh", future)
	if err != nil {
		t.Fatalf("Eligible: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("settled items = %d, want 2", len(items))
	}
	for _, item := range items {
		if item.Processed {
			t.Errorf("Eligible returned processed item %s", item.TargetID)
		}
	}
}

func TestEligibleOrdersOldestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.Enqueue(t, store, "refresh", "newer")
	testsupport.Enqueue(t, store, "refresh", "oldest")

	base := time.Now()
	if err := store.Touch(ctx, queue.DedupKey("refresh", "oldest"), base.Add(-time.Hour)); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	items, err := store.Eligible(ctx, "refresh", base.Add(time.Minute))
	if err != nil {
		t.Fatalf("Eligible: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].TargetID != "oldest" {
		t.Errorf("first item = %s, want oldest", items[0].TargetID)
	}
}

func TestMarkProcessedSkipsFreshRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.Enqueue(t, store, "refresh", "a", "b")

	notAfter := time.Now().Add(time.Minute)
	if err := store.Touch(ctx, queue.DedupKey("refresh", "b"), notAfter.Add(time.Hour)); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	marked, err := store.MarkProcessed(ctx, "refresh", []string{"a", "b"}, notAfter)
	if err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if marked != 1 {
		t.Errorf("marked = %d, want 1", marked)
	}

	b, err := store.GetByDedupKey(ctx, queue.DedupKey("refresh", "b"))
	if err != nil {
		t.Fatalf("GetByDedupKey: %v", err)
	}
	if b == nil || b.Processed {
		t.Error("row modified after the cutoff must stay unprocessed")
	}
}

func TestMarkProcessedNoOpInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if marked, err := store.MarkProcessed(ctx, "", []string{"a"}, time.Now()); err != nil || marked != 0 {
		t.Errorf("blank job: marked=%d err=%v, want 0, nil", marked, err)
	}
	if marked, err := store.MarkProcessed(ctx, "refresh", nil, time.Now()); err != nil || marked != 0 {
		t.Errorf("empty ids: marked=%d err=%v, want 0, nil", marked, err)
	}
}

func TestDeleteProcessedBeforeHonorsLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	targets := []string{"a", "b", "c", "d"}
	testsupport.Enqueue(t, store, "refresh", targets...)
	if _, err := store.MarkProcessed(ctx, "refresh", targets, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	cutoff := time.Now().Add(time.Hour)
	deleted, err := store.DeleteProcessedBefore(ctx, "refresh", cutoff, 3)
	if err != nil {
		t.Fatalf("DeleteProcessedBefore: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	remaining, err := store.List(ctx, "refresh")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("remaining rows = %d, want 1", len(remaining))
	}

	if deleted, err := store.DeleteProcessedBefore(ctx, "refresh", cutoff, 0); err != nil || deleted != 0 {
		t.Errorf("zero limit: deleted=%d err=%v, want 0, nil", deleted, err)
	}
}

func TestDeleteProcessedBeforeSparesPendingAndFresh(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.Enqueue(t, store, "refresh", "done", "pending")
	if _, err := store.MarkProcessed(ctx, "refresh", []string{"done"}, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	// A cutoff in the past matches nothing: the processed row is fresher.
	deleted, err := store.DeleteProcessedBefore(ctx, "refresh", time.Now().Add(-time.Hour), 100)
	if err != nil {
		t.Fatalf("DeleteProcessedBefore: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0 with a past cutoff", deleted)
	}

	deleted, err = store.DeleteProcessedBefore(ctx, "refresh", time.Now().Add(time.Hour), 100)
	if err != nil {
		t.Fatalf("DeleteProcessedBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	pending, err := store.GetByDedupKey(ctx, queue.DedupKey("refresh", "pending"))
	if err != nil {
		t.Fatalf("GetByDedupKey: %v", err)
	}
	if pending == nil {
		t.Error("pending row must survive the sweep")
	}
}

func TestStatsAggregatesPerJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.Enqueue(t, store, "refresh", "a", "b")
	testsupport.Enqueue(t, store, "archive", "x")
	if _, err := store.MarkProcessed(ctx, "refresh", []string{"a"}, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats entries = %d, want 2", len(stats))
	}
	if stats[0].JobName != "archive" || stats[1].JobName != "refresh" {
		t.Errorf("stats not sorted by job name: %v, %v", stats[0].JobName, stats[1].JobName)
	}
	refresh := stats[1]
	if refresh.Pending != 1 || refresh.Processed != 1 {
		t.Errorf("refresh stats = %d pending, %d processed, want 1, 1", refresh.Pending, refresh.Processed)
	}
	if refresh.Total() != 2 {
		t.Errorf("Total = %d, want 2", refresh.Total())
	}
	if refresh.Oldest.IsZero() {
		t.Error("Oldest should be set while a pending row exists")
	}
}

func TestClearProcessedScopedToJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.Enqueue(t, store, "refresh", "a")
	testsupport.Enqueue(t, store, "archive", "x")
	notAfter := time.Now().Add(time.Minute)
	if _, err := store.MarkProcessed(ctx, "refresh", []string{"a"}, notAfter); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if _, err := store.MarkProcessed(ctx, "archive", []string{"x"}, notAfter); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	removed, err := store.ClearProcessed(ctx, "refresh")
	if err != nil {
		t.Fatalf("ClearProcessed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	archived, err := store.GetByDedupKey(ctx, queue.DedupKey("archive", "x"))
	if err != nil {
		t.Fatalf("GetByDedupKey: %v", err)
	}
	if archived == nil {
		t.Error("other job's row must survive a scoped clear")
	}

	removed, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 1 {
		t.Errorf("Clear removed = %d, want 1", removed)
	}
}

func TestTouchMissingRowFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if err := store.Touch(context.Background(), "refresh-nope", time.Now()); err == nil {
		t.Error("Touch of a missing row should fail")
	}
}

func TestQuotaAccounting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	q := quota.New(quota.Limits{})
	ctx := quota.NewContext(context.Background(), q)

	if _, err := store.Enqueue(ctx, "refresh", []string{"a", "b"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if q.MutationRows() != 2 {
		t.Errorf("MutationRows after enqueue = %d, want 2", q.MutationRows())
	}

	if _, err := store.Eligible(ctx, "refresh", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Eligible: %v", err)
	}
	if q.QueryRows() != 2 {
		t.Errorf("QueryRows after select = %d, want 2", q.QueryRows())
	}

	marked, err := store.MarkProcessed(ctx, "refresh", []string{"a", "b"}, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if q.MutationRows() != 2+marked {
		t.Errorf("MutationRows after mark = %d, want %d", q.MutationRows(), 2+marked)
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Enqueue(ctx, "refresh", []string{"a"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	item, err := reopened.GetByDedupKey(ctx, queue.DedupKey("refresh", "a"))
	if err != nil {
		t.Fatalf("GetByDedupKey: %v", err)
	}
	if item == nil {
		t.Error("row lost across reopen")
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.Enqueue(t, store, "refresh", "a")

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Errorf("health flags = %+v, want database present and readable", health)
	}
	if !health.IntegrityCheck {
		t.Error("integrity check should pass on a fresh database")
	}
	if health.TotalItems != 1 {
		t.Errorf("TotalItems = %d, want 1", health.TotalItems)
	}
	if health.DBPath != store.Path() {
		t.Errorf("DBPath = %q, want %q", health.DBPath, store.Path())
	}
}
