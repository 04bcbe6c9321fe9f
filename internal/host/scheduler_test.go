package host_test

import (
	"context"
	"testing"
	"time"

	"grist/internal/host"
	"grist/internal/logging"
	"grist/internal/quota"
)

func newTestScheduler(t *testing.T) *host.Scheduler {
	t.Helper()
	runner := host.NewRunner(quota.Limits{}, logging.NewNop())
	s := host.NewScheduler(context.Background(), runner, logging.NewNop())
	t.Cleanup(s.Stop)
	return s
}

func TestSchedulerRunsExecutionOnce(t *testing.T) {
	s := newTestScheduler(t)

	exec := &fakeExec{done: make(chan struct{})}
	s.Schedule(exec, "refresh", time.Millisecond, 2)

	select {
	case <-exec.done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled execution never ran")
	}

	_, completed := exec.snapshot()
	if completed != 1 {
		t.Errorf("Complete called %d times, want 1", completed)
	}
}

func TestSchedulerStopCancelsPending(t *testing.T) {
	runner := host.NewRunner(quota.Limits{}, logging.NewNop())
	s := host.NewScheduler(context.Background(), runner, logging.NewNop())

	exec := &fakeExec{}
	s.Schedule(exec, "refresh", time.Hour, 2)
	s.Stop()

	_, completed := exec.snapshot()
	if completed != 0 {
		t.Error("a pending execution must not run after Stop")
	}

	// Scheduling after Stop is dropped silently.
	s.Schedule(exec, "refresh", time.Millisecond, 2)
	time.Sleep(50 * time.Millisecond)
	if _, completed := exec.snapshot(); completed != 0 {
		t.Error("an execution scheduled after Stop must not run")
	}
}

func TestSchedulerHonorsParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := host.NewRunner(quota.Limits{}, logging.NewNop())
	s := host.NewScheduler(ctx, runner, logging.NewNop())
	defer s.Stop()

	exec := &fakeExec{}
	cancel()
	s.Schedule(exec, "refresh", time.Millisecond, 2)

	time.Sleep(50 * time.Millisecond)
	if _, completed := exec.snapshot(); completed != 0 {
		t.Error("an execution must not run once the parent context is canceled")
	}
}

func TestSchedulerSerializesSameJob(t *testing.T) {
	s := newTestScheduler(t)

	first := &fakeExec{done: make(chan struct{})}
	second := &fakeExec{done: make(chan struct{})}

	s.Schedule(first, "refresh", time.Millisecond, 2)
	s.Schedule(second, "refresh", time.Millisecond, 2)

	for _, exec := range []*fakeExec{first, second} {
		select {
		case <-exec.done:
		case <-time.After(5 * time.Second):
			t.Fatal("execution never ran")
		}
	}
}
