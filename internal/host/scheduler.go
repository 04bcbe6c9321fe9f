package host

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"grist/internal/batch"
	"grist/internal/logging"
)

// Scheduler implements the async one-shot scheduling primitive. Each
// Schedule call arms a timer that runs the execution exactly once; chains
// form because executions schedule their successors from Complete.
//
// A per-name mutex serializes generations of the same job: the single
// in-flight generation invariant the core assumes. Distinct jobs run in
// parallel on their own timer goroutines.
type Scheduler struct {
	runner *Runner
	logger *slog.Logger

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	timers  map[int64]*time.Timer
	nextID  int64
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ batch.Scheduler = (*Scheduler)(nil)

// NewScheduler builds a scheduler whose executions stop when ctx is
// canceled or Stop is called.
func NewScheduler(ctx context.Context, runner *Runner, logger *slog.Logger) *Scheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		runner: runner,
		logger: logging.WithComponent(logger, "scheduler"),
		locks:  make(map[string]*sync.Mutex),
		timers: make(map[int64]*time.Timer),
		ctx:    runCtx,
		cancel: cancel,
	}
}

// Schedule arms a one-shot execution of exec under the given name after
// the delay. Calls after Stop are dropped.
func (s *Scheduler) Schedule(exec batch.Execution, name string, delay time.Duration, chunkSize int) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Debug("scheduler stopped, dropping execution",
			logging.String(logging.FieldJobName, name),
		)
		return
	}
	id := s.nextID
	s.nextID++
	s.wg.Add(1)

	timer := time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.forgetTimer(id)

		if s.ctx.Err() != nil {
			return
		}
		lock := s.lockFor(name)
		if !lock.TryLock() {
			// Should not happen while the chain reschedules only from
			// Complete; serialize rather than overlap if it ever does.
			s.logger.Warn("previous generation still running, waiting",
				logging.String(logging.FieldJobName, name),
			)
			lock.Lock()
		}
		defer lock.Unlock()

		s.runner.Run(s.ctx, exec, name, chunkSize)
	})
	s.timers[id] = timer
	s.mu.Unlock()

	s.logger.Debug("scheduled execution",
		logging.String(logging.FieldJobName, name),
		logging.Duration("delay", delay),
		logging.Int(logging.FieldChunkSize, chunkSize),
	)
}

// Stop cancels pending timers, prevents new scheduling, and waits for
// in-flight executions to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.cancel()
	for id, timer := range s.timers {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	return lock
}

func (s *Scheduler) forgetTimer(id int64) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()
}
