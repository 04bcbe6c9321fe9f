package host

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"grist/internal/batch"
	"grist/internal/logging"
	"grist/internal/queue"
	"grist/internal/quota"
)

// Runner drives a single one-shot execution: fresh quota, selection,
// sequential chunk processing, completion. It never retries a chunk; the
// chain recovers at generation granularity.
type Runner struct {
	limits quota.Limits
	logger *slog.Logger
}

// NewRunner builds a runner that grants each execution the given quota
// limits.
func NewRunner(limits quota.Limits, logger *slog.Logger) *Runner {
	return &Runner{
		limits: limits,
		logger: logging.WithComponent(logger, "host"),
	}
}

// Run executes one generation to completion. Chunk processing stops at the
// first failure, but Complete always runs so the chain can reschedule; a
// failed chunk simply leaves its items eligible for the next generation.
func (r *Runner) Run(ctx context.Context, exec batch.Execution, name string, chunkSize int) {
	runLogger := r.logger.With(
		logging.String(logging.FieldJobName, name),
		logging.String(logging.FieldRunID, uuid.NewString()),
	)

	q := quota.New(r.limits)
	ctx = quota.NewContext(ctx, q)

	items, err := exec.Select(ctx)
	if err != nil {
		runLogger.Error("selection failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check backlog database access"),
		)
	} else {
		r.processChunks(ctx, runLogger, exec, items, chunkSize)
	}

	if err := exec.Complete(ctx); err != nil {
		runLogger.Error("completion failed", logging.Error(err))
	}

	runLogger.Debug("execution finished",
		logging.Int64("queries", q.Queries()),
		logging.Int64("query_rows", q.QueryRows()),
		logging.Int64("mutation_rows", q.MutationRows()),
	)
}

func (r *Runner) processChunks(ctx context.Context, logger *slog.Logger, exec batch.Execution, items []*queue.WorkItem, chunkSize int) {
	if chunkSize < 1 {
		chunkSize = 1
	}
	for start := 0; start < len(items); start += chunkSize {
		if ctx.Err() != nil {
			return
		}
		end := min(start+chunkSize, len(items))
		chunk := items[start:end]

		if err := exec.Process(ctx, chunk); err != nil {
			if batch.IsExhaustion(err) {
				logger.Warn("chunk aborted on exhaustion, remaining items deferred",
					logging.Int(logging.FieldChunkSize, len(chunk)),
					logging.Error(err),
				)
			} else {
				logger.Error("chunk processing failed, remaining items deferred",
					logging.Int(logging.FieldChunkSize, len(chunk)),
					logging.Error(err),
				)
			}
			return
		}
	}
}
