package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"grist/internal/quota"
)

// Enqueue upserts one work item per target id, keyed on the dedup key.
// Re-submitting a (job, target) pair coalesces to a single row. The upsert
// always resets processed to false, so re-enqueueing an already-processed
// target makes it pending again: callers use this deliberately to force
// reprocessing.
//
// A blank job name or an empty id set is a no-op.
func (s *Store) Enqueue(ctx context.Context, jobName string, targetIDs []string) (int, error) {
	jobName = NormalizeJobName(jobName)
	if jobName == "" || len(targetIDs) == 0 {
		return 0, nil
	}

	timestamp := formatTime(time.Now())
	q := quota.FromContext(ctx)

	written := 0
	for _, targetID := range targetIDs {
		if targetID == "" {
			continue
		}
		res, err := s.execWithRetry(
			ctx,
			`INSERT INTO work_items (job_name, target_id, dedup_key, processed, created_at, updated_at)
             VALUES (?, ?, ?, 0, ?, ?)
             ON CONFLICT(dedup_key) DO UPDATE SET processed = 0, updated_at = excluded.updated_at`,
			jobName,
			targetID,
			DedupKey(jobName, targetID),
			timestamp,
			timestamp,
		)
		if err != nil {
			return written, fmt.Errorf("enqueue %s: %w", DedupKey(jobName, targetID), err)
		}
		rows, _ := res.RowsAffected()
		q.RecordMutation(rows)
		written++
	}
	return written, nil
}

// Eligible returns unprocessed items for the job whose last modification is
// at or before the cutoff, oldest first. The cutoff implements the
// eligibility window: a just-written row settles before a generation may
// pick it up.
func (s *Store) Eligible(ctx context.Context, jobName string, cutoff time.Time) ([]*WorkItem, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM work_items
         WHERE job_name = ? AND processed = 0 AND updated_at <= ?
         ORDER BY updated_at, id`,
		NormalizeJobName(jobName),
		formatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("query eligible items: %w", err)
	}
	defer rows.Close()

	var items []*WorkItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	quota.FromContext(ctx).RecordQuery(int64(len(items)))
	return items, rows.Err()
}

// MarkProcessed flips processed for the given targets, but only for rows
// whose updated_at is still at or before notAfter. A row touched by another
// writer after the chunk started is skipped rather than falsely marked
// done; it stays eligible for the next generation. Returns the number of
// rows actually marked.
func (s *Store) MarkProcessed(ctx context.Context, jobName string, targetIDs []string, notAfter time.Time) (int64, error) {
	jobName = NormalizeJobName(jobName)
	if jobName == "" || len(targetIDs) == 0 {
		return 0, nil
	}

	placeholders := makePlaceholders(len(targetIDs))
	args := make([]any, 0, len(targetIDs)+4)
	args = append(args, formatTime(time.Now()), jobName)
	for _, id := range targetIDs {
		args = append(args, id)
	}
	args = append(args, formatTime(notAfter))

	res, err := s.execWithRetry(
		ctx,
		`UPDATE work_items SET processed = 1, updated_at = ?
         WHERE job_name = ? AND target_id IN (`+placeholders+`) AND processed = 0 AND updated_at <= ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("mark processed: %w", err)
	}
	marked, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	quota.FromContext(ctx).RecordMutation(marked)
	return marked, nil
}

// DeleteProcessedBefore removes up to limit processed rows for the job whose
// last modification is older than the cutoff. Used by the retention sweep.
func (s *Store) DeleteProcessedBefore(ctx context.Context, jobName string, cutoff time.Time, limit int) (int64, error) {
	jobName = NormalizeJobName(jobName)
	if jobName == "" || limit <= 0 {
		return 0, nil
	}

	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM work_items WHERE id IN (
            SELECT id FROM work_items
            WHERE job_name = ? AND processed = 1 AND updated_at < ?
            ORDER BY updated_at LIMIT ?
         )`,
		jobName,
		formatTime(cutoff),
		limit,
	)
	if err != nil {
		return 0, fmt.Errorf("delete processed: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	quota.FromContext(ctx).RecordMutation(deleted)
	return deleted, nil
}

// GetByDedupKey fetches a single work item, or nil when absent.
func (s *Store) GetByDedupKey(ctx context.Context, dedupKey string) (*WorkItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM work_items WHERE dedup_key = ?`, dedupKey)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	quota.FromContext(ctx).RecordQuery(1)
	return item, nil
}

// List returns items, optionally filtered to one job name, oldest first.
func (s *Store) List(ctx context.Context, jobName string) ([]*WorkItem, error) {
	var (
		rows *sql.Rows
		err  error
	)

	jobName = NormalizeJobName(jobName)
	if jobName == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM work_items ORDER BY job_name, created_at, id`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM work_items WHERE job_name = ? ORDER BY created_at, id`, jobName)
	}
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	var items []*WorkItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	quota.FromContext(ctx).RecordQuery(int64(len(items)))
	return items, rows.Err()
}

// ClearProcessed removes all processed rows, optionally scoped to one job.
func (s *Store) ClearProcessed(ctx context.Context, jobName string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	jobName = NormalizeJobName(jobName)
	if jobName == "" {
		res, err = s.execWithRetry(ctx, `DELETE FROM work_items WHERE processed = 1`)
	} else {
		res, err = s.execWithRetry(ctx, `DELETE FROM work_items WHERE processed = 1 AND job_name = ?`, jobName)
	}
	if err != nil {
		return 0, fmt.Errorf("clear processed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all work items.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM work_items`)
	if err != nil {
		return 0, fmt.Errorf("clear backlog: %w", err)
	}
	return res.RowsAffected()
}

// Touch refreshes updated_at for one item as if an external writer had
// modified it. Exists for tests and manual poking via the CLI.
func (s *Store) Touch(ctx context.Context, dedupKey string, at time.Time) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE work_items SET updated_at = ? WHERE dedup_key = ?`,
		formatTime(at),
		dedupKey,
	)
	if err != nil {
		return fmt.Errorf("touch item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("touch item: no row for dedup key %q", dedupKey)
	}
	return nil
}
