package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Stats returns per-job backlog counts, sorted by job name.
func (s *Store) Stats(ctx context.Context) ([]JobStats, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT job_name,
               SUM(CASE WHEN processed = 0 THEN 1 ELSE 0 END),
               SUM(CASE WHEN processed = 1 THEN 1 ELSE 0 END),
               MIN(CASE WHEN processed = 0 THEN updated_at END)
        FROM work_items GROUP BY job_name`)
	if err != nil {
		return nil, fmt.Errorf("backlog stats: %w", err)
	}
	defer rows.Close()

	var stats []JobStats
	for rows.Next() {
		var (
			entry     JobStats
			oldestRaw sql.NullString
		)
		if err := rows.Scan(&entry.JobName, &entry.Pending, &entry.Processed, &oldestRaw); err != nil {
			return nil, err
		}
		if oldestRaw.Valid {
			if oldest, err := parseTimeString(oldestRaw.String); err == nil {
				entry.Oldest = oldest
			}
		}
		stats = append(stats, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].JobName < stats[j].JobName })
	return stats, nil
}

// CheckHealth returns diagnostic information about the backlog database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("backlog database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat backlog database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("backlog database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("backlog database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping backlog database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'work_items'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
		} else {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM work_items")
		if err := row.Scan(&health.TotalItems); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count work items: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
