package queue

import (
	"errors"
	"time"
)

// timeLayout is a fixed-width UTC encoding so timestamp comparisons in SQL
// stay correct under lexicographic ordering. RFC3339Nano trims trailing
// zeros and would break that.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const itemColumns = "id, job_name, target_id, dedup_key, processed, created_at, updated_at"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*WorkItem, error) {
	var (
		id         int64
		jobName    string
		targetID   string
		dedupKey   string
		processed  int64
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(&id, &jobName, &targetID, &dedupKey, &processed, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	item := &WorkItem{
		ID:        id,
		JobName:   jobName,
		TargetID:  targetID,
		DedupKey:  dedupKey,
		Processed: processed != 0,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
