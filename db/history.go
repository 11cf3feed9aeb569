package db

import (
	"context"
	"fmt"
	"time"
)

// Fixed-width so checked_at sorts chronologically as text
const checkedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CheckRecord is one row of check_history
type CheckRecord struct {
	ID             string
	CheckedAt      time.Time
	Platform       string
	BundleID       string
	CurrentVersion string
	LatestVersion  string
	ReleaseDate    string
	NeedsUpdate    bool
	InGracePeriod  bool
	Attempts       int
	Status         string
	Duration       time.Duration
}

// Record inserts rec
func (h *History) Record(ctx context.Context, rec CheckRecord) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO check_history (id, checked_at, platform, bundle_id, current_version,
			latest_version, release_date, needs_update, in_grace_period, attempts, status, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CheckedAt.UTC().Format(checkedAtLayout),
		rec.Platform,
		rec.BundleID,
		rec.CurrentVersion,
		rec.LatestVersion,
		rec.ReleaseDate,
		boolToInt(rec.NeedsUpdate),
		boolToInt(rec.InGracePeriod),
		rec.Attempts,
		rec.Status,
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("error inserting check record %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (h *History) Recent(ctx context.Context, limit int) ([]CheckRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, checked_at, platform, bundle_id, current_version, latest_version,
			release_date, needs_update, in_grace_period, attempts, status, duration_ms
		FROM check_history
		ORDER BY checked_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying check history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CheckRecord
	for rows.Next() {
		var (
			rec         CheckRecord
			checkedAt   string
			needsUpdate int
			inGrace     int
			durationMS  int64
		)
		if err := rows.Scan(&rec.ID, &checkedAt, &rec.Platform, &rec.BundleID, &rec.CurrentVersion,
			&rec.LatestVersion, &rec.ReleaseDate, &needsUpdate, &inGrace, &rec.Attempts, &rec.Status, &durationMS); err != nil {
			return nil, fmt.Errorf("error scanning check record: %w", err)
		}
		rec.CheckedAt, err = time.Parse(checkedAtLayout, checkedAt)
		if err != nil {
			return nil, fmt.Errorf("error parsing checked_at %q: %w", checkedAt, err)
		}
		rec.NeedsUpdate = needsUpdate != 0
		rec.InGracePeriod = inGrace != 0
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check history: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
