package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// LogFetch records one upstream fetch attempt. Best effort: a failing log
// write is reported via slog but never fails the pipeline.
func (s *Store) LogFetch(ctx context.Context, e FetchLogEntry) {
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.FetchedAt == 0 {
		e.FetchedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fetch_log (id, service, url, status, status_code, error_message, duration_ms, fetched_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		e.ID, e.Service, e.URL, e.Status, e.StatusCode, e.ErrorMessage, e.DurationMs, e.FetchedAt)
	if err != nil {
		slog.Warn("fetch log write failed", "error", err, "service", e.Service, "url", e.URL)
	}
}

// RecentFetches returns the most recent fetch attempts, newest first.
func (s *Store) RecentFetches(ctx context.Context, limit int) ([]FetchLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, service, url, status, status_code, error_message, duration_ms, fetched_at
		FROM fetch_log ORDER BY fetched_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list fetch log: %w", err)
	}
	defer rows.Close()

	var out []FetchLogEntry
	for rows.Next() {
		var e FetchLogEntry
		if err := rows.Scan(&e.ID, &e.Service, &e.URL, &e.Status, &e.StatusCode,
			&e.ErrorMessage, &e.DurationMs, &e.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan fetch log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
