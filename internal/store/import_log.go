package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"indecstat/internal/model"
)

// CreateImportLog 创建采集日志（processing）
func (s *Store) CreateImportLog(ctx context.Context, runID, indicator string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO import_logs (run_id, indicator, status, started_at)
		VALUES (?, ?, 'processing', ?)
	`), runID, indicator, startedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create import log: %w", err)
	}
	return nil
}

// FinishImportLog 按报告更新采集日志
func (s *Store) FinishImportLog(ctx context.Context, report model.RunReport) error {
	sources, err := json.Marshal(report.Sources)
	if err != nil {
		return fmt.Errorf("failed to encode sources: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		UPDATE import_logs SET
			status = ?,
			records = ?,
			upserted = ?,
			sources = ?,
			error_message = ?,
			completed_at = ?,
			duration_ms = ?
		WHERE run_id = ?
	`), string(report.Status), report.Records, report.Upserted, string(sources),
		strings.Join(report.Errors, "; "), report.StartedAt.Add(report.Duration).UTC(),
		report.Duration.Milliseconds(), report.RunID)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的采集日志，indicator 为空时不过滤
func (s *Store) ListImportLogs(ctx context.Context, indicator string, limit int) ([]model.ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT run_id, indicator, status, records, upserted, sources, error_message,
		started_at, completed_at, duration_ms FROM import_logs`
	args := []any{}
	if indicator != "" {
		query += " WHERE indicator = ?"
		args = append(args, indicator)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import logs: %w", err)
	}
	defer rows.Close()

	var out []model.ImportLog
	for rows.Next() {
		var (
			l         model.ImportLog
			completed sql.NullTime
		)
		if err := rows.Scan(&l.RunID, &l.Indicator, &l.Status, &l.Records, &l.Upserted, &l.Sources,
			&l.ErrorMessage, &l.StartedAt, &completed, &l.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			l.CompletedAt = &t
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
