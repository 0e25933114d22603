package store

import (
	"context"
	"fmt"
	"strings"

	"indecstat/internal/model"
)

// where 按过滤条件拼接 WHERE 子句，codeColumn 为空时忽略 Code
func where(f model.SeriesFilter, codeColumn string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.From != "" {
		conds = append(conds, "date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		conds = append(conds, "date <= ?")
		args = append(args, f.To)
	}
	if f.Region != "" {
		conds = append(conds, "region = ?")
		args = append(args, f.Region)
	}
	if f.CategoryType != "" {
		conds = append(conds, "category_type = ?")
		args = append(args, f.CategoryType)
	}
	if f.Code != "" && codeColumn != "" {
		conds = append(conds, codeColumn+" = ?")
		args = append(args, f.Code)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListEMAE 按日期升序读取 EMAE 序列
func (s *Store) ListEMAE(ctx context.Context, f model.SeriesFilter) ([]model.EMAERow, error) {
	cond, args := where(model.SeriesFilter{From: f.From, To: f.To}, "")
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT date, original_value, seasonally_adjusted_value, cycle_trend_value,
			is_seasonally_adjusted, source_file
		FROM emae`+cond+` ORDER BY date`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query emae: %w", err)
	}
	defer rows.Close()

	var out []model.EMAERow
	for rows.Next() {
		var r model.EMAERow
		if err := rows.Scan(&r.Date, &r.OriginalValue, &r.SeasonallyAdjustedValue, &r.CycleTrendValue,
			&r.IsSeasonallyAdjusted, &r.SourceFile); err != nil {
			return nil, fmt.Errorf("failed to scan emae: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListIPC 读取 IPC 分项
func (s *Store) ListIPC(ctx context.Context, f model.SeriesFilter) ([]model.IPCRow, error) {
	cond, args := where(f, "component_code")
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT date, period_label, component_code, component_name, category_type, region,
			index_value, source_file
		FROM ipc_components`+cond+` ORDER BY date, region, category_type, component_code`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ipc_components: %w", err)
	}
	defer rows.Close()

	var out []model.IPCRow
	for rows.Next() {
		var r model.IPCRow
		if err := rows.Scan(&r.Date, &r.PeriodLabel, &r.ComponentCode, &r.ComponentName, &r.CategoryType,
			&r.Region, &r.IndexValue, &r.SourceFile); err != nil {
			return nil, fmt.Errorf("failed to scan ipc_components: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListLabor 读取劳动力市场指标
func (s *Store) ListLabor(ctx context.Context, f model.SeriesFilter) ([]model.LaborRow, error) {
	cond, args := where(f, "entity_code")
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT date, period_label, entity_code, entity_name, category_type, region,
			activity_rate, employment_rate, unemployment_rate, source_file
		FROM labor_market`+cond+` ORDER BY date, category_type, region, entity_code`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query labor_market: %w", err)
	}
	defer rows.Close()

	var out []model.LaborRow
	for rows.Next() {
		var r model.LaborRow
		if err := rows.Scan(&r.Date, &r.PeriodLabel, &r.EntityCode, &r.EntityName, &r.CategoryType, &r.Region,
			&r.ActivityRate, &r.EmploymentRate, &r.UnemploymentRate, &r.SourceFile); err != nil {
			return nil, fmt.Errorf("failed to scan labor_market: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
