package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Batch 按自然键写入的一批行
type Batch struct {
	Table       string
	Columns     []string
	ConflictKey []string // 自然键列，须为 Columns 的子集
	Rows        [][]any
}

func (b Batch) validate() error {
	if !identRe.MatchString(b.Table) {
		return fmt.Errorf("invalid table name %q", b.Table)
	}
	if len(b.Columns) == 0 || len(b.ConflictKey) == 0 {
		return fmt.Errorf("batch for %s needs columns and a conflict key", b.Table)
	}
	cols := make(map[string]struct{}, len(b.Columns))
	for _, c := range b.Columns {
		if !identRe.MatchString(c) {
			return fmt.Errorf("invalid column name %q", c)
		}
		if _, dup := cols[c]; dup {
			return fmt.Errorf("duplicate column %q", c)
		}
		cols[c] = struct{}{}
	}
	for _, k := range b.ConflictKey {
		if _, ok := cols[k]; !ok {
			return fmt.Errorf("conflict key %q is not a column of %s", k, b.Table)
		}
	}
	for i, row := range b.Rows {
		if len(row) != len(b.Columns) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(b.Columns))
		}
	}
	return nil
}

// dedupe 同一批次内重复自然键合并，后者覆盖前者，保持首次出现的位置
func (b Batch) dedupe() [][]any {
	idx := make([]int, len(b.ConflictKey))
	for i, k := range b.ConflictKey {
		for j, c := range b.Columns {
			if c == k {
				idx[i] = j
			}
		}
	}

	pos := make(map[string]int, len(b.Rows))
	out := make([][]any, 0, len(b.Rows))
	for _, row := range b.Rows {
		parts := make([]string, len(idx))
		for i, j := range idx {
			parts[i] = fmt.Sprint(row[j])
		}
		key := strings.Join(parts, "\x1f")
		if p, ok := pos[key]; ok {
			out[p] = row
			continue
		}
		pos[key] = len(out)
		out = append(out, row)
	}
	return out
}

func (b Batch) upsertSQL() string {
	placeholders := make([]string, len(b.Columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	keys := make(map[string]struct{}, len(b.ConflictKey))
	for _, k := range b.ConflictKey {
		keys[k] = struct{}{}
	}
	var sets []string
	for _, c := range b.Columns {
		if _, ok := keys[c]; !ok {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}

	action := "DO NOTHING"
	if len(sets) > 0 {
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		b.Table, strings.Join(b.Columns, ", "), strings.Join(placeholders, ", "),
		strings.Join(b.ConflictKey, ", "), action)
}

// Upsert 按自然键插入或更新，返回写入行数
func (s *Store) Upsert(ctx context.Context, b Batch) (int, error) {
	if err := b.validate(); err != nil {
		return 0, err
	}
	rows := b.dedupe()
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(b.upsertSQL()))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert for %s: %w", b.Table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("failed to upsert %s row %d: %w", b.Table, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(rows), nil
}
