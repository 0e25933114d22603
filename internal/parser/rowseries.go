package parser

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"indecstat/internal/model"
)

// RowSeriesOptions 纵向序列（每行一个期别）的定位参数
type RowSeriesOptions struct {
	ValueHeader      *Matcher // 取值列表头，如 "Serie original"
	ValueColumn      int      // 表头未找到时使用的列，-1 表示必须找到表头
	YearColumn       int      // 年份列（只在每年首行出现，向下沿用）
	MonthColumn      int      // 月份列（名称或 1-12）
	HeaderSearchRows int
}

// RowSeriesStats 纵向序列抽取统计
type RowSeriesStats struct {
	ValueColumn int `json:"valueColumn"`
	Malformed   int `json:"malformed"`
	Duplicates  int `json:"duplicates"`
}

// LocateRowSeries 读取纵向排列的月度序列，按日期升序返回
func (l *Locator) LocateRowSeries(sheet model.Sheet, opts RowSeriesOptions) ([]model.Observation, RowSeriesStats, error) {
	if opts.HeaderSearchRows <= 0 {
		opts.HeaderSearchRows = 30
	}
	stats := RowSeriesStats{ValueColumn: -1}

	start := 0
	if row, col, ok := findHeader(sheet, opts.ValueHeader, opts.HeaderSearchRows); ok {
		stats.ValueColumn, start = col, row+1
	} else if opts.ValueColumn >= 0 {
		stats.ValueColumn = opts.ValueColumn
	} else {
		return nil, stats, structureNotFound(sheet, l.diagnosticRows, "value column header not found")
	}

	var (
		obs  []model.Observation
		seen = make(map[string]struct{})
		year int
	)
	for r := start; r < len(sheet.Rows); r++ {
		date := ""
		yc := sheet.At(r, opts.YearColumn)
		if y, ok := l.rowYear(yc); ok {
			year = y
		} else if key, ok := l.dates.Extract(yc); ok && atoi(key[:4]) >= l.minYear {
			// 日期单元格或日期序列号
			date = key
		}
		if date == "" {
			month, ok := l.rowMonth(sheet.At(r, opts.MonthColumn))
			if !ok || year == 0 {
				continue
			}
			date = fmt.Sprintf("%04d-%02d-01", year, month)
		}

		cell := sheet.At(r, stats.ValueColumn)
		if cell.IsEmpty() {
			continue
		}
		v, ok := cell.Float()
		if !ok || math.IsNaN(v) {
			stats.Malformed++
			continue
		}
		if _, dup := seen[date]; dup {
			stats.Duplicates++
			continue
		}
		seen[date] = struct{}{}
		obs = append(obs, model.Observation{Date: date, Value: v})
	}

	if len(obs) == 0 {
		return nil, stats, structureNotFound(sheet, l.diagnosticRows, "no dated observations in column %d", stats.ValueColumn)
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date < obs[j].Date })
	return obs, stats, nil
}

func findHeader(sheet model.Sheet, header *Matcher, rows int) (int, int, bool) {
	if header == nil {
		return 0, 0, false
	}
	for r := 0; r < min(rows, len(sheet.Rows)); r++ {
		for c, cell := range sheet.Rows[r] {
			if cell.Kind != model.TextCell {
				continue
			}
			if _, ok := header.Match(cell.Text); ok {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// rowYear 年份列：整数年份或含年份的文本（"2004 (*)"）
func (l *Locator) rowYear(cell model.Cell) (int, bool) {
	switch cell.Kind {
	case model.NumberCell:
		if cell.Num != math.Trunc(cell.Num) {
			return 0, false
		}
		y := int(cell.Num)
		return y, y >= l.minYear && y <= 2100
	case model.TextCell:
		text := cleanToken(cell.Text)
		if strings.ContainsAny(text, "/.-") {
			return 0, false
		}
		m := reYearAny.FindStringSubmatch(text)
		if m == nil {
			return 0, false
		}
		return atoi(m[1]), true
	}
	return 0, false
}

func (l *Locator) rowMonth(cell model.Cell) (int, bool) {
	switch cell.Kind {
	case model.NumberCell:
		m := int(cell.Num)
		return m, float64(m) == cell.Num && m >= 1 && m <= 12
	case model.TextCell:
		text := cleanToken(cell.Text)
		if m, ok := l.dates.Month(text); ok {
			return m, true
		}
		// "Enero (*)"、"enero 2004" 等取首个词
		if fields := strings.Fields(text); len(fields) > 0 {
			return l.dates.Month(fields[0])
		}
	}
	return 0, false
}
