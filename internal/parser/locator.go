package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"indecstat/internal/model"
)

// HeaderLayout 期别表头布局
type HeaderLayout int

const (
	// TwoLevelHeader 年份标记行 + 子期别行（"Año 2017" / "1° trimestre"）
	TwoLevelHeader HeaderLayout = iota
	// SingleRowHeader 单行组合表头（"T1 2020"、"ene-17"、日期单元格）
	SingleRowHeader
)

var (
	reYearMarker = regexp.MustCompile(`\bano\W*((?:19|20)\d{2})\b`)
	reYearOnly   = regexp.MustCompile(`^((?:19|20)\d{2})$`)
	reYearAny    = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	reQuarter    = regexp.MustCompile(`^(?:([1-4])\s*(?:°|º|o|er|do|ro|to)?\s*\.?\s*trim\w*\.?|t\s*([1-4])|([1-4])\s*t|(iv|i{1,3})\s*trim\w*\.?)$`)
	reSemester   = regexp.MustCompile(`^(?:([12])\s*(?:°|º|o|er|do)?\s*\.?\s*sem\w*\.?|s\s*([12])|([12])\s*s)$`)
	reFootnote   = regexp.MustCompile(`\(.*?\)|\*+`)
	reTokenTrim  = regexp.MustCompile(`^[\s\-/:,]+|[\s\-/:,]+$`)
)

// LocateOptions 结构定位参数
type LocateOptions struct {
	LabelColumn      int          // 名称列
	Entities         *Matcher     // 期望实体
	Layout           HeaderLayout // 期别表头布局
	Cadence          model.Cadence
	HeaderRow        int // 表头行号（从 1 开始），0 表示自动识别
	HeaderSearchRows int // 自动识别时扫描的行数
	AdjacentSpan     int // 实体行右侧需要存在数据的列范围
	StartRow         int // 实体扫描起止行，EndRow 为 0 表示到表尾
	EndRow           int
	Now              time.Time // 合成期别的基准时间
}

func (o LocateOptions) withDefaults() LocateOptions {
	if o.Cadence == 0 {
		o.Cadence = model.Monthly
	}
	if o.HeaderSearchRows <= 0 {
		o.HeaderSearchRows = 30
	}
	if o.AdjacentSpan <= 0 {
		o.AdjacentSpan = 2
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// Layout 定位结果
type Layout struct {
	Periods  []model.PeriodMapping `json:"periods"`
	Entities []model.EntityAnchor  `json:"entities"`
	Warnings []string              `json:"warnings,omitempty"`
}

// Locator 工作表结构定位器
type Locator struct {
	dates          *DateParser
	minYear        int
	diagnosticRows int
}

// NewLocator 创建定位器，dates 为 nil 时使用西语月份字典
func NewLocator(dates *DateParser) *Locator {
	if dates == nil {
		dates = defaultDateParser
	}
	return &Locator{dates: dates, minYear: 1990, diagnosticRows: 10}
}

// Locate 定位期别列与实体行
func (l *Locator) Locate(sheet model.Sheet, opts LocateOptions) (Layout, error) {
	opts = opts.withDefaults()

	anchors, warnings := l.LocateEntities(sheet, opts)
	if len(anchors) == 0 {
		return Layout{}, structureNotFound(sheet, l.diagnosticRows, "no expected entity found in column %d", opts.LabelColumn)
	}

	periods, pw, err := l.LocatePeriods(sheet, opts, anchors)
	if err != nil {
		return Layout{}, err
	}
	return Layout{Periods: periods, Entities: anchors, Warnings: append(warnings, pw...)}, nil
}

// LocateEntities 扫描名称列，匹配期望实体；右侧相邻列必须有数据
func (l *Locator) LocateEntities(sheet model.Sheet, opts LocateOptions) ([]model.EntityAnchor, []string) {
	opts = opts.withDefaults()
	end := opts.EndRow
	if end <= 0 || end > len(sheet.Rows) {
		end = len(sheet.Rows)
	}

	var (
		anchors  []model.EntityAnchor
		warnings []string
		seen     = make(map[string]int)
	)
	for r := max(opts.StartRow, 0); r < end; r++ {
		label := sheet.At(r, opts.LabelColumn)
		if label.Kind != model.TextCell {
			continue
		}
		p, ok := opts.Entities.Match(label.Text)
		if !ok || !hasAdjacentData(sheet, r, opts.LabelColumn, opts.AdjacentSpan) {
			continue
		}
		if prev, dup := seen[p.Code]; dup {
			warnings = append(warnings, fmt.Sprintf("entity %s matched again at row %d (kept row %d)", p.Code, r, prev))
			continue
		}
		seen[p.Code] = r
		anchors = append(anchors, p.Anchor(r))
	}
	return anchors, warnings
}

func hasAdjacentData(sheet model.Sheet, row, labelCol, span int) bool {
	for c := labelCol + 1; c <= labelCol+span; c++ {
		if !sheet.At(row, c).IsEmpty() {
			return true
		}
	}
	return false
}

// LocatePeriods 定位期别列；anchors 用于限定表头范围与合成期别
func (l *Locator) LocatePeriods(sheet model.Sheet, opts LocateOptions, anchors []model.EntityAnchor) ([]model.PeriodMapping, []string, error) {
	opts = opts.withDefaults()

	limit := min(opts.HeaderSearchRows, len(sheet.Rows))
	if len(anchors) > 0 && anchors[0].RowIndex < limit {
		limit = anchors[0].RowIndex
	}

	var (
		periods  []model.PeriodMapping
		warnings []string
		err      error
	)
	switch opts.Layout {
	case TwoLevelHeader:
		periods, warnings, err = l.twoLevelPeriods(sheet, opts, limit)
	default:
		periods, warnings = l.singleRowPeriods(sheet, opts, limit, anchors)
	}
	if err != nil {
		return nil, warnings, err
	}

	periods, dupWarnings := dedupePeriods(periods)
	warnings = append(warnings, dupWarnings...)
	if len(periods) == 0 {
		return nil, warnings, structureNotFound(sheet, l.diagnosticRows, "no period columns found")
	}
	return periods, warnings, nil
}

// dedupePeriods 重复期别标签保留首列
func dedupePeriods(periods []model.PeriodMapping) ([]model.PeriodMapping, []string) {
	var warnings []string
	seen := make(map[string]int, len(periods))
	out := make([]model.PeriodMapping, 0, len(periods))
	for _, p := range periods {
		if col, dup := seen[p.PeriodLabel]; dup {
			warnings = append(warnings, fmt.Sprintf("duplicate period %q at column %d (kept column %d)", p.PeriodLabel, p.ColumnIndex, col))
			continue
		}
		seen[p.PeriodLabel] = p.ColumnIndex
		out = append(out, p)
	}
	return out, warnings
}

type yearMarker struct {
	col  int
	year int
}

type subPeriodCell struct {
	col int
	sub int
}

func (l *Locator) twoLevelPeriods(sheet model.Sheet, opts LocateOptions, limit int) ([]model.PeriodMapping, []string, error) {
	subRow := -1
	var subs []subPeriodCell
	if opts.HeaderRow > 0 {
		subRow = opts.HeaderRow - 1
		subs = l.subPeriodRow(sheet, subRow, opts)
	} else {
		for r := 0; r < limit; r++ {
			if cells := l.subPeriodRow(sheet, r, opts); len(cells) > 0 {
				subRow, subs = r, cells
				break
			}
		}
	}
	if len(subs) == 0 {
		return nil, nil, structureNotFound(sheet, l.diagnosticRows, "no sub-period header row found")
	}

	var markers []yearMarker
	for r := subRow - 1; r >= 0 && len(markers) == 0; r-- {
		markers = l.yearMarkerRow(sheet, r, opts)
	}
	if len(markers) == 0 {
		return nil, nil, structureNotFound(sheet, l.diagnosticRows, "no year marker row above row %d", subRow)
	}

	per := int(opts.Cadence)
	var (
		periods  []model.PeriodMapping
		warnings []string
		mi       = -1
		group    = -1
		k, first int
	)
	for _, sc := range subs {
		for mi+1 < len(markers) && markers[mi+1].col <= sc.col {
			mi++
		}
		if mi < 0 {
			warnings = append(warnings, fmt.Sprintf("sub-period at column %d precedes every year marker", sc.col))
			continue
		}
		if mi != group {
			group, k, first = mi, 0, sc.sub
		} else {
			k++
		}
		// 单个年份标记覆盖多年时，每满一个周期年份加一
		offset := first - 1 + k
		if expected := offset%per + 1; sc.sub != expected {
			return nil, warnings, structureNotFound(sheet, l.diagnosticRows,
				"irregular sub-period sequence after year marker %d: expected %d, found %d at column %d",
				markers[mi].year, expected, sc.sub, sc.col)
		}
		year := markers[mi].year + offset/per
		periods = append(periods, model.NewPeriodMapping(sc.col, year, sc.sub, opts.Cadence))
	}
	return periods, warnings, nil
}

func (l *Locator) subPeriodRow(sheet model.Sheet, row int, opts LocateOptions) []subPeriodCell {
	if row < 0 || row >= len(sheet.Rows) {
		return nil
	}
	var cells []subPeriodCell
	for c := opts.LabelColumn + 1; c < len(sheet.Rows[row]); c++ {
		cell := sheet.At(row, c)
		if cell.Kind != model.TextCell {
			continue
		}
		if sub, ok := l.subPeriodToken(cleanToken(cell.Text), opts.Cadence); ok {
			cells = append(cells, subPeriodCell{col: c, sub: sub})
		}
	}
	return cells
}

func (l *Locator) yearMarkerRow(sheet model.Sheet, row int, opts LocateOptions) []yearMarker {
	var markers []yearMarker
	for c := opts.LabelColumn + 1; c < len(sheet.Rows[row]); c++ {
		if y, ok := l.yearMarker(sheet.At(row, c), opts.Now); ok {
			markers = append(markers, yearMarker{col: c, year: y})
		}
	}
	return markers
}

func (l *Locator) yearMarker(cell model.Cell, now time.Time) (int, bool) {
	switch cell.Kind {
	case model.NumberCell:
		if cell.Num != math.Trunc(cell.Num) {
			return 0, false
		}
		y := int(cell.Num)
		return y, l.plausibleYear(y, now)
	case model.TextCell:
		text := cleanToken(cell.Text)
		m := reYearMarker.FindStringSubmatch(text)
		if m == nil {
			m = reYearOnly.FindStringSubmatch(text)
		}
		if m == nil {
			return 0, false
		}
		y, _ := strconv.Atoi(m[1])
		return y, l.plausibleYear(y, now)
	}
	return 0, false
}

func (l *Locator) plausibleYear(y int, now time.Time) bool {
	return y >= l.minYear && y <= now.Year()+1
}

// subPeriodToken 识别子期别文本（季度/半年/月份）
func (l *Locator) subPeriodToken(text string, cadence model.Cadence) (int, bool) {
	switch cadence {
	case model.Quarterly:
		m := reQuarter.FindStringSubmatch(text)
		if m == nil {
			return 0, false
		}
		for _, g := range m[1:4] {
			if g != "" {
				return atoi(g), true
			}
		}
		return romanQuarter(m[4])
	case model.Semiannual:
		m := reSemester.FindStringSubmatch(text)
		if m == nil {
			return 0, false
		}
		for _, g := range m[1:] {
			if g != "" {
				return atoi(g), true
			}
		}
		return 0, false
	default:
		return l.dates.Month(text)
	}
}

func romanQuarter(s string) (int, bool) {
	switch s {
	case "i":
		return 1, true
	case "ii":
		return 2, true
	case "iii":
		return 3, true
	case "iv":
		return 4, true
	}
	return 0, false
}

// cleanToken 规范化表头文本并去掉脚注标记
func cleanToken(s string) string {
	s = reFootnote.ReplaceAllString(NormalizeText(s), "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func (l *Locator) singleRowPeriods(sheet model.Sheet, opts LocateOptions, limit int, anchors []model.EntityAnchor) ([]model.PeriodMapping, []string) {
	if opts.HeaderRow > 0 {
		row := opts.HeaderRow - 1
		// 指定行无期别时退到下一行
		for _, r := range []int{row, row + 1} {
			if periods := l.periodRow(sheet, r, opts); len(periods) >= 2 {
				return periods, nil
			}
		}
	} else {
		for r := 0; r < limit; r++ {
			if periods := l.periodRow(sheet, r, opts); len(periods) >= 2 {
				return periods, nil
			}
		}
	}
	return l.synthesizePeriods(sheet, opts, anchors)
}

func (l *Locator) periodRow(sheet model.Sheet, row int, opts LocateOptions) []model.PeriodMapping {
	if row < 0 || row >= len(sheet.Rows) {
		return nil
	}
	var periods []model.PeriodMapping
	for c := opts.LabelColumn + 1; c < len(sheet.Rows[row]); c++ {
		if year, sub, ok := l.periodOfCell(sheet.At(row, c), opts); ok {
			periods = append(periods, model.NewPeriodMapping(c, year, sub, opts.Cadence))
		}
	}
	return periods
}

// periodOfCell 单元格 -> (年, 子期别)
func (l *Locator) periodOfCell(cell model.Cell, opts LocateOptions) (int, int, bool) {
	switch cell.Kind {
	case model.EmptyCell:
		return 0, 0, false
	case model.NumberCell, model.DateCell:
		return l.periodOfDate(cell, opts)
	}

	if y, s, ok := l.periodOfDate(cell, opts); ok {
		return y, s, true
	}

	text := cleanToken(cell.Text)
	loc := reYearAny.FindStringSubmatchIndex(text)
	if loc == nil {
		return 0, 0, false
	}
	year := atoi(text[loc[2]:loc[3]])
	if !l.plausibleYear(year, opts.Now) {
		return 0, 0, false
	}
	rest := text[:loc[0]] + " " + text[loc[1]:]
	rest = strings.ReplaceAll(rest, "ano", " ")
	rest = reTokenTrim.ReplaceAllString(whitespaceRe.ReplaceAllString(rest, " "), "")
	sub, ok := l.subPeriodToken(rest, opts.Cadence)
	if !ok {
		return 0, 0, false
	}
	return year, sub, true
}

func (l *Locator) periodOfDate(cell model.Cell, opts LocateOptions) (int, int, bool) {
	key, ok := l.dates.Extract(cell)
	if !ok {
		return 0, 0, false
	}
	t, err := time.Parse("2006-01-02", key)
	if err != nil || !l.plausibleYear(t.Year(), opts.Now) {
		return 0, 0, false
	}
	if opts.Cadence == model.Monthly {
		return t.Year(), int(t.Month()), true
	}
	return t.Year(), opts.Cadence.SubPeriodOf(t), true
}

// synthesizePeriods 无表头时：按首个实体行的有数据列，从当前期的上一期向前倒推
func (l *Locator) synthesizePeriods(sheet model.Sheet, opts LocateOptions, anchors []model.EntityAnchor) ([]model.PeriodMapping, []string) {
	row := -1
	if len(anchors) > 0 {
		row = anchors[0].RowIndex
	} else {
		for r := range sheet.Rows {
			if len(numericColumns(sheet, r, opts.LabelColumn)) >= 2 {
				row = r
				break
			}
		}
	}
	if row < 0 {
		return nil, nil
	}
	cols := numericColumns(sheet, row, opts.LabelColumn)
	if len(cols) == 0 {
		return nil, nil
	}

	year, sub := opts.Cadence.Shift(opts.Now.Year(), opts.Cadence.SubPeriodOf(opts.Now), -1)
	periods := make([]model.PeriodMapping, len(cols))
	for i := len(cols) - 1; i >= 0; i-- {
		periods[i] = model.NewPeriodMapping(cols[i], year, sub, opts.Cadence)
		year, sub = opts.Cadence.Shift(year, sub, -1)
	}
	warning := fmt.Sprintf("no period header found, synthesized %d periods ending %s", len(periods), periods[len(periods)-1].PeriodLabel)
	return periods, []string{warning}
}

func numericColumns(sheet model.Sheet, row, labelCol int) []int {
	var cols []int
	if row < 0 || row >= len(sheet.Rows) {
		return cols
	}
	for c := labelCol + 1; c < len(sheet.Rows[row]); c++ {
		if _, ok := sheet.At(row, c).Float(); ok {
			cols = append(cols, c)
		}
	}
	return cols
}
