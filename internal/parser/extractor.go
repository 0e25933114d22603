package parser

import (
	"fmt"
	"sort"

	"indecstat/internal/model"
)

// DefaultField 单指标记录的字段名
const DefaultField = "value"

// defaultLookahead 分节窗口最大行数
const defaultLookahead = 15

// ExtractOptions 记录抽取参数
type ExtractOptions struct {
	LabelColumn int
	Field       string // 取值字段名，缺省 "value"

	// FieldFromAnchor 为 true 时，行代表指标（字段名取实体代码），
	// 实体固定为 EntityCode/EntityName
	FieldFromAnchor bool
	EntityCode      string
	EntityName      string

	CategoryType string // 为空时取实体类别
	Region       string // 实体未自带地区时使用，缺省 "Nacional"
	SourceFile   string

	// ValueRowOffsets 实体代码 -> 取值行相对名称行的偏移
	ValueRowOffsets map[string]int
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.Field == "" {
		o.Field = DefaultField
	}
	if o.Region == "" {
		o.Region = model.RegionNacional
	}
	return o
}

// ExtractStats 抽取过程中的软错误计数
type ExtractStats struct {
	Records    int      `json:"records"`
	Malformed  int      `json:"malformed"`  // 非数值单元格
	Duplicates int      `json:"duplicates"` // 重复自然键
	Warnings   []string `json:"warnings,omitempty"`
}

// Merge 累加计数
func (s *ExtractStats) Merge(o ExtractStats) {
	s.Records += o.Records
	s.Malformed += o.Malformed
	s.Duplicates += o.Duplicates
	s.Warnings = append(s.Warnings, o.Warnings...)
}

type fieldKey struct {
	model.NaturalKey
	field string
}

type recordSink struct {
	opts    ExtractOptions
	seen    map[fieldKey]struct{}
	records []model.CanonicalRecord
	stats   ExtractStats
}

func newRecordSink(opts ExtractOptions) *recordSink {
	return &recordSink{opts: opts, seen: make(map[fieldKey]struct{})}
}

// emit 逐期别写出一行的数值单元格；空单元格跳过，非数值计为 malformed
func (s *recordSink) emit(sheet model.Sheet, row int, periods []model.PeriodMapping, base model.CanonicalRecord, field string) {
	for _, p := range periods {
		cell := sheet.At(row, p.ColumnIndex)
		if cell.IsEmpty() {
			continue
		}
		v, ok := cell.Float()
		if !ok {
			s.stats.Malformed++
			continue
		}
		rec := base
		rec.Date = p.CanonicalDate
		rec.PeriodLabel = p.PeriodLabel
		rec.Values = model.Metrics{field: model.Float(v)}
		// 行即指标时同一自然键有多个字段，按 (键, 字段) 去重
		k := fieldKey{NaturalKey: rec.Key(), field: field}
		if _, dup := s.seen[k]; dup {
			s.stats.Duplicates++
			continue
		}
		s.seen[k] = struct{}{}
		s.records = append(s.records, rec)
	}
}

func (s *recordSink) result() ([]model.CanonicalRecord, ExtractStats) {
	sort.SliceStable(s.records, func(i, j int) bool { return s.records[i].Date < s.records[j].Date })
	s.stats.Records = len(s.records)
	return s.records, s.stats
}

// Extract 按 (实体, 期别) 抽取记录；同一自然键（及字段）保留首条
func Extract(sheet model.Sheet, periods []model.PeriodMapping, anchors []model.EntityAnchor, opts ExtractOptions) ([]model.CanonicalRecord, ExtractStats) {
	opts = opts.withDefaults()
	sink := newRecordSink(opts)

	for _, a := range anchors {
		row := a.RowIndex + opts.ValueRowOffsets[a.Code]
		base := model.CanonicalRecord{
			EntityCode:   a.Code,
			EntityName:   a.CanonicalName,
			CategoryType: opts.CategoryType,
			Region:       a.Region,
			SourceFile:   opts.SourceFile,
		}
		field := opts.Field
		if opts.FieldFromAnchor {
			field = a.Code
			base.EntityCode = opts.EntityCode
			base.EntityName = opts.EntityName
		}
		if base.CategoryType == "" {
			base.CategoryType = a.Category
		}
		if base.Region == "" {
			base.Region = opts.Region
		}
		sink.emit(sheet, row, periods, base, field)
	}
	return sink.result()
}

// Section 层级文档中的一节（如 "Nivel general"、各分类、"Categorías"）
type Section struct {
	Name         string
	Header       *Matcher // 节标题；nil 表示紧接上一节开始
	Expected     *Matcher // 节内期望名称
	CategoryType string
	Lookahead    int      // 窗口行数，缺省 15
	Stop         *Matcher // 下一节标题（完全相等即停止）
}

// ExtractSections 在块内依次按节抽取：每节从标题行下方开始，
// 在有限窗口内匹配期望名称，遇到下一节标题提前结束
func ExtractSections(sheet model.Sheet, periods []model.PeriodMapping, block Block, sections []Section, opts ExtractOptions) ([]model.CanonicalRecord, ExtractStats) {
	opts = opts.withDefaults()
	opts.Region = block.Region()
	sink := newRecordSink(opts)

	end := min(block.EndRow, len(sheet.Rows))
	cursor := block.StartRow
	if block.Titled {
		cursor++
	}

	for _, sec := range sections {
		start := cursor
		if sec.Header != nil {
			start = -1
			for r := cursor; r < end; r++ {
				if _, ok := sec.Header.Match(sheet.At(r, opts.LabelColumn).String()); ok {
					start = r + 1
					break
				}
			}
			if start < 0 {
				sink.stats.Warnings = append(sink.stats.Warnings,
					fmt.Sprintf("section %q header not found in block %q", sec.Name, block.Region()))
				continue
			}
		}

		lookahead := sec.Lookahead
		if lookahead <= 0 || lookahead > defaultLookahead {
			lookahead = defaultLookahead
		}
		windowEnd := min(start+lookahead, end)

		next := start
		matched := make(map[string]struct{})
		for r := start; r < windowEnd; r++ {
			label := sheet.At(r, opts.LabelColumn)
			if label.Kind != model.TextCell {
				continue
			}
			if _, stop := sec.Stop.Exact(label.Text); stop {
				next = r
				break
			}
			p, ok := sec.Expected.Match(label.Text)
			if !ok {
				continue
			}
			next = r + 1
			if _, dup := matched[p.Code]; dup {
				continue
			}
			matched[p.Code] = struct{}{}
			sink.emit(sheet, r, periods, model.CanonicalRecord{
				EntityCode:   p.Code,
				EntityName:   p.Name,
				CategoryType: sec.CategoryType,
				Region:       opts.Region,
				SourceFile:   opts.SourceFile,
			}, opts.Field)
		}
		if len(matched) == 0 {
			sink.stats.Warnings = append(sink.stats.Warnings,
				fmt.Sprintf("section %q: no expected rows in block %q", sec.Name, block.Region()))
		}
		cursor = next
	}
	return sink.result()
}
