package importer

import (
	"fmt"
	"math"
	"time"

	"indecstat/internal/calculator"
	"indecstat/internal/model"
	"indecstat/internal/parser"
	"indecstat/internal/store"
)

// EMAEName EMAE 指标名
const EMAEName = "emae"

// EMAE 月度经济活动估算器：纵向排列的原始序列，季节调整与趋势循环在本地计算
type EMAE struct {
	dict    EMAEDictionary
	sources []Source
	locator *parser.Locator
	header  *parser.Matcher
	opts    calculator.Options
}

// DefaultEMAESources INDEC 发布的 EMAE 序列文件（地址固定）
func DefaultEMAESources() []Source {
	return []Source{{
		Name:    "emae-mensual",
		Cadence: model.Monthly,
		URLTemplates: []string{
			"https://www.indec.gob.ar/ftp/cuadros/economia/sh_emae_mensual_base2004.xls",
		},
		Lookback: 0,
	}}
}

// NewEMAE 创建 EMAE 指标，sources 为空时使用默认来源
func NewEMAE(dict EMAEDictionary, sources []Source, opts calculator.Options) *EMAE {
	if len(sources) == 0 {
		sources = DefaultEMAESources()
	}
	return &EMAE{
		dict:    dict,
		sources: sources,
		locator: parser.NewLocator(nil),
		header:  parser.NewMatcher(parser.Names(dict.ValueHeaders...)...),
		opts:    opts,
	}
}

func (e *EMAE) Name() string      { return EMAEName }
func (e *EMAE) Sources() []Source { return e.sources }

// Extract 读取原始序列，每月一条全国汇总记录
func (e *EMAE) Extract(wb *model.Workbook, src Source, file string) ([]model.CanonicalRecord, []model.SheetResult, error) {
	sheet, _, ok := parser.ResolveSheet(wb, e.dict.SheetNames...)
	if !ok {
		return nil, nil, missingSheet(wb, "EMAE")
	}

	obs, rs, err := e.locator.LocateRowSeries(sheet, parser.RowSeriesOptions{
		ValueHeader: e.header,
		ValueColumn: e.dict.ValueColumn,
		YearColumn:  e.dict.YearColumn,
		MonthColumn: e.dict.MonthColumn,
	})
	if err != nil {
		return nil, []model.SheetResult{skippedSheet(sheet.Name, err)}, err
	}

	records := make([]model.CanonicalRecord, 0, len(obs))
	for _, o := range obs {
		t, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			err = fmt.Errorf("row series date %q: %w", o.Date, err)
			return nil, []model.SheetResult{skippedSheet(sheet.Name, err)}, err
		}
		records = append(records, model.CanonicalRecord{
			Date:         o.Date,
			PeriodLabel:  model.Monthly.Label(t.Year(), int(t.Month())),
			EntityCode:   model.AggregateEntityCode,
			EntityName:   model.RegionTotal,
			CategoryType: model.CategoryNational,
			Region:       model.RegionTotal,
			Values:       model.Metrics{FieldOriginalValue: model.Float(o.Value)},
			SourceFile:   file,
		})
	}

	stats := parser.ExtractStats{Records: len(records), Malformed: rs.Malformed, Duplicates: rs.Duplicates}
	return records, []model.SheetResult{sheetResult(sheet.Name, stats)}, nil
}

var emaeColumns = []string{
	"date", "original_value", "seasonally_adjusted_value", "cycle_trend_value",
	"is_seasonally_adjusted", "source_file",
}

// Batch 对合并后的完整序列做季节调整与趋势循环，生成 emae 写入批次
func (e *EMAE) Batch(records []model.CanonicalRecord) (store.Batch, error) {
	obs := make([]model.Observation, 0, len(records))
	sources := make(map[string]string, len(records))
	for _, r := range records {
		v, ok := r.Value(FieldOriginalValue)
		if !ok || math.IsNaN(v) {
			continue
		}
		obs = append(obs, model.Observation{Date: r.Date, Value: v})
		sources[r.Date] = r.SourceFile
	}

	points, err := calculator.Decompose(obs, e.opts)
	if err != nil {
		return store.Batch{}, fmt.Errorf("seasonal adjustment failed: %w", err)
	}

	rows := make([][]any, 0, len(points))
	for _, p := range points {
		var adjusted *float64
		if p.IsSeasonallyAdjusted && !math.IsNaN(p.Value) {
			adjusted = model.Float(p.Value)
		}
		rows = append(rows, []any{
			p.Date, p.OriginalValue, adjusted, p.CycleTrendValue,
			p.IsSeasonallyAdjusted, sources[p.Date],
		})
	}
	return store.Batch{
		Table:       "emae",
		Columns:     emaeColumns,
		ConflictKey: []string{"date"},
		Rows:        rows,
	}, nil
}
