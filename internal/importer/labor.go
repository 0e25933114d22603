package importer

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"indecstat/internal/model"
	"indecstat/internal/parser"
	"indecstat/internal/store"
)

// LaborName 劳动力市场指标名
const LaborName = "labor"

const minRegionalSheetScore = 0.6

// 劳动力市场来源
const (
	LaborNationalSource = "eph-national"
	LaborRegionalSource = "eph-regional"
)

// Labor EPH 季度劳动力市场指标（活动率/就业率/失业率）
// 全国来源每行一个指标，分地区来源每个指标一张表
type Labor struct {
	dict     LaborDictionary
	sources  []Source
	locator  *parser.Locator
	metrics  *parser.Matcher
	entities *parser.Matcher
	now      func() time.Time
}

// DefaultLaborSources EPH 全国与分地区季度文件
func DefaultLaborSources() []Source {
	return []Source{
		{
			Name:    LaborNationalSource,
			Cadence: model.Quarterly,
			URLTemplates: []string{
				"https://www.indec.gob.ar/ftp/cuadros/sociedad/cuadros_eph_informe_{Q}_{YY}.xls",
			},
			Lookback: 4,
		},
		{
			Name:    LaborRegionalSource,
			Cadence: model.Quarterly,
			URLTemplates: []string{
				"https://www.indec.gob.ar/ftp/cuadros/sociedad/EPH_tasas_regiones_{Q}trim{YY}.xlsx",
			},
			PageURL:     "https://www.indec.gob.ar/indec/web/Nivel4-Tema-4-31-58",
			LinkPattern: `(?i)eph.*tasas.*\.xlsx?$`,
			Lookback:    4,
		},
	}
}

// NewLabor 创建劳动力市场指标，sources 为空时使用默认来源
func NewLabor(dict LaborDictionary, sources []Source) *Labor {
	if len(sources) == 0 {
		sources = DefaultLaborSources()
	}
	return &Labor{
		dict:     dict,
		sources:  sources,
		locator:  parser.NewLocator(nil),
		metrics:  parser.NewMatcher(dict.Metrics...),
		entities: parser.NewMatcher(dict.Entities...),
		now:      time.Now,
	}
}

func (l *Labor) Name() string      { return LaborName }
func (l *Labor) Sources() []Source { return l.sources }

// Extract 按来源类型抽取，同一来源内按自然键合并字段
func (l *Labor) Extract(wb *model.Workbook, src Source, file string) ([]model.CanonicalRecord, []model.SheetResult, error) {
	var (
		records []model.CanonicalRecord
		sheets  []model.SheetResult
		err     error
	)
	if src.Name == LaborRegionalSource {
		records, sheets, err = l.extractRegional(wb, src, file)
	} else {
		records, sheets, err = l.extractNational(wb, src, file)
	}
	if err != nil {
		return nil, sheets, err
	}
	return Fold(records), sheets, nil
}

func (l *Labor) locateOptions(src Source, entities *parser.Matcher) parser.LocateOptions {
	cadence := src.Cadence
	if cadence == 0 {
		cadence = model.Quarterly
	}
	return parser.LocateOptions{
		Entities: entities,
		Layout:   parser.TwoLevelHeader,
		Cadence:  cadence,
		Now:      l.now(),
	}
}

// extractNational 行即指标，实体固定为全国汇总
func (l *Labor) extractNational(wb *model.Workbook, src Source, file string) ([]model.CanonicalRecord, []model.SheetResult, error) {
	sheet, _, ok := parser.ResolveSheet(wb, l.dict.NationalSheets...)
	if !ok {
		return nil, nil, missingSheet(wb, "EPH national rates")
	}
	layout, err := l.locator.Locate(sheet, l.locateOptions(src, l.metrics))
	if err != nil {
		return nil, []model.SheetResult{skippedSheet(sheet.Name, err)}, err
	}

	records, stats := parser.Extract(sheet, layout.Periods, layout.Entities, parser.ExtractOptions{
		FieldFromAnchor: true,
		EntityCode:      model.AggregateEntityCode,
		EntityName:      model.RegionTotal,
		CategoryType:    model.CategoryNational,
		Region:          model.RegionTotal,
		SourceFile:      file,
	})
	stats.Warnings = append(layout.Warnings, stats.Warnings...)
	return records, []model.SheetResult{sheetResult(sheet.Name, stats)}, nil
}

// extractRegional 每个指标一张表，行为地区/人群
func (l *Labor) extractRegional(wb *model.Workbook, src Source, file string) ([]model.CanonicalRecord, []model.SheetResult, error) {
	fields := make([]string, 0, len(l.dict.RegionalSheets))
	for f := range l.dict.RegionalSheets {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var (
		records []model.CanonicalRecord
		sheets  []model.SheetResult
		errs    []error
	)
	for _, field := range fields {
		// 单表工作簿的回退不适用：三个指标不能共用一张表
		sheet, score, ok := parser.ResolveSheet(wb, l.dict.RegionalSheets[field]...)
		if !ok || score < minRegionalSheetScore {
			err := missingSheet(wb, field)
			sheets = append(sheets, skippedSheet(field, err))
			errs = append(errs, err)
			continue
		}
		layout, err := l.locator.Locate(sheet, l.locateOptions(src, l.entities))
		if err != nil {
			sheets = append(sheets, skippedSheet(sheet.Name, err))
			errs = append(errs, err)
			continue
		}
		recs, stats := parser.Extract(sheet, layout.Periods, layout.Entities, parser.ExtractOptions{
			Field:      field,
			SourceFile: file,
		})
		stats.Warnings = append(layout.Warnings, stats.Warnings...)
		sheets = append(sheets, sheetResult(sheet.Name, stats))
		records = append(records, recs...)
	}

	if len(records) == 0 {
		if len(errs) == 0 {
			errs = append(errs, &parser.StructureNotFoundError{Reason: "regional labor sheets contain no values"})
		}
		return nil, sheets, fmt.Errorf("no regional labor sheet could be read: %w", errors.Join(errs...))
	}
	return records, sheets, nil
}

var laborColumns = []string{
	"date", "period_label", "entity_code", "entity_name", "category_type", "region",
	"activity_rate", "employment_rate", "unemployment_rate", "source_file",
}

// Batch labor_market 写入批次
func (l *Labor) Batch(records []model.CanonicalRecord) (store.Batch, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.Date, r.PeriodLabel, r.EntityCode, r.EntityName, r.CategoryType, r.Region,
			valueOrNil(r, FieldActivityRate), valueOrNil(r, FieldEmploymentRate),
			valueOrNil(r, FieldUnemploymentRate), r.SourceFile,
		})
	}
	return store.Batch{
		Table:       "labor_market",
		Columns:     laborColumns,
		ConflictKey: []string{"date", "entity_code", "region", "category_type"},
		Rows:        rows,
	}, nil
}
