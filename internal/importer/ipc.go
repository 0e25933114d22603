package importer

import (
	"time"

	"indecstat/internal/model"
	"indecstat/internal/parser"
	"indecstat/internal/store"
)

// IPCName IPC 指标名
const IPCName = "ipc"

// IPC 消费者价格指数：各地区按块纵向堆叠，块内分 GENERAL/RUBRO/CATEGORIA/BYS 四节
type IPC struct {
	dict     IPCDictionary
	sources  []Source
	locator  *parser.Locator
	regions  *parser.Matcher
	sections []parser.Section
	now      func() time.Time
}

// DefaultIPCSources INDEC 发布的 IPC 分类指数文件
func DefaultIPCSources() []Source {
	return []Source{{
		Name:    "ipc-aperturas",
		Cadence: model.Monthly,
		URLTemplates: []string{
			"https://www.indec.gob.ar/ftp/cuadros/economia/sh_ipc_{MM}_{YY}.xls",
			"https://www.indec.gob.ar/ftp/cuadros/economia/sh_ipc_aperturas.xls",
		},
		PageURL:     "https://www.indec.gob.ar/indec/web/Nivel4-Tema-3-5-31",
		LinkPattern: `sh_ipc.*\.xlsx?$`,
		Lookback:    3,
	}}
}

// NewIPC 创建 IPC 指标，sources 为空时使用默认来源
func NewIPC(dict IPCDictionary, sources []Source) *IPC {
	if len(sources) == 0 {
		sources = DefaultIPCSources()
	}
	return &IPC{
		dict:     dict,
		sources:  sources,
		locator:  parser.NewLocator(nil),
		regions:  parser.NewMatcher(dict.Regions...),
		sections: dict.sections(),
		now:      time.Now,
	}
}

func (i *IPC) Name() string      { return IPCName }
func (i *IPC) Sources() []Source { return i.sources }

// Extract 定位日期表头与地区块，逐块按节抽取
func (i *IPC) Extract(wb *model.Workbook, src Source, file string) ([]model.CanonicalRecord, []model.SheetResult, error) {
	sheet, _, ok := parser.ResolveSheet(wb, i.dict.SheetNames...)
	if !ok {
		return nil, nil, missingSheet(wb, "IPC index")
	}

	periods, warnings, err := i.locator.LocatePeriods(sheet, parser.LocateOptions{
		Layout:  parser.SingleRowHeader,
		Cadence: src.Cadence,
		Now:     i.now(),
	}, nil)
	if err != nil {
		return nil, []model.SheetResult{skippedSheet(sheet.Name, err)}, err
	}

	var (
		records []model.CanonicalRecord
		stats   = parser.ExtractStats{Warnings: warnings}
	)
	for _, block := range i.locator.LocateBlocks(sheet, i.regions, 0) {
		recs, s := parser.ExtractSections(sheet, periods, block, i.sections, parser.ExtractOptions{
			Field:      FieldIndexValue,
			SourceFile: file,
		})
		records = append(records, recs...)
		stats.Merge(s)
	}
	stats.Records = len(records)

	if len(records) == 0 {
		err := &parser.StructureNotFoundError{Sheet: sheet.Name, Reason: "no IPC component rows matched"}
		return nil, []model.SheetResult{skippedSheet(sheet.Name, err)}, err
	}
	return records, []model.SheetResult{sheetResult(sheet.Name, stats)}, nil
}

var ipcColumns = []string{
	"date", "period_label", "component_code", "component_name",
	"category_type", "region", "index_value", "source_file",
}

// Batch ipc_components 写入批次
func (i *IPC) Batch(records []model.CanonicalRecord) (store.Batch, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.Date, r.PeriodLabel, r.EntityCode, r.EntityName,
			r.CategoryType, r.Region, valueOrNil(r, FieldIndexValue), r.SourceFile,
		})
	}
	return store.Batch{
		Table:       "ipc_components",
		Columns:     ipcColumns,
		ConflictKey: []string{"date", "component_code", "region", "category_type"},
		Rows:        rows,
	}, nil
}
