package importer

import (
	"fmt"

	"indecstat/internal/model"
	"indecstat/internal/parser"
	"indecstat/internal/store"
)

// Source 一个下载来源（一份工作簿）
type Source struct {
	Name         string        `json:"name"`
	Cadence      model.Cadence `json:"cadence"`
	URLTemplates []string      `json:"urlTemplates"` // 支持 {YYYY} {YY} {MM} {M} {Q} {S}
	PageURL      string        `json:"pageUrl,omitempty"`
	LinkPattern  string        `json:"linkPattern,omitempty"` // 发布页链接过滤（正则）
	Lookback     int           `json:"lookback"`              // 向前回溯的期数
}

// Indicator 一个统计指标的采集规则
type Indicator interface {
	Name() string
	Sources() []Source
	// Extract 从一份工作簿抽取记录；file 为来源文件名
	Extract(wb *model.Workbook, src Source, file string) ([]model.CanonicalRecord, []model.SheetResult, error)
	// Batch 将合并后的记录转换为写入批次
	Batch(records []model.CanonicalRecord) (store.Batch, error)
}

// WithSources 替换指标的数据来源（按名称覆盖，未配置的保持默认）
func WithSources(defaults []Source, overrides map[string]Source) []Source {
	out := make([]Source, len(defaults))
	for i, s := range defaults {
		o, ok := overrides[s.Name]
		if !ok {
			out[i] = s
			continue
		}
		if len(o.URLTemplates) > 0 {
			s.URLTemplates = o.URLTemplates
		}
		if o.PageURL != "" {
			s.PageURL = o.PageURL
		}
		if o.LinkPattern != "" {
			s.LinkPattern = o.LinkPattern
		}
		if o.Lookback > 0 {
			s.Lookback = o.Lookback
		}
		out[i] = s
	}
	return out
}

func sheetResult(name string, stats parser.ExtractStats) model.SheetResult {
	return model.SheetResult{
		SheetName:      name,
		Status:         "imported",
		Records:        stats.Records,
		MalformedCells: stats.Malformed,
		DuplicateKeys:  stats.Duplicates,
		Warnings:       stats.Warnings,
	}
}

func skippedSheet(name string, err error) model.SheetResult {
	return model.SheetResult{SheetName: name, Status: "skipped", Errors: []string{err.Error()}}
}

func valueOrNil(r model.CanonicalRecord, field string) *float64 {
	if v, ok := r.Value(field); ok {
		return model.Float(v)
	}
	return nil
}

func missingSheet(wb *model.Workbook, what string) error {
	return &parser.StructureNotFoundError{
		Reason: fmt.Sprintf("no %s sheet among %q", what, wb.SheetNames()),
	}
}
