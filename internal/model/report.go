package model

import "time"

// RunStatus 单次采集结果状态
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunError   RunStatus = "error"
)

// SheetResult 单个 Sheet 的解析结果
type SheetResult struct {
	SheetName      string   `json:"sheetName"`
	Status         string   `json:"status"` // imported/skipped/error
	Records        int      `json:"records"`
	MalformedCells int      `json:"malformedCells"`
	DuplicateKeys  int      `json:"duplicateKeys"`
	Warnings       []string `json:"warnings,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}

// SourceResult 单个数据源（一份下载文件）的处理结果
type SourceResult struct {
	Source   string        `json:"source"`
	URL      string        `json:"url"`
	Status   string        `json:"status"` // imported/error
	Attempts int           `json:"attempts"`
	Records  int           `json:"records"`
	Sheets   []SheetResult `json:"sheets"`
	Error    string        `json:"error,omitempty"`
}

// RunReport 单个指标一次采集的报告（返回给调度方）
type RunReport struct {
	RunID     string         `json:"runId"`
	Indicator string         `json:"indicator"`
	Status    RunStatus      `json:"status"`
	Records   int            `json:"records"`
	Upserted  int            `json:"upserted"`
	Sources   []SourceResult `json:"sources"`
	Errors    []string       `json:"errors,omitempty"`
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"duration"`
}
