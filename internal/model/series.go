package model

import "time"

// EMAERow emae 表的一行
type EMAERow struct {
	Date                    string   `json:"date"`
	OriginalValue           *float64 `json:"originalValue"`
	SeasonallyAdjustedValue *float64 `json:"seasonallyAdjustedValue"`
	CycleTrendValue         *float64 `json:"cycleTrendValue"`
	IsSeasonallyAdjusted    bool     `json:"isSeasonallyAdjusted"`
	SourceFile              string   `json:"sourceFile"`
}

// IPCRow ipc_components 表的一行
type IPCRow struct {
	Date          string   `json:"date"`
	PeriodLabel   string   `json:"periodLabel"`
	ComponentCode string   `json:"componentCode"`
	ComponentName string   `json:"componentName"`
	CategoryType  string   `json:"categoryType"`
	Region        string   `json:"region"`
	IndexValue    *float64 `json:"indexValue"`
	SourceFile    string   `json:"sourceFile"`
}

// LaborRow labor_market 表的一行
type LaborRow struct {
	Date             string   `json:"date"`
	PeriodLabel      string   `json:"periodLabel"`
	EntityCode       string   `json:"entityCode"`
	EntityName       string   `json:"entityName"`
	CategoryType     string   `json:"categoryType"`
	Region           string   `json:"region"`
	ActivityRate     *float64 `json:"activityRate"`
	EmploymentRate   *float64 `json:"employmentRate"`
	UnemploymentRate *float64 `json:"unemploymentRate"`
	SourceFile       string   `json:"sourceFile"`
}

// SeriesFilter 序列查询条件，空值表示不过滤
type SeriesFilter struct {
	From         string `form:"from"`
	To           string `form:"to"`
	Region       string `form:"region"`
	CategoryType string `form:"category"`
	Code         string `form:"code"`
}

// ImportLog 采集日志
type ImportLog struct {
	RunID        string     `json:"runId"`
	Indicator    string     `json:"indicator"`
	Status       string     `json:"status"`
	Records      int        `json:"records"`
	Upserted     int        `json:"upserted"`
	Sources      string     `json:"sources"` // SourceResult 列表（JSON）
	ErrorMessage string     `json:"errorMessage"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
	DurationMs   int64      `json:"durationMs"`
}
