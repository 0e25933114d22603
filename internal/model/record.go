package model

import (
	"fmt"
	"time"
)

// Cadence 期别频率（每年期数）
type Cadence int

const (
	Monthly    Cadence = 12
	Quarterly  Cadence = 4
	Semiannual Cadence = 2
)

// PeriodStart 期别起始日（统一口径：期初当月 01 日）
func (c Cadence) PeriodStart(year, sub int) string {
	month := (sub-1)*(12/int(c)) + 1
	return fmt.Sprintf("%04d-%02d-01", year, month)
}

// Label 期别标签，如 "T3 2021" / "S1 2021" / "2021-03"
func (c Cadence) Label(year, sub int) string {
	switch c {
	case Quarterly:
		return fmt.Sprintf("T%d %d", sub, year)
	case Semiannual:
		return fmt.Sprintf("S%d %d", sub, year)
	default:
		return fmt.Sprintf("%04d-%02d", year, sub)
	}
}

// Shift 按频率回退/前进 n 期
func (c Cadence) Shift(year, sub, n int) (int, int) {
	per := int(c)
	idx := year*per + (sub - 1) + n
	return idx / per, idx%per + 1
}

// SubPeriodOf 某日期所在的期别序号
func (c Cadence) SubPeriodOf(t time.Time) int {
	return (int(t.Month())-1)/(12/int(c)) + 1
}

// PeriodMapping 列 -> 期别
type PeriodMapping struct {
	ColumnIndex   int     `json:"columnIndex"`
	Year          int     `json:"year"`
	SubPeriod     int     `json:"subPeriod"`
	Cadence       Cadence `json:"cadence"`
	PeriodLabel   string  `json:"periodLabel"`
	CanonicalDate string  `json:"canonicalDate"`
}

// NewPeriodMapping 按频率生成标签与期初日期
func NewPeriodMapping(col, year, sub int, cadence Cadence) PeriodMapping {
	return PeriodMapping{
		ColumnIndex:   col,
		Year:          year,
		SubPeriod:     sub,
		Cadence:       cadence,
		PeriodLabel:   cadence.Label(year, sub),
		CanonicalDate: cadence.PeriodStart(year, sub),
	}
}

// 实体类别
const (
	CategoryRegion             = "region"
	CategoryComponent          = "component"
	CategoryDemographicSegment = "demographic_segment"
	CategoryNational           = "national"
	CategoryRegional           = "regional"
	CategoryDemographic        = "demographic"

	CategoryGeneral   = "GENERAL"
	CategoryRubro     = "RUBRO"
	CategoryCategoria = "CATEGORIA"
	CategoryBYS       = "BYS"
)

// 全国/不分组的汇总口径
const (
	AggregateEntityCode = "TOTAL"
	RegionTotal         = "Total"
	RegionNacional      = "Nacional"
)

// EntityAnchor 行 -> 实体（地区/成分/人群）
type EntityAnchor struct {
	RowIndex      int    `json:"rowIndex"`
	CanonicalName string `json:"canonicalName"`
	Code          string `json:"code"`
	Category      string `json:"category"`
	Region        string `json:"region,omitempty"` // 实体自带的地区口径，空则由抽取参数决定
}

// Metrics 字段名 -> 可空数值
type Metrics map[string]*float64

// Float 便捷构造可空数值
func Float(v float64) *float64 { return &v }

// CanonicalRecord 统一口径输出记录
type CanonicalRecord struct {
	Date         string  `json:"date"`
	PeriodLabel  string  `json:"periodLabel"`
	EntityCode   string  `json:"entityCode"`
	EntityName   string  `json:"entityName"`
	CategoryType string  `json:"categoryType"`
	Region       string  `json:"region"`
	Values       Metrics `json:"values"`
	SourceFile   string  `json:"sourceFile"`
}

// NaturalKey (date, entity_code, region, category_type)
type NaturalKey struct {
	Date         string
	EntityCode   string
	Region       string
	CategoryType string
}

// Key 记录的自然键
func (r CanonicalRecord) Key() NaturalKey {
	return NaturalKey{Date: r.Date, EntityCode: r.EntityCode, Region: r.Region, CategoryType: r.CategoryType}
}

// Value 取单个字段值
func (r CanonicalRecord) Value(field string) (float64, bool) {
	v, ok := r.Values[field]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// IsAggregate 是否为全国汇总记录（不分地区/人群）
func (r CanonicalRecord) IsAggregate() bool {
	return r.EntityCode == AggregateEntityCode && r.Region == RegionTotal && r.CategoryType == CategoryNational
}

// Observation 原始时间序列点
type Observation struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// TimeSeriesPoint 季节调整结果
type TimeSeriesPoint struct {
	Date                 string   `json:"date"`
	Value                float64  `json:"value"`
	OriginalValue        float64  `json:"originalValue"`
	IsSeasonallyAdjusted bool     `json:"isSeasonallyAdjusted"`
	CycleTrendValue      *float64 `json:"cycleTrendValue"`
}
