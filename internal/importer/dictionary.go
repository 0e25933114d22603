package importer

import (
	"indecstat/internal/model"
	"indecstat/internal/parser"
)

// 字段名
const (
	FieldIndexValue       = "index_value"
	FieldActivityRate     = "activity_rate"
	FieldEmploymentRate   = "employment_rate"
	FieldUnemploymentRate = "unemployment_rate"
	FieldOriginalValue    = "original_value"
)

// IPCDictionary IPC 文档的期望名称
type IPCDictionary struct {
	SheetNames    []string
	Regions       []parser.NamePattern
	General       []parser.NamePattern
	Divisions     []parser.NamePattern
	Categories    []parser.NamePattern
	GoodsServices []parser.NamePattern

	CategoriesHeader    []string
	GoodsServicesHeader []string
}

// DefaultIPCDictionary INDEC 消费者价格指数（IPC）各地区 / 分类
func DefaultIPCDictionary() IPCDictionary {
	return IPCDictionary{
		SheetNames: []string{"Índices IPC Cobertura Nacional", "Índices aperturas", "Índices"},
		Regions: []parser.NamePattern{
			{Pattern: "Total nacional", Name: model.RegionNacional, Category: model.CategoryRegion},
			{Pattern: "GBA", Name: "GBA", Category: model.CategoryRegion},
			{Pattern: "Pampeana", Name: "Pampeana", Category: model.CategoryRegion},
			{Pattern: "Noreste", Name: "Noreste", Category: model.CategoryRegion},
			{Pattern: "Noroeste", Name: "Noroeste", Category: model.CategoryRegion},
			{Pattern: "Cuyo", Name: "Cuyo", Category: model.CategoryRegion},
			{Pattern: "Patagonia", Name: "Patagonia", Category: model.CategoryRegion},
		},
		General: parser.Names("Nivel general"),
		Divisions: parser.Names(
			"Alimentos y bebidas no alcohólicas",
			"Bebidas alcohólicas y tabaco",
			"Prendas de vestir y calzado",
			"Vivienda, agua, electricidad, gas y otros combustibles",
			"Equipamiento y mantenimiento del hogar",
			"Salud",
			"Transporte",
			"Comunicación",
			"Recreación y cultura",
			"Educación",
			"Restaurantes y hoteles",
			"Bienes y servicios varios",
		),
		Categories:          parser.Names("Estacional", "Núcleo", "Regulados"),
		GoodsServices:       parser.Names("Bienes", "Servicios"),
		CategoriesHeader:    []string{"Categorías"},
		GoodsServicesHeader: []string{"Bienes y servicios"},
	}
}

// sections 按文档顺序的分节定义
func (d IPCDictionary) sections() []parser.Section {
	catHeader := parser.NewMatcher(parser.Names(d.CategoriesHeader...)...)
	bysHeader := parser.NewMatcher(parser.Names(d.GoodsServicesHeader...)...)
	rubroStop := parser.NewMatcher(parser.Names(append(append([]string{}, d.CategoriesHeader...), d.GoodsServicesHeader...)...)...)

	return []parser.Section{
		{Name: "general", Expected: parser.NewMatcher(d.General...), CategoryType: model.CategoryGeneral, Lookahead: 3, Stop: rubroStop},
		{Name: "rubros", Expected: parser.NewMatcher(d.Divisions...), CategoryType: model.CategoryRubro, Stop: rubroStop},
		{Name: "categorias", Header: catHeader, Expected: parser.NewMatcher(d.Categories...), CategoryType: model.CategoryCategoria, Lookahead: 6, Stop: bysHeader},
		{Name: "bys", Header: bysHeader, Expected: parser.NewMatcher(d.GoodsServices...), CategoryType: model.CategoryBYS, Lookahead: 4},
	}
}

// LaborDictionary EPH 劳动力市场文档的期望名称
type LaborDictionary struct {
	NationalSheets []string
	Metrics        []parser.NamePattern // Code 即字段名

	// RegionalSheets 字段名 -> 分地区工作表名称
	RegionalSheets map[string][]string
	Entities       []parser.NamePattern
}

// DefaultLaborDictionary EPH 活动率 / 就业率 / 失业率
func DefaultLaborDictionary() LaborDictionary {
	regional := func(name string) parser.NamePattern {
		return parser.NamePattern{Pattern: name, Name: name, Category: model.CategoryRegional, Region: name}
	}
	return LaborDictionary{
		NationalSheets: []string{"Cuadro 1.1", "Cuadro 1", "Tasas"},
		Metrics: []parser.NamePattern{
			{Pattern: "Tasa de actividad", Name: "Tasa de actividad", Code: FieldActivityRate},
			{Pattern: "Tasa de empleo", Name: "Tasa de empleo", Code: FieldEmploymentRate},
			{Pattern: "Tasa de desocupación", Name: "Tasa de desocupación", Code: FieldUnemploymentRate},
		},
		RegionalSheets: map[string][]string{
			FieldActivityRate:     {"Actividad", "Tasa de actividad"},
			FieldEmploymentRate:   {"Empleo", "Tasa de empleo"},
			FieldUnemploymentRate: {"Desocupación", "Tasa de desocupación"},
		},
		Entities: []parser.NamePattern{
			{Pattern: "Total", Name: model.RegionTotal, Code: model.AggregateEntityCode, Category: model.CategoryNational, Region: model.RegionTotal},
			regional("GBA"),
			regional("Pampeana"),
			regional("Noreste"),
			regional("Noroeste"),
			regional("Cuyo"),
			regional("Patagonia"),
			{Pattern: "Mujeres", Name: "Mujeres", Category: model.CategoryDemographic, Region: model.RegionTotal},
			{Pattern: "Varones", Name: "Varones", Category: model.CategoryDemographic, Region: model.RegionTotal},
		},
	}
}

// EMAEDictionary EMAE 文档的表头名称
type EMAEDictionary struct {
	SheetNames   []string
	ValueHeaders []string
	YearColumn   int
	MonthColumn  int
	ValueColumn  int // 表头缺失时的取值列，-1 表示必须找到表头
}

// DefaultEMAEDictionary 月度经济活动估算器（EMAE）原始序列
func DefaultEMAEDictionary() EMAEDictionary {
	return EMAEDictionary{
		SheetNames:   []string{"EMAE", "Cuadro 1"},
		ValueHeaders: []string{"Serie original", "Original"},
		YearColumn:   0,
		MonthColumn:  1,
		ValueColumn:  -1,
	}
}
