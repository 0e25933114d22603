package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indecstat/internal/calculator"
	"indecstat/internal/model"
	"indecstat/internal/parser"
)

func TestIPC_ExtractStackedRegions(t *testing.T) {
	t.Parallel()

	wb := readWorkbook(t, buildWorkbook(t,
		fixtureSheet{name: "Variación mensual", rows: [][]any{{"Variación"}}},
		ipcSheet(),
	))
	ipc := NewIPC(DefaultIPCDictionary(), nil)
	src := ipc.Sources()[0]

	records, sheets, err := ipc.Extract(wb, src, "sh_ipc_02_24.xls")
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "Índices IPC Cobertura Nacional", sheets[0].SheetName)
	assert.Equal(t, 1, sheets[0].MalformedCells)
	assert.NotEmpty(t, sheets[0].Warnings, "GBA block lacks the category sections")

	require.Len(t, records, 19)
	byRegion := map[string]int{}
	byCategory := map[string]int{}
	for _, r := range records {
		byRegion[r.Region]++
		byCategory[r.CategoryType]++
		assert.Equal(t, "sh_ipc_02_24.xls", r.SourceFile)
		assert.Contains(t, []string{"2024-01-01", "2024-02-01"}, r.Date)
	}
	assert.Equal(t, map[string]int{"Nacional": 16, "GBA": 3}, byRegion)
	assert.Equal(t, 4, byCategory[model.CategoryGeneral])
	assert.Equal(t, 5, byCategory[model.CategoryRubro])
	assert.Equal(t, 6, byCategory[model.CategoryCategoria])
	assert.Equal(t, 4, byCategory[model.CategoryBYS])

	batch, err := ipc.Batch(records)
	require.NoError(t, err)
	assert.Equal(t, "ipc_components", batch.Table)
	require.Len(t, batch.Rows, 19)
	assert.Equal(t, "2024-01-01", batch.Rows[0][0])
	assert.Equal(t, "2024-01", batch.Rows[0][1])
}

func TestIPC_MissingSheet(t *testing.T) {
	t.Parallel()

	wb := readWorkbook(t, buildWorkbook(t,
		fixtureSheet{name: "Notas", rows: [][]any{{"Notas"}}},
		fixtureSheet{name: "Ponderaciones", rows: [][]any{{"Ponderaciones"}}},
	))
	ipc := NewIPC(DefaultIPCDictionary(), nil)
	_, _, err := ipc.Extract(wb, ipc.Sources()[0], "x.xls")

	var snf *parser.StructureNotFoundError
	require.True(t, errors.As(err, &snf), "got %v", err)
}

func TestLabor_NationalRowsAreMetrics(t *testing.T) {
	t.Parallel()

	wb := readWorkbook(t, buildWorkbook(t, laborNationalSheet()))
	labor := NewLabor(DefaultLaborDictionary(), nil)

	records, sheets, err := labor.Extract(wb, Source{Name: LaborNationalSource, Cadence: model.Quarterly}, "eph.xls")
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, 10, sheets[0].Records)

	// 两个指标按期别合并为 5 条全国汇总记录
	require.Len(t, records, 5)
	labels := make([]string, 0, len(records))
	for _, r := range records {
		assert.True(t, r.IsAggregate(), "%+v", r)
		labels = append(labels, r.PeriodLabel)
	}
	assert.Equal(t, []string{"T1 2020", "T2 2020", "T3 2020", "T4 2020", "T1 2021"}, labels)

	act, ok := records[4].Value(FieldActivityRate)
	require.True(t, ok)
	assert.Equal(t, 46.3, act)
	emp, ok := records[1].Value(FieldEmploymentRate)
	require.True(t, ok)
	assert.Equal(t, 33.4, emp)
	assert.Equal(t, "2021-01-01", records[4].Date)
}

func TestLabor_RegionalSheetsPerMetric(t *testing.T) {
	t.Parallel()

	wb := readWorkbook(t, buildWorkbook(t, laborRegionalSheets()...))
	labor := NewLabor(DefaultLaborDictionary(), nil)

	records, sheets, err := labor.Extract(wb, Source{Name: LaborRegionalSource, Cadence: model.Quarterly}, "eph_regiones.xlsx")
	require.NoError(t, err)

	statuses := map[string]string{}
	for _, s := range sheets {
		statuses[s.SheetName] = s.Status
	}
	assert.Len(t, statuses, 3)
	assert.Equal(t, "imported", statuses["Actividad"])
	assert.Equal(t, "imported", statuses["Desocupación"])
	assert.Equal(t, "skipped", statuses[FieldEmploymentRate])

	require.Len(t, records, 8)
	got := map[model.NaturalKey]model.CanonicalRecord{}
	for _, r := range records {
		got[r.Key()] = r
	}

	total := got[model.NaturalKey{Date: "2020-01-01", EntityCode: model.AggregateEntityCode, Region: model.RegionTotal, CategoryType: model.CategoryNational}]
	v, ok := total.Value(FieldUnemploymentRate)
	require.True(t, ok)
	assert.Equal(t, 10.4, v)
	v, ok = total.Value(FieldActivityRate)
	require.True(t, ok)
	assert.Equal(t, 47.1, v)

	women := got[model.NaturalKey{Date: "2020-04-01", EntityCode: "MUJERES", Region: model.RegionTotal, CategoryType: model.CategoryDemographic}]
	v, ok = women.Value(FieldUnemploymentRate)
	require.True(t, ok)
	assert.Equal(t, 13.5, v)
	_, ok = women.Value(FieldActivityRate)
	assert.False(t, ok)

	cuyo := got[model.NaturalKey{Date: "2020-01-01", EntityCode: "CUYO", Region: "Cuyo", CategoryType: model.CategoryRegional}]
	assert.Equal(t, "Cuyo", cuyo.EntityName)
}

func TestLabor_BatchColumns(t *testing.T) {
	t.Parallel()

	labor := NewLabor(DefaultLaborDictionary(), nil)
	batch, err := labor.Batch([]model.CanonicalRecord{
		aggregate("2020-01-01", model.Metrics{FieldActivityRate: model.Float(47.1)}, "a.xls"),
	})
	require.NoError(t, err)
	require.Len(t, batch.Rows, 1)
	row := batch.Rows[0]
	require.Len(t, row, len(batch.Columns))
	assert.Equal(t, model.Float(47.1), row[6])
	assert.Nil(t, row[7])
	assert.Nil(t, row[8])
}

func TestEMAE_ExtractAndAdjust(t *testing.T) {
	t.Parallel()

	wb := readWorkbook(t, buildWorkbook(t, emaeSheet(4)))
	emae := NewEMAE(DefaultEMAEDictionary(), nil, calculator.DefaultOptions())

	records, sheets, err := emae.Extract(wb, emae.Sources()[0], "sh_emae_mensual_base2004.xls")
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	require.Len(t, records, 48)
	assert.Equal(t, "2004-01-01", records[0].Date)
	assert.Equal(t, "2004-01", records[0].PeriodLabel)
	assert.Equal(t, "2007-12-01", records[47].Date)
	assert.Equal(t, "2007-12", records[47].PeriodLabel)
	assert.Equal(t, "2005-10", records[21].PeriodLabel)
	assert.True(t, records[0].IsAggregate())

	batch, err := emae.Batch(records)
	require.NoError(t, err)
	assert.Equal(t, []string{"date"}, batch.ConflictKey)
	require.Len(t, batch.Rows, 48)
	for _, row := range batch.Rows {
		adjusted, ok := row[2].(*float64)
		require.True(t, ok)
		require.NotNil(t, adjusted)
		trend, ok := row[3].(*float64)
		require.True(t, ok)
		require.NotNil(t, trend)
		assert.Equal(t, true, row[4])
		assert.Equal(t, "sh_emae_mensual_base2004.xls", row[5])
	}
}

func TestEMAE_MissingValueHeader(t *testing.T) {
	t.Parallel()

	wb := readWorkbook(t, buildWorkbook(t, fixtureSheet{name: "Cuadro 1", rows: [][]any{
		{"Período", "", "Índice"},
		{2004.0, "Enero", 95.2},
	}}))
	emae := NewEMAE(DefaultEMAEDictionary(), nil, calculator.DefaultOptions())
	_, sheets, err := emae.Extract(wb, emae.Sources()[0], "x.xls")

	var snf *parser.StructureNotFoundError
	require.True(t, errors.As(err, &snf), "got %v", err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "skipped", sheets[0].Status)
}

func TestWithSources_OverridesByName(t *testing.T) {
	t.Parallel()

	out := WithSources(DefaultLaborSources(), map[string]Source{
		LaborRegionalSource: {URLTemplates: []string{"http://mirror/{YYYY}.xlsx"}, Lookback: 8},
	})
	require.Len(t, out, 2)
	assert.Equal(t, DefaultLaborSources()[0], out[0])
	assert.Equal(t, []string{"http://mirror/{YYYY}.xlsx"}, out[1].URLTemplates)
	assert.Equal(t, 8, out[1].Lookback)
	assert.Equal(t, model.Quarterly, out[1].Cadence)
	assert.NotEmpty(t, out[1].PageURL)
}
