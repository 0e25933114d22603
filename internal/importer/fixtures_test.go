package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"indecstat/internal/model"
	"indecstat/internal/parser"
)

type fixtureSheet struct {
	name string
	rows [][]any
}

func buildWorkbook(t *testing.T, sheets ...fixtureSheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(s.name, cell, &s.rows[r]); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	return buf.Bytes()
}

func readWorkbook(t *testing.T, body []byte) *model.Workbook {
	t.Helper()

	wb, err := parser.ReadWorkbook(body)
	if err != nil {
		t.Fatalf("read workbook: %v", err)
	}
	return wb
}

func writeFixture(t *testing.T, name string, body []byte) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, body, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func ipcSheet() fixtureSheet {
	return fixtureSheet{name: "Índices IPC Cobertura Nacional", rows: [][]any{
		{"Región / División", month(2024, time.January), month(2024, time.February)},
		{"Total nacional"},
		{"Nivel general", 4261.5, 4825.8},
		{"Alimentos y bebidas no alcohólicas", 4608.1, 5198.6},
		{"Salud", 3981.2, 4612.0},
		{"Categorías"},
		{"Estacional", 4230.7, 4562.2},
		{"Núcleo", 4465.3, 5086.6},
		{"Regulados", 3520.0, 4218.1},
		{"Bienes y servicios"},
		{"Bienes", 4600.5, 5150.2},
		{"Servicios", 3550.3, 4160.8},
		{"Región GBA"},
		{"Nivel general", 4109.9, 4680.3},
		{"Alimentos y bebidas no alcohólicas", 4455.7, "///"},
	}}
}

func laborNationalSheet() fixtureSheet {
	return fixtureSheet{name: "Cuadro 1.1", rows: [][]any{
		{"Principales tasas del mercado de trabajo"},
		{"", "Año 2020", "", "", "", "Año 2021"},
		{"Indicador", "1° trimestre", "2° trimestre", "3° trimestre", "4° trimestre", "1° trimestre"},
		{"Tasa de actividad", 47.1, 38.4, 42.3, 45.0, 46.3},
		{"Tasa de empleo", 42.2, 33.4, 37.4, 40.1, 41.6},
		{"Fuente: INDEC, Encuesta Permanente de Hogares."},
	}}
}

func laborRegionalSheets() []fixtureSheet {
	header := [][]any{
		{""},
		{"", "Año 2020"},
		{"Región", "1° trimestre", "2° trimestre"},
	}
	unemployment := append(append([][]any{}, header...),
		[]any{"Total 31 aglomerados", 10.4, 13.1},
		[]any{"GBA", 11.1, 14.0},
		[]any{"Cuyo", 6.4, 10.4},
		[]any{"Mujeres", 10.9, 13.5},
	)
	activity := append(append([][]any{}, header...),
		[]any{"Total 31 aglomerados", 47.1, 38.4},
		[]any{"GBA", 48.0, 39.0},
	)
	return []fixtureSheet{
		{name: "Desocupación", rows: unemployment},
		{name: "Actividad", rows: activity},
	}
}

// emaeSheet 纵向月度序列：年份只在每年首行出现
func emaeSheet(years int) fixtureSheet {
	months := []string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}
	pattern := [12]float64{0.92, 0.95, 1.03, 1.01, 1.04, 0.98, 0.97, 1.02, 1.00, 1.05, 1.06, 0.97}

	rows := [][]any{
		{"Estimador mensual de actividad económica"},
		{"Período", "", "Serie original", "Desestacionalizada"},
	}
	for i := 0; i < years*12; i++ {
		var year any = ""
		if i%12 == 0 {
			year = float64(2004 + i/12)
		}
		value := (100 + 0.5*float64(i)) * pattern[i%12]
		rows = append(rows, []any{year, months[i%12], value, ""})
	}
	return fixtureSheet{name: "Cuadro 1", rows: rows}
}
