package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"indecstat/internal/model"
)

// Format 表格文件格式
type Format string

const (
	FormatUnknown Format = "unknown"
	FormatXLSX    Format = "xlsx" // OOXML (zip)
	FormatXLS     Format = "xls"  // BIFF (OLE2 复合文档)
)

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// ErrUnsupportedFormat 非表格文件（常见于下载到 HTML 错误页）
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// DetectFormat 按文件头识别格式
func DetectFormat(body []byte) Format {
	switch {
	case bytes.HasPrefix(body, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(body, ole2Magic):
		return FormatXLS
	default:
		return FormatUnknown
	}
}

// ReadWorkbook 将下载的表格文件解析为单元格网格
func ReadWorkbook(body []byte) (*model.Workbook, error) {
	switch DetectFormat(body) {
	case FormatXLSX:
		return readXLSX(body)
	case FormatXLS:
		return readXLS(body)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func readXLSX(body []byte) (*model.Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	wb := &model.Workbook{}
	for _, name := range f.GetSheetList() {
		// 原始值：日期保留为序列号，数值不带格式
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, model.Sheet{Name: name, Rows: classifyRows(rows)})
	}
	return wb, nil
}

func readXLS(body []byte) (*model.Workbook, error) {
	book, err := xls.OpenReader(bytes.NewReader(body), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}

	wb := &model.Workbook{}
	for i := 0; i < book.NumSheets(); i++ {
		ws := book.GetSheet(i)
		if ws == nil {
			continue
		}
		grid := make([][]model.Cell, 0, int(ws.MaxRow)+1)
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				grid = append(grid, nil)
				continue
			}
			cells := make([]model.Cell, row.LastCol()+1)
			for c := row.FirstCol(); c <= row.LastCol(); c++ {
				cells[c] = ClassifyText(row.Col(c))
			}
			grid = append(grid, cells)
		}
		wb.Sheets = append(wb.Sheets, model.Sheet{Name: ws.Name, Rows: grid})
	}
	return wb, nil
}

func classifyRows(rows [][]string) [][]model.Cell {
	grid := make([][]model.Cell, len(rows))
	for i, row := range rows {
		cells := make([]model.Cell, len(row))
		for j, v := range row {
			cells[j] = ClassifyText(v)
		}
		grid[i] = cells
	}
	return grid
}

// ClassifyText 文本形式的单元格取值 -> 带类型单元格
func ClassifyText(v string) model.Cell {
	s := strings.TrimSpace(v)
	if s == "" {
		return model.Cell{}
	}
	if f, ok := model.ParseNumber(s); ok {
		return model.Number(f)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return model.Date(t)
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return model.Date(t)
	}
	return model.Text(v)
}

// SheetFromValues 由任意取值构造工作表（测试与内存数据使用）
func SheetFromValues(name string, rows [][]any) model.Sheet {
	grid := make([][]model.Cell, len(rows))
	for i, row := range rows {
		cells := make([]model.Cell, len(row))
		for j, v := range row {
			cells[j] = toCell(v)
		}
		grid[i] = cells
	}
	return model.Sheet{Name: name, Rows: grid}
}

func toCell(v any) model.Cell {
	switch x := v.(type) {
	case nil:
		return model.Cell{}
	case model.Cell:
		return x
	case float64:
		return model.Number(x)
	case int:
		return model.Number(float64(x))
	case time.Time:
		return model.Date(x)
	case string:
		return model.Text(x)
	default:
		return model.Text(fmt.Sprint(x))
	}
}
