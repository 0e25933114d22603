package model

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CellKind 单元格取值类型
type CellKind int

const (
	EmptyCell  CellKind = iota // 空
	NumberCell                 // 数值（含表格日期序列号）
	TextCell                   // 文本
	DateCell                   // 日期
)

// Cell 工作表单元格（按类型区分的取值）
type Cell struct {
	Kind CellKind
	Num  float64
	Text string
	Time time.Time
}

// Number 构造数值单元格
func Number(v float64) Cell { return Cell{Kind: NumberCell, Num: v} }

// Text 构造文本单元格，空白文本视为空单元格
func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: TextCell, Text: s}
}

// Date 构造日期单元格
func Date(t time.Time) Cell { return Cell{Kind: DateCell, Time: t} }

// IsEmpty 是否为空
func (c Cell) IsEmpty() bool { return c.Kind == EmptyCell }

// String 单元格的文本形式
func (c Cell) String() string {
	switch c.Kind {
	case NumberCell:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case TextCell:
		return c.Text
	case DateCell:
		return c.Time.Format("2006-01-02")
	default:
		return ""
	}
}

var decimalRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber 十进制数值文本 -> 有限浮点数
// NaN、Inf、十六进制以及溢出的写法均不接受
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !decimalRe.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Float 数值或可干净解析为数值的文本
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case NumberCell:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return 0, false
		}
		return c.Num, true
	case TextCell:
		return ParseNumber(c.Text)
	default:
		return 0, false
	}
}

// Sheet 已解析的工作表（行优先的单元格网格）
type Sheet struct {
	Name string
	Rows [][]Cell
}

// At 按位置取单元格，越界返回空单元格
func (s Sheet) At(row, col int) Cell {
	if row < 0 || row >= len(s.Rows) || col < 0 {
		return Cell{}
	}
	r := s.Rows[row]
	if col >= len(r) {
		return Cell{}
	}
	return r[col]
}

// Width 最宽一行的列数
func (s Sheet) Width() int {
	w := 0
	for _, r := range s.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Workbook 工作簿
type Workbook struct {
	Sheets []Sheet
}

// SheetNames 工作表名称（保持原顺序）
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// Sheet 按名称查找工作表
func (w *Workbook) Sheet(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}
