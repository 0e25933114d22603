package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"indecstat/internal/model"
)

// SpanishMonths 月份名称字典（已去重音、小写）
func SpanishMonths() map[string]int {
	return map[string]int{
		"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6,
		"julio": 7, "agosto": 8, "septiembre": 9, "setiembre": 9, "octubre": 10,
		"noviembre": 11, "diciembre": 12,
	}
}

var (
	reISODate     = regexp.MustCompile(`^(\d{4})-(\d{1,2})(?:-(\d{1,2}))?(?:[T ].*)?$`)
	reDayMonthYr  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	reMonthYear   = regexp.MustCompile(`^(\d{1,2})/(\d{4}|\d{2})$`)
	reMonthDotYr  = regexp.MustCompile(`^(\d{1,2})\.(\d{4})$`)
	reMonthAbbrYr = regexp.MustCompile(`^([a-z]{3,10})\.?[-\s/]+'?(20\d{2}|\d{2})$`)
	reYear20      = regexp.MustCompile(`\b(20\d{2})\b`)
	reNonLetters  = regexp.MustCompile(`[^a-z]+`)
)

const (
	// Excel 允许的最大日期序列号（9999-12-31）
	maxSerialDate = 2958465
	// 超过该值且无法按序列号解析时，按 Unix 时间戳重试
	unixThreshold = 10000
)

// DateParser 单元格日期归一器
type DateParser struct {
	months map[string]int
	abbrev map[string]int
}

// NewDateParser 使用给定月份字典创建归一器
func NewDateParser(months map[string]int) *DateParser {
	p := &DateParser{
		months: make(map[string]int, len(months)),
		abbrev: make(map[string]int, len(months)),
	}
	for name, m := range months {
		name = NormalizeText(name)
		p.months[name] = m
		if len(name) >= 3 {
			if _, exists := p.abbrev[name[:3]]; !exists {
				p.abbrev[name[:3]] = m
			}
		}
	}
	return p
}

var defaultDateParser = NewDateParser(SpanishMonths())

// ExtractDate 将单元格取值归一为 "YYYY-MM-01"，无法识别时返回 false
func ExtractDate(v any) (string, bool) {
	return defaultDateParser.Extract(v)
}

// Extract 见 ExtractDate
func (p *DateParser) Extract(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case model.Cell:
		switch x.Kind {
		case model.NumberCell:
			return p.fromNumber(x.Num)
		case model.TextCell:
			return p.fromString(x.Text)
		case model.DateCell:
			return fromTime(x.Time)
		}
		return "", false
	case time.Time:
		return fromTime(x)
	case *time.Time:
		if x == nil {
			return "", false
		}
		return fromTime(*x)
	case float64:
		return p.fromNumber(x)
	case float32:
		return p.fromNumber(float64(x))
	case int:
		return p.fromNumber(float64(x))
	case int64:
		return p.fromNumber(float64(x))
	case string:
		return p.fromString(x)
	default:
		return "", false
	}
}

// Month 月份名称（全称或三字母缩写）对应的月份
func (p *DateParser) Month(name string) (int, bool) {
	name = NormalizeText(strings.TrimSuffix(strings.TrimSpace(name), "."))
	if m, ok := p.months[name]; ok {
		return m, true
	}
	if len(name) == 3 {
		if m, ok := p.abbrev[name]; ok {
			return m, true
		}
	}
	return 0, false
}

func fromTime(t time.Time) (string, bool) {
	if t.IsZero() {
		return "", false
	}
	return monthKey(t.Year(), int(t.Month()))
}

func (p *DateParser) fromNumber(v float64) (string, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	if t, ok := serialToTime(v); ok {
		return fromTime(t)
	}
	if v > unixThreshold {
		sec := v
		if v > 1e11 {
			sec = v / 1000 // 毫秒
		}
		return fromTime(time.Unix(int64(sec), 0).UTC())
	}
	return "", false
}

// serialToTime 表格日期序列号（1900 日期系统）
func serialToTime(v float64) (time.Time, bool) {
	if v < 1 || v > maxSerialDate {
		return time.Time{}, false
	}
	days := int(math.Floor(v))
	// 1900-02-29 在 Excel 中存在，之前的序列号需少偏移一天
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	if days < 60 {
		base = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return base.AddDate(0, 0, days), true
}

func (p *DateParser) fromString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if m := reISODate.FindStringSubmatch(s); m != nil {
		return monthKey(atoi(m[1]), atoi(m[2]))
	}
	if m := reDayMonthYr.FindStringSubmatch(s); m != nil {
		return monthKey(atoi(m[3]), atoi(m[2]))
	}
	if m := reMonthYear.FindStringSubmatch(s); m != nil {
		return monthKey(expandYear(m[2]), atoi(m[1]))
	}
	if m := reMonthDotYr.FindStringSubmatch(s); m != nil {
		return monthKey(atoi(m[2]), atoi(m[1]))
	}

	norm := NormalizeText(s)
	if m := reMonthAbbrYr.FindStringSubmatch(norm); m != nil {
		if month, ok := p.Month(m[1]); ok {
			return monthKey(expandYear(m[2]), month)
		}
	}

	// 任意文本：包含月份全称 + 20xx 年份
	year := reYear20.FindStringSubmatch(norm)
	if year == nil {
		return "", false
	}
	for _, tok := range reNonLetters.Split(norm, -1) {
		if month, ok := p.months[tok]; ok {
			return monthKey(atoi(year[1]), month)
		}
	}
	return "", false
}

func monthKey(year, month int) (string, bool) {
	if year <= 0 || month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-01", year, month), true
}

// expandYear 两位年份按 2000+YY 处理
func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		y += 2000
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
