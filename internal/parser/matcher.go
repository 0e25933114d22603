package parser

import (
	"strings"

	"indecstat/internal/model"
)

// minReverseMatchLen 单元格文本被期望名包含时的最小长度，避免 "a"、"y" 之类误匹配
const minReverseMatchLen = 3

// NamePattern 期望名称（模式 -> 规范名/代码/类别）
type NamePattern struct {
	Pattern  string
	Name     string
	Code     string
	Category string
	Region   string
}

// Matcher 期望名称字典的统一匹配入口
// 匹配顺序：规范化后完全相等 > 单元格包含期望名 > 期望名包含单元格
type Matcher struct {
	patterns   []NamePattern
	normalized []string
}

// NewMatcher 创建匹配器；Name 缺省为 Pattern，Code 缺省由 Name 生成
func NewMatcher(patterns ...NamePattern) *Matcher {
	m := &Matcher{
		patterns:   make([]NamePattern, 0, len(patterns)),
		normalized: make([]string, 0, len(patterns)),
	}
	for _, p := range patterns {
		if p.Name == "" {
			p.Name = p.Pattern
		}
		if p.Code == "" {
			p.Code = GenerateCode(p.Name)
		}
		m.patterns = append(m.patterns, p)
		m.normalized = append(m.normalized, NormalizeText(p.Pattern))
	}
	return m
}

// Anchor 匹配结果 -> 行锚点
func (p NamePattern) Anchor(row int) model.EntityAnchor {
	return model.EntityAnchor{
		RowIndex:      row,
		CanonicalName: p.Name,
		Code:          p.Code,
		Category:      p.Category,
		Region:        p.Region,
	}
}

// Names 构造只含名称的模式列表
func Names(names ...string) []NamePattern {
	out := make([]NamePattern, 0, len(names))
	for _, n := range names {
		out = append(out, NamePattern{Pattern: n})
	}
	return out
}

// Len 模式数量
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

// Patterns 返回模式副本
func (m *Matcher) Patterns() []NamePattern {
	if m == nil {
		return nil
	}
	return append([]NamePattern(nil), m.patterns...)
}

// Match 双向包含匹配
func (m *Matcher) Match(text string) (NamePattern, bool) {
	if m == nil {
		return NamePattern{}, false
	}
	cell := NormalizeText(text)
	if cell == "" {
		return NamePattern{}, false
	}
	if p, ok := m.exact(cell); ok {
		return p, true
	}
	for i, exp := range m.normalized {
		if exp != "" && strings.Contains(cell, exp) {
			return m.patterns[i], true
		}
	}
	if len(cell) < minReverseMatchLen {
		return NamePattern{}, false
	}
	for i, exp := range m.normalized {
		if strings.Contains(exp, cell) {
			return m.patterns[i], true
		}
	}
	return NamePattern{}, false
}

// Exact 规范化后完全相等
func (m *Matcher) Exact(text string) (NamePattern, bool) {
	if m == nil {
		return NamePattern{}, false
	}
	return m.exact(NormalizeText(text))
}

func (m *Matcher) exact(cell string) (NamePattern, bool) {
	if cell == "" {
		return NamePattern{}, false
	}
	for i, exp := range m.normalized {
		if exp == cell {
			return m.patterns[i], true
		}
	}
	return NamePattern{}, false
}
