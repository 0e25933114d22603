package parser

import (
	"strings"

	"indecstat/internal/model"
)

const minSheetScore = 0.5

// ResolveSheet 按名称模糊选择工作表：完全相等 1.0，名称包含模式 0.8，模式包含名称 0.6
// 工作簿只有一个工作表时直接返回它
func ResolveSheet(wb *model.Workbook, patterns ...string) (model.Sheet, float64, bool) {
	if wb == nil || len(wb.Sheets) == 0 {
		return model.Sheet{}, 0, false
	}

	best, bestScore := -1, 0.0
	for i, s := range wb.Sheets {
		if score := scoreSheetName(s.Name, patterns); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= minSheetScore {
		return wb.Sheets[best], bestScore, true
	}
	if len(wb.Sheets) == 1 {
		return wb.Sheets[0], bestScore, true
	}
	return model.Sheet{}, bestScore, false
}

func scoreSheetName(name string, patterns []string) float64 {
	n := NormalizeText(name)
	if n == "" {
		return 0
	}
	score := 0.0
	for _, p := range patterns {
		p = NormalizeText(p)
		switch {
		case p == "":
			continue
		case n == p:
			return 1.0
		case strings.Contains(n, p):
			score = max(score, 0.8)
		case strings.Contains(p, n):
			score = max(score, 0.6)
		}
	}
	return score
}
