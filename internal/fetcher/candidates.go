package fetcher

import (
	"fmt"
	"strings"
	"time"

	"indecstat/internal/model"
)

// Candidates 由 URL 模板生成候选地址：从当前期向前回溯 lookback 期，最新的在前
// 占位符：{YYYY} {YY} {MM} {M} {Q} {S}
func Candidates(templates []string, cadence model.Cadence, now time.Time, lookback int) []string {
	if cadence == 0 {
		cadence = model.Monthly
	}
	if lookback < 0 {
		lookback = 0
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(u string) {
		if _, ok := seen[u]; ok || u == "" {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	year, sub := now.Year(), cadence.SubPeriodOf(now)
	for i := 0; i <= lookback; i++ {
		y, s := cadence.Shift(year, sub, -i)
		for _, tpl := range templates {
			add(expand(tpl, cadence, y, s))
		}
	}
	return out
}

func expand(tpl string, cadence model.Cadence, year, sub int) string {
	month := (sub-1)*(12/int(cadence)) + 1
	if cadence == model.Monthly {
		month = sub
	}
	r := strings.NewReplacer(
		"{YYYY}", fmt.Sprintf("%04d", year),
		"{YY}", fmt.Sprintf("%02d", year%100),
		"{MM}", fmt.Sprintf("%02d", month),
		"{M}", fmt.Sprintf("%d", month),
		"{Q}", fmt.Sprintf("%d", (month-1)/3+1),
		"{S}", fmt.Sprintf("%d", (month-1)/6+1),
	)
	return strings.TrimSpace(r.Replace(tpl))
}
