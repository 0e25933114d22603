package calculator

import (
	"time"

	"indecstat/internal/model"
)

// Change 单期变动率（%）
type Change struct {
	Date  string   `json:"date"`
	Value float64  `json:"value"`
	MoM   *float64 `json:"mom"` // 环比
	YoY   *float64 `json:"yoy"` // 同比
}

// PercentChanges 计算环比/同比变动率，缺少基期时为空
func PercentChanges(points []model.Observation) []Change {
	sorted := sortObservations(points)
	byDate := make(map[string]float64, len(sorted))
	for _, p := range sorted {
		byDate[p.Date] = p.Value
	}

	out := make([]Change, len(sorted))
	for i, p := range sorted {
		out[i] = Change{Date: p.Date, Value: p.Value}
		t, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			continue
		}
		if base, ok := byDate[t.AddDate(0, -1, 0).Format("2006-01-02")]; ok {
			out[i].MoM = percent(p.Value, base)
		}
		if base, ok := byDate[t.AddDate(-1, 0, 0).Format("2006-01-02")]; ok {
			out[i].YoY = percent(p.Value, base)
		}
	}
	return out
}

func percent(v, base float64) *float64 {
	if base == 0 {
		return nil
	}
	return nullable(round1((v/base - 1) * 100))
}
