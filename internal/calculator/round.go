package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// round1 保留 1 位小数（十进制舍入，避免 0.05 之类的二进制误差）
func round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// nullable NaN/Inf -> nil
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
