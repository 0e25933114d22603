package calculator

import "indecstat/internal/model"

// Decompose 季节调整后再对调整序列做 HP 滤波，CycleTrendValue 取滤波结果
// trend-cycle 方法不做季节调整，直接对原序列滤波
func Decompose(points []model.Observation, opts Options) ([]model.TimeSeriesPoint, error) {
	opts = opts.withDefaults()
	adjusted, err := Adjust(points, opts)
	if err != nil {
		return nil, err
	}
	if opts.Method == MethodTrendCycle {
		return adjusted, nil
	}

	vals := make([]float64, len(adjusted))
	for i, p := range adjusted {
		vals[i] = p.Value
	}
	trend := HPTrend(vals, opts.Lambda, opts.Iterations)
	for i := range adjusted {
		adjusted[i].CycleTrendValue = nullable(trend[i])
	}
	return adjusted, nil
}
