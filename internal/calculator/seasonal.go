package calculator

import (
	"fmt"
	"math"
	"sort"
	"time"

	"indecstat/internal/model"
)

// Method 季节调整方法
type Method string

const (
	MethodMovingAverage        Method = "moving-average"
	MethodRatioToMovingAverage Method = "ratio-to-moving-average"
	MethodTrendCycle           Method = "trend-cycle"
)

// ParseMethod 解析方法名
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodMovingAverage, MethodRatioToMovingAverage, MethodTrendCycle:
		return m, nil
	}
	return "", fmt.Errorf("unknown seasonal method %q", s)
}

// Options 季节调整参数
type Options struct {
	Method     Method  `toml:"method" json:"method"`
	Window     int     `toml:"window" json:"window"`         // 移动平均窗口，缺省 12
	Lambda     float64 `toml:"lambda" json:"lambda"`         // HP 平滑参数，缺省 1600
	Iterations int     `toml:"iterations" json:"iterations"` // 松弛迭代次数，缺省 100
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{Method: MethodRatioToMovingAverage, Window: 12, Lambda: 1600, Iterations: 100}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Method == "" {
		o.Method = d.Method
	}
	if o.Window <= 0 {
		o.Window = d.Window
	}
	if o.Lambda <= 0 {
		o.Lambda = d.Lambda
	}
	if o.Iterations <= 0 {
		o.Iterations = d.Iterations
	}
	return o
}

// Adjust 对按日期排列的观测值做季节调整；空输入返回空结果
func Adjust(points []model.Observation, opts Options) ([]model.TimeSeriesPoint, error) {
	opts = opts.withDefaults()
	sorted := sortObservations(points)

	switch opts.Method {
	case MethodMovingAverage:
		return movingAverageAdjust(sorted, opts.Window), nil
	case MethodRatioToMovingAverage:
		return ratioToMovingAverage(sorted, opts.Window), nil
	case MethodTrendCycle:
		return trendCycle(sorted, opts.Lambda, opts.Iterations), nil
	}
	return nil, fmt.Errorf("unknown seasonal method %q", opts.Method)
}

func sortObservations(points []model.Observation) []model.Observation {
	out := append([]model.Observation(nil), points...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func values(points []model.Observation) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// MovingAverage 居中移动平均，边界处窗口截断（不补值），NaN 视为缺失
func MovingAverage(vals []float64, window int) []float64 {
	half := window / 2
	out := make([]float64, len(vals))
	for i := range vals {
		lo, hi := max(0, i-half), min(len(vals)-1, i+half)
		sum, n := 0.0, 0
		for j := lo; j <= hi; j++ {
			if !math.IsNaN(vals[j]) {
				sum += vals[j]
				n++
			}
		}
		out[i] = math.NaN()
		if n > 0 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// CenteredMovingAverage 完整窗口的居中移动平均，距两端不足半窗的位置为 NaN
func CenteredMovingAverage(vals []float64, window int) []float64 {
	half := window / 2
	out := make([]float64, len(vals))
	for i := range vals {
		out[i] = math.NaN()
		if i-half < 0 || i+half > len(vals)-1 {
			continue
		}
		sum := 0.0
		for j := i - half; j <= i+half; j++ {
			sum += vals[j]
		}
		out[i] = sum / float64(2*half+1)
	}
	return out
}

func movingAverageAdjust(points []model.Observation, window int) []model.TimeSeriesPoint {
	ma := MovingAverage(values(points), window)
	out := make([]model.TimeSeriesPoint, len(points))
	for i, p := range points {
		out[i] = model.TimeSeriesPoint{
			Date:                 p.Date,
			Value:                round1(ma[i]),
			OriginalValue:        p.Value,
			IsSeasonallyAdjusted: true,
		}
	}
	return out
}

// SeasonalFactors 按日历月份的季节因子（比率移动平均法），合计等于 window
// 无法计算的月份取中性因子 1
func SeasonalFactors(points []model.Observation, window int) [12]float64 {
	if window <= 0 {
		window = DefaultOptions().Window
	}
	sorted := sortObservations(points)
	factors, _ := seasonalFactors(sorted, window)
	return factors
}

func seasonalFactors(points []model.Observation, window int) ([12]float64, []float64) {
	vals := values(points)
	cma := CenteredMovingAverage(vals, window)

	var (
		sums   [12]float64
		counts [12]int
	)
	for i, p := range points {
		m, ok := monthOf(p.Date)
		ratio := vals[i] / cma[i]
		if !ok || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			continue
		}
		sums[m-1] += ratio
		counts[m-1]++
	}

	var factors [12]float64
	total := 0.0
	for m := range factors {
		factors[m] = 1
		if counts[m] > 0 {
			factors[m] = sums[m] / float64(counts[m])
		}
		total += factors[m]
	}

	scale := float64(window) / total
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		for m := range factors {
			factors[m] = 1
		}
		return factors, cma
	}
	for m := range factors {
		factors[m] *= scale
	}
	return factors, cma
}

func ratioToMovingAverage(points []model.Observation, window int) []model.TimeSeriesPoint {
	factors, cma := seasonalFactors(points, window)
	out := make([]model.TimeSeriesPoint, len(points))
	for i, p := range points {
		factor := 1.0
		if m, ok := monthOf(p.Date); ok && factors[m-1] != 0 {
			factor = factors[m-1]
		}
		out[i] = model.TimeSeriesPoint{
			Date:                 p.Date,
			Value:                round1(p.Value / factor),
			OriginalValue:        p.Value,
			IsSeasonallyAdjusted: true,
			CycleTrendValue:      nullable(cma[i]),
		}
	}
	return out
}

func trendCycle(points []model.Observation, lambda float64, iterations int) []model.TimeSeriesPoint {
	trend := HPTrend(values(points), lambda, iterations)
	out := make([]model.TimeSeriesPoint, len(points))
	for i, p := range points {
		out[i] = model.TimeSeriesPoint{
			Date:            p.Date,
			Value:           trend[i],
			OriginalValue:   p.Value,
			CycleTrendValue: nullable(trend[i]),
		}
	}
	return out
}

func monthOf(date string) (int, bool) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, false
	}
	return int(t.Month()), true
}
