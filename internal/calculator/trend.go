package calculator

import "math"

// HPTrend Hodrick-Prescott 趋势（近似解）
//
// 求解 (I + λD'D)x = y，D 为二阶差分算子。采用 Gauss-Seidel 逐点松弛，
// 从 x = y 出发迭代固定次数，不保证收敛到精确解。缺失值（NaN）不参与拟合项，
// 仅由平滑项决定；全部缺失时返回全 NaN。结果保留 1 位小数。
func HPTrend(vals []float64, lambda float64, iterations int) []float64 {
	n := len(vals)
	out := make([]float64, n)
	if n < 3 {
		for i, v := range vals {
			out[i] = round1(v)
		}
		return out
	}

	k := secondDifferenceGram(n)
	weight := make([]float64, n)
	y := make([]float64, n)
	fill, ok := meanOf(vals)
	if !ok {
		// 没有任何观测值，趋势无定义
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			y[i] = fill
			continue
		}
		y[i] = v
		weight[i] = 1
	}

	x := append([]float64(nil), y...)
	for it := 0; it < iterations; it++ {
		for i := 0; i < n; i++ {
			off := 0.0
			for d := -2; d <= 2; d++ {
				j := i + d
				if d == 0 || j < 0 || j >= n {
					continue
				}
				off += k[i][d+2] * x[j]
			}
			den := weight[i] + lambda*k[i][2]
			if den == 0 {
				continue
			}
			x[i] = (weight[i]*y[i] - lambda*off) / den
		}
	}

	for i := range x {
		out[i] = round1(x[i])
	}
	return out
}

// secondDifferenceGram D'D 的带状存储，k[i][d+2] 对应第 i 行第 i+d 列
func secondDifferenceGram(n int) [][5]float64 {
	k := make([][5]float64, n)
	coef := [3]float64{1, -2, 1}
	for r := 0; r+2 < n; r++ {
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				k[r+a][b-a+2] += coef[a] * coef[b]
			}
		}
	}
	return k
}

func meanOf(vals []float64) (float64, bool) {
	sum, n := 0.0, 0
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
