package calculator

import (
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHPTrend_LinearSeriesUnchanged(t *testing.T) {
	t.Parallel()

	vals := make([]float64, 24)
	for i := range vals {
		vals[i] = 50 + 1.5*float64(i)
	}
	got := HPTrend(vals, 1600, 100)
	assert.InDeltaSlice(t, vals, got, 1e-9)
}

func TestHPTrend_ShortSeries(t *testing.T) {
	t.Parallel()

	assert.Empty(t, HPTrend(nil, 1600, 100))
	assert.Equal(t, []float64{1.2, 3.5}, HPTrend([]float64{1.23, 3.45}, 1600, 100))
}

func TestHPTrend_SmoothsNoise(t *testing.T) {
	t.Parallel()

	faker := gofakeit.New(3)
	vals := make([]float64, 48)
	for i := range vals {
		vals[i] = 100 + 0.5*float64(i) + faker.Float64Range(-5, 5)
	}

	roughness := func(x []float64) float64 {
		s := 0.0
		for i := 2; i < len(x); i++ {
			d := x[i] - 2*x[i-1] + x[i-2]
			s += d * d
		}
		return s
	}

	trend := HPTrend(vals, 1600, 200)
	require.Len(t, trend, len(vals))
	assert.Less(t, roughness(trend), roughness(vals)/10)
}

func TestHPTrend_MissingValues(t *testing.T) {
	t.Parallel()

	vals := []float64{10, 11, math.NaN(), 13, 14, 15}
	got := HPTrend(vals, 1600, 100)
	for _, v := range got {
		assert.False(t, math.IsNaN(v))
	}
}

func TestHPTrend_AllMissingIsUndefined(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	got := HPTrend([]float64{nan, nan, nan, nan}, 1600, 100)
	require.Len(t, got, 4)
	for i, v := range got {
		assert.True(t, math.IsNaN(v), "index %d = %v", i, v)
		assert.Nil(t, nullable(v))
	}
}

func TestSecondDifferenceGram(t *testing.T) {
	t.Parallel()

	k := secondDifferenceGram(5)
	assert.Equal(t, [5]float64{0, 0, 1, -2, 1}, k[0])
	assert.Equal(t, [5]float64{0, -2, 5, -4, 1}, k[1])
	assert.Equal(t, [5]float64{1, -4, 6, -4, 1}, k[2])
	assert.Equal(t, [5]float64{1, -2, 1, 0, 0}, k[4])
}
