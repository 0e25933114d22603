package main

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indecstat/internal/calculator"
	"indecstat/internal/config"
)

func TestParseFileFlags(t *testing.T) {
	t.Parallel()

	files, err := parseFileFlags([]string{"eph-national=./a.xls", " emae-mensual = /tmp/b.xls "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"eph-national": "./a.xls", "emae-mensual": "/tmp/b.xls"}, files)

	files, err = parseFileFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, files)

	for _, bad := range []string{"no-separator", "=path", "source="} {
		_, err := parseFileFlags([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestSelectIndicators(t *testing.T) {
	t.Parallel()

	all := config.DefaultConfig().Indicators()

	got, err := selectIndicators(all, nil)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = selectIndicators(all, []string{"IPC", "labor", "ipc"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ipc", got[0].Name())
	assert.Equal(t, "labor", got[1].Name())

	_, err = selectIndicators(all, []string{"gdp"})
	assert.ErrorContains(t, err, "unknown indicator")
}

func TestReadObservations(t *testing.T) {
	t.Parallel()

	in := "date,value\n2023-01-01,100.5\n2023-02-01, 101\n\n2023-03-01,99.25\n"
	points, err := readObservations(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2023-02-01", points[1].Date)
	assert.Equal(t, "2023-03-01", points[2].Date)
	assert.InDelta(t, 101.0, points[1].Value, 1e-9)

	_, err = readObservations(strings.NewReader("2023-01-01,1\n2023-02-01,x\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestReadObservations_NormalizesDates(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("fecha,valor\n")
	for year := 2020; year <= 2022; year++ {
		for month := 1; month <= 12; month++ {
			v := 100 + 10*math.Sin(2*math.Pi*float64(month)/12) + float64(year-2020)
			fmt.Fprintf(&b, "%02d/%d,%.2f\n", month, year, v)
		}
	}

	points, err := readObservations(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, points, 36)
	assert.Equal(t, "2020-01-01", points[0].Date)
	assert.Equal(t, "2021-03-01", points[14].Date)

	out, err := calculator.Decompose(points, calculator.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, out, 36)
	assert.Equal(t, "2020-01-01", out[0].Date)
	assert.Equal(t, "2020-02-01", out[1].Date)
	assert.Equal(t, "2021-01-01", out[12].Date)

	factors := calculator.SeasonalFactors(points, 12)
	assert.Greater(t, factors[2], 1.0, "march peak: %v", factors)
	assert.Less(t, factors[8], 1.0, "september trough: %v", factors)
	assert.Less(t, out[2].Value, out[2].OriginalValue)
}

func TestReadObservations_RejectsBadRows(t *testing.T) {
	t.Parallel()

	_, err := readObservations(strings.NewReader("2023-01-01,1\n2023-02-01,NaN\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = readObservations(strings.NewReader("2023-01-01,1\n2023-02-01,Inf\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = readObservations(strings.NewReader("2023-01-01,1\nsometime,2\n"))
	assert.ErrorContains(t, err, "invalid date")
}
