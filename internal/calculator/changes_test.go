package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indecstat/internal/model"
)

func TestPercentChanges(t *testing.T) {
	t.Parallel()

	points := []model.Observation{
		{Date: "2024-01-01", Value: 110},
		{Date: "2023-01-01", Value: 100},
		{Date: "2023-12-01", Value: 105},
		{Date: "2024-03-01", Value: 120},
	}
	out := PercentChanges(points)
	require.Len(t, out, 4)

	assert.Equal(t, "2023-01-01", out[0].Date)
	assert.Nil(t, out[0].MoM)
	assert.Nil(t, out[0].YoY)

	jan := out[2]
	require.NotNil(t, jan.MoM)
	require.NotNil(t, jan.YoY)
	assert.Equal(t, 4.8, *jan.MoM)
	assert.Equal(t, 10.0, *jan.YoY)

	assert.Nil(t, out[3].MoM, "february missing")
}
