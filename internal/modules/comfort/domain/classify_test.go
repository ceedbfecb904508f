package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Thresholds(t *testing.T) {
	tests := []struct {
		value float64
		label string
		color string
	}{
		{-41, "Extreme Danger", "#1e3a8a"},
		{-40, "Extreme", "#3b82f6"},
		{-22, "Severe", "#60a5fa"},
		{-4, "Moderate", "#93c5fd"},
		{14, "Mild", "#fbbf24"},
		{31.9, "Mild", "#fbbf24"},
		{32, "No Stress", "#22c55e"},
		{76.99, "No Stress", "#22c55e"},
		{77, "Mild", "#fbbf24"},
		{86, "Moderate", "#f59e42"},
		{95, "Severe", "#f97316"},
		{104, "Extreme", "#ef4444"},
		{112.9, "Extreme", "#ef4444"},
		{113, "Extreme Danger", "#b91c1c"},
		{500, "Extreme Danger", "#b91c1c"},
	}
	for _, tt := range tests {
		v := tt.value
		got := Classify(&v)
		assert.Equal(t, tt.label, got.Label, "label for %v", tt.value)
		assert.Equal(t, tt.color, got.Color, "color for %v", tt.value)
		assert.Equal(t, &v, got.Value)
	}
}

func TestClassify_NoData(t *testing.T) {
	got := Classify(nil)

	assert.Equal(t, NoDataLabel, got.Label)
	assert.Equal(t, NoDataColor, got.Color)
	assert.Nil(t, got.Value)
}

func TestClassify_NaNIsNoData(t *testing.T) {
	nan := math.NaN()

	got := Classify(&nan)

	assert.Equal(t, NoDataLabel, got.Label)
	assert.Equal(t, NoDataColor, got.Color)
	assert.Nil(t, got.Value)
	assert.Equal(t, NoDataLabel, ClassifyIn(&nan, Metric).Label)
}

func TestClassify_UnknownForUnmatchedNumber(t *testing.T) {
	inf := math.Inf(1)

	got := Classify(&inf)

	assert.Equal(t, UnknownLabel, got.Label)
	assert.Equal(t, NoDataColor, got.Color)
}

func TestClassifyIn_MetricUsesFahrenheitBands(t *testing.T) {
	c := 25.0 // 77°F

	got := ClassifyIn(&c, Metric)

	assert.Equal(t, "Mild", got.Label)
	assert.Equal(t, &c, got.Value)

	// 25 read as Fahrenheit would be cold stress.
	assert.Equal(t, "Mild", ClassifyIn(&c, Imperial).Label)
	cold := 20.0
	assert.Equal(t, "Mild", ClassifyIn(&cold, Imperial).Label)
	assert.Equal(t, "No Stress", ClassifyIn(&cold, Metric).Label)
	assert.Equal(t, NoDataLabel, ClassifyIn(nil, Metric).Label)
}

func TestLevels_IsCopy(t *testing.T) {
	ls := Levels()
	ls[0].Label = "changed"

	assert.Equal(t, "Extreme Danger", Levels()[0].Label)
	assert.Len(t, ls, 11)
}

func TestLevel_RangeText(t *testing.T) {
	ls := Levels()

	assert.Equal(t, "< -40", ls[0].RangeText())
	assert.Equal(t, "-40 to -22", ls[1].RangeText())
	assert.Equal(t, "32 to 77", ls[5].RangeText())
	assert.Equal(t, "> 113", ls[10].RangeText())
}
