package domain

import (
	"fmt"
	"math"
	"slices"
)

const (
	NoDataLabel  = "No Data"
	UnknownLabel = "Unknown"
	NoDataColor  = "#888"
)

// Level is one CCI band in Fahrenheit, half-open [Min, Max).
type Level struct {
	Min   float64
	Max   float64
	Color string
	Label string
}

var levels = []Level{
	{Min: math.Inf(-1), Max: -40, Color: "#1e3a8a", Label: "Extreme Danger"},
	{Min: -40, Max: -22, Color: "#3b82f6", Label: "Extreme"},
	{Min: -22, Max: -4, Color: "#60a5fa", Label: "Severe"},
	{Min: -4, Max: 14, Color: "#93c5fd", Label: "Moderate"},
	{Min: 14, Max: 32, Color: "#fbbf24", Label: "Mild"},
	{Min: 32, Max: 77, Color: "#22c55e", Label: "No Stress"},
	{Min: 77, Max: 86, Color: "#fbbf24", Label: "Mild"},
	{Min: 86, Max: 95, Color: "#f59e42", Label: "Moderate"},
	{Min: 95, Max: 104, Color: "#f97316", Label: "Severe"},
	{Min: 104, Max: 113, Color: "#ef4444", Label: "Extreme"},
	{Min: 113, Max: math.Inf(1), Color: "#b91c1c", Label: "Extreme Danger"},
}

// Levels returns a copy of the threshold table, coldest first.
func Levels() []Level {
	return slices.Clone(levels)
}

// RangeText renders the band bounds for a legend, e.g. "-40 to -22".
func (l Level) RangeText() string {
	switch {
	case math.IsInf(l.Min, -1):
		return fmt.Sprintf("< %g", l.Max)
	case math.IsInf(l.Max, 1):
		return fmt.Sprintf("> %g", l.Min)
	default:
		return fmt.Sprintf("%g to %g", l.Min, l.Max)
	}
}

type ClassifiedValue struct {
	Value *float64
	Label string
	Color string
}

// Classify maps a Fahrenheit CCI to its band. The first band containing the
// value wins. Nil and NaN are No Data; Unknown is left for numbers outside
// every band.
func Classify(f *float64) ClassifiedValue {
	if f == nil || math.IsNaN(*f) {
		return ClassifiedValue{Label: NoDataLabel, Color: NoDataColor}
	}
	for _, l := range levels {
		if *f >= l.Min && *f < l.Max {
			return ClassifiedValue{Value: f, Label: l.Label, Color: l.Color}
		}
	}
	return ClassifiedValue{Value: f, Label: UnknownLabel, Color: NoDataColor}
}

// ClassifyIn classifies a value expressed in unit. Metric values are
// converted back to Fahrenheit for the lookup; Value keeps the input.
func ClassifyIn(v *float64, unit Unit) ClassifiedValue {
	if v == nil || unit != Metric {
		return Classify(v)
	}
	f := Fahrenheit(*v)
	c := Classify(&f)
	c.Value = v
	return c
}
