package domain

import (
	"database/sql"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const kphPerMph = 1.60934

// ParseLenient turns a raw measurement into a number. Absent, empty and
// unparseable values come back as nil; it never returns an error and never
// substitutes zero.
func ParseLenient(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		return parseString(string(t))
	case string:
		return parseString(t)
	case []byte:
		return parseString(string(t))
	case sql.NullFloat64:
		if !t.Valid {
			return nil
		}
		f = t.Float64
	case *float64:
		if t == nil {
			return nil
		}
		f = *t
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseString(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func Celsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

func Fahrenheit(c float64) float64 {
	return c*9/5 + 32
}

func Kph(mph float64) float64 {
	return mph * kphPerMph
}

func mapValue(v *float64, fn func(float64) float64) *float64 {
	if v == nil {
		return nil
	}
	out := fn(*v)
	return &out
}

// Normalize parses every measurement of r and derives the Celsius and kph
// counterparts. r is taken by value; the caller's row is left untouched.
func Normalize(r RawReading) DerivedReading {
	d := DerivedReading{
		Raw:            r,
		CCIF:           ParseLenient(r.CCIF),
		AirTempF:       ParseLenient(r.AirTempF),
		RelHumidity:    ParseLenient(r.RelHumidity),
		SolarRadiation: ParseLenient(r.SolarRadiation),
		WindSpeedMph:   ParseLenient(r.WindSpeedMph),
	}
	d.CCIC = mapValue(d.CCIF, Celsius)
	d.AirTempC = mapValue(d.AirTempF, Celsius)
	d.WindSpeedKph = mapValue(d.WindSpeedMph, Kph)

	raw := [adjustmentCount]any{
		TempHumidityAdjustment:   r.TempHumidityAdjustment,
		WindSpeedAdjustment:      r.WindSpeedAdjustment,
		DirectSolarAdjustment:    r.DirectSolarAdjustment,
		SurfaceTempAdjustment:    r.SurfaceTempAdjustment,
		TotalRadiationAdjustment: r.TotalRadiationAdjustment,
	}
	for k, v := range raw {
		f := ParseLenient(v)
		d.Adjustments[k] = Delta{F: f, C: mapValue(f, Celsius)}
	}
	return d
}

func NormalizeAll(rows []RawReading) []DerivedReading {
	out := make([]DerivedReading, 0, len(rows))
	for _, r := range rows {
		out = append(out, Normalize(r))
	}
	return out
}
