package domain

import "time"

type Station struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Zipcode   *string  `json:"zipcode"`
}

// Mappable reports whether the station has both coordinates.
func (s Station) Mappable() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// RawReading is one comfort_index row joined with its station, exactly as the
// store returned it. Measurement fields hold whatever the driver or the wire
// produced: a number, a numeric string, or nil.
type RawReading struct {
	StationID   string    `json:"station_id"`
	Name        string    `json:"name"`
	Zipcode     *string   `json:"zipcode"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
	Environment *string   `json:"environment"`

	// SecondsFromRef is set by the latest-per-station query only.
	SecondsFromRef *float64 `json:"seconds_from_now,omitempty"`

	CCIF                     any `json:"cci_f"`
	AirTempF                 any `json:"air_temp_f"`
	RelHumidity              any `json:"rel_humidity"`
	SolarRadiation           any `json:"solar_radiation"`
	WindSpeedMph             any `json:"wind_speed_mph"`
	TempHumidityAdjustment   any `json:"temp_humidity_adjustment"`
	WindSpeedAdjustment      any `json:"wind_speed_adjustment"`
	DirectSolarAdjustment    any `json:"direct_solar_adjustment"`
	SurfaceTempAdjustment    any `json:"surface_temp_adjustment"`
	TotalRadiationAdjustment any `json:"total_radiation_adjustment"`
}

// ReadingsFilter narrows QueryReadings. Zero fields are unconstrained; Start
// and End are inclusive.
type ReadingsFilter struct {
	StationID   string
	StationName string
	Start       time.Time
	End         time.Time
}

type AdjustmentKind int

const (
	TempHumidityAdjustment AdjustmentKind = iota
	WindSpeedAdjustment
	DirectSolarAdjustment
	SurfaceTempAdjustment
	TotalRadiationAdjustment

	adjustmentCount
)

// AdjustmentKinds lists every adjustment delta in display order.
var AdjustmentKinds = [adjustmentCount]AdjustmentKind{
	TempHumidityAdjustment,
	WindSpeedAdjustment,
	DirectSolarAdjustment,
	SurfaceTempAdjustment,
	TotalRadiationAdjustment,
}

func (k AdjustmentKind) String() string {
	switch k {
	case TempHumidityAdjustment:
		return "Temp/Hum Adj"
	case WindSpeedAdjustment:
		return "Wind Adj"
	case DirectSolarAdjustment:
		return "Solar Adj"
	case SurfaceTempAdjustment:
		return "Surface Adj"
	case TotalRadiationAdjustment:
		return "Total Rad Adj"
	default:
		return "Adj"
	}
}

// Delta is an adjustment in both temperature scales.
type Delta struct {
	F *float64
	C *float64
}

// DerivedReading is a RawReading with every measurement parsed and the
// metric counterparts computed. Raw is a copy of the source row.
type DerivedReading struct {
	Raw RawReading

	CCIF           *float64
	CCIC           *float64
	AirTempF       *float64
	AirTempC       *float64
	RelHumidity    *float64
	SolarRadiation *float64
	WindSpeedMph   *float64
	WindSpeedKph   *float64
	Adjustments    [adjustmentCount]Delta
}

type Unit int

const (
	Imperial Unit = iota
	Metric
)

// ParseUnit accepts "imperial"/"f"/"mph" and "metric"/"c"/"kph". Anything else
// is Imperial.
func ParseUnit(s string) Unit {
	switch s {
	case "metric", "c", "kph":
		return Metric
	default:
		return Imperial
	}
}

func (u Unit) String() string {
	if u == Metric {
		return "metric"
	}
	return "imperial"
}

func (u Unit) Toggle() Unit {
	if u == Metric {
		return Imperial
	}
	return Metric
}

func (u Unit) TempSymbol() string {
	if u == Metric {
		return "°C"
	}
	return "°F"
}

func (u Unit) SpeedSymbol() string {
	if u == Metric {
		return "kph"
	}
	return "mph"
}

func (d DerivedReading) CCI(u Unit) *float64 {
	if u == Metric {
		return d.CCIC
	}
	return d.CCIF
}

func (d DerivedReading) AirTemp(u Unit) *float64 {
	if u == Metric {
		return d.AirTempC
	}
	return d.AirTempF
}

func (d DerivedReading) WindSpeed(u Unit) *float64 {
	if u == Metric {
		return d.WindSpeedKph
	}
	return d.WindSpeedMph
}

func (d DerivedReading) Adjustment(k AdjustmentKind, u Unit) *float64 {
	if k < 0 || k >= adjustmentCount {
		return nil
	}
	if u == Metric {
		return d.Adjustments[k].C
	}
	return d.Adjustments[k].F
}
