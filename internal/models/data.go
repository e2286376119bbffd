package models

import "time"

// TimestampLayout is the naive-UTC ISO-8601 layout used for last_updated and
// the health timestamp (no offset, microsecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000000"

// XRayLongBand is the GOES long-wavelength channel that flare classes are
// defined against.
const XRayLongBand = "0.1-0.8nm"

// StormLevelNormal is reported when storm classification is disabled or Kp
// stays below G1.
const StormLevelNormal = "Normal"

// FlareClass is the letter grade of a solar flare
type FlareClass string

const (
	FlareClassA FlareClass = "A"
	FlareClassB FlareClass = "B"
	FlareClassC FlareClass = "C"
	FlareClassM FlareClass = "M"
	FlareClassX FlareClass = "X"
)

// Severity orders flare classes from A (0) to X (4)
func (c FlareClass) Severity() int {
	switch c {
	case FlareClassA:
		return 0
	case FlareClassB:
		return 1
	case FlareClassC:
		return 2
	case FlareClassM:
		return 3
	case FlareClassX:
		return 4
	default:
		return -1
	}
}

// FlareReading is one normalized GOES X-ray flux sample
type FlareReading struct {
	TimeTag        string     `json:"time_tag"`
	Flux           float64    `json:"flux" validate:"gte=0"`
	Energy         string     `json:"energy"`
	Classification FlareClass `json:"classification"`
}

// GeomagneticReading is one normalized planetary K-index sample
type GeomagneticReading struct {
	TimeTag    string  `json:"time_tag"`
	KpIndex    float64 `json:"kp_index" validate:"gte=0,lte=9"`
	StormLevel string  `json:"storm_level"`
}

// AggregateReport is the body of /api/solar-data
type AggregateReport struct {
	Flares      []FlareReading       `json:"flares"`
	Geomagnetic []GeomagneticReading `json:"geomagnetic"`
	LastUpdated string               `json:"last_updated"`
	Alerts      []string             `json:"alerts"`
}

// NewAggregateReport builds a report stamped with generatedAt. Nil slices are
// replaced with empty ones so they encode as [].
func NewAggregateReport(flares []FlareReading, geomagnetic []GeomagneticReading, generatedAt time.Time) *AggregateReport {
	if flares == nil {
		flares = []FlareReading{}
	}
	if geomagnetic == nil {
		geomagnetic = []GeomagneticReading{}
	}
	return &AggregateReport{
		Flares:      flares,
		Geomagnetic: geomagnetic,
		LastUpdated: FormatTimestamp(generatedAt),
		Alerts:      []string{},
	}
}

// FormatTimestamp renders t in UTC using TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a TimestampLayout string as UTC
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.UTC)
}
