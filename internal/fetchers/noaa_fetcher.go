package fetchers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"solarguardian/internal/models"
)

var (
	// ErrNotArray is returned when an upstream document is not a JSON array
	ErrNotArray = errors.New("payload is not a JSON array")
	// ErrMalformedRow marks a row that cannot be coerced into a reading
	ErrMalformedRow = errors.New("malformed row")
)

var jsonNull = []byte("null")

// RowError describes a single rejected upstream row
type RowError struct {
	Source string
	Index  int
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Source, e.Index, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// splitRows decodes a top-level JSON array without decoding its elements.
// A JSON null decodes to no rows.
func splitRows(payload json.RawMessage) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	return rows, nil
}

// decodeXRayRow turns one GOES X-ray object into a FlareReading
func decodeXRayRow(raw json.RawMessage) (models.FlareReading, error) {
	var row models.NOAAXRayRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return models.FlareReading{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}

	timeTag, err := coerceString(row.TimeTag)
	if err != nil {
		return models.FlareReading{}, fmt.Errorf("%w: time_tag %v", ErrMalformedRow, err)
	}

	flux, err := coerceFloat(row.Flux)
	if err != nil {
		return models.FlareReading{}, fmt.Errorf("%w: flux %v", ErrMalformedRow, err)
	}

	return models.FlareReading{
		TimeTag:        timeTag,
		Flux:           flux,
		Energy:         models.XRayLongBand,
		Classification: ClassifyFlare(flux),
	}, nil
}

// decodeKIndexRow turns one positional [time_tag, Kp, ...] row into a
// GeomagneticReading. The storm level is filled in by the caller.
func decodeKIndexRow(raw json.RawMessage) (models.GeomagneticReading, error) {
	var row models.NOAAKIndexRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return models.GeomagneticReading{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}

	if len(row) < 2 {
		return models.GeomagneticReading{}, fmt.Errorf("%w: expected at least 2 columns, got %d", ErrMalformedRow, len(row))
	}

	timeTag, err := coerceString(row[0])
	if err != nil {
		return models.GeomagneticReading{}, fmt.Errorf("%w: time_tag %v", ErrMalformedRow, err)
	}

	kp, err := coerceFloat(row[1])
	if err != nil {
		return models.GeomagneticReading{}, fmt.Errorf("%w: kp_index %v", ErrMalformedRow, err)
	}

	return models.GeomagneticReading{
		TimeTag: timeTag,
		KpIndex: kp,
	}, nil
}

// coerceString accepts only JSON strings
func coerceString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", errors.New("is missing")
	}
	if raw[0] != '"' {
		return "", fmt.Errorf("is not a string: %s", truncate(raw))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

// coerceFloat accepts JSON numbers and strings holding a decimal number.
// Non-finite values are rejected since they cannot be encoded back to JSON.
func coerceFloat(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, errors.New("is missing")
	}
	if bytes.Equal(raw, jsonNull) {
		return 0, errors.New("is null")
	}

	var value float64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("is not numeric: %q", s)
		}
		value = parsed
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, err
		}
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("is out of range: %s", n)
		}
		value = parsed
	default:
		return 0, fmt.Errorf("is not numeric: %s", truncate(raw))
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("is not finite: %s", truncate(raw))
	}
	return value, nil
}

func truncate(raw []byte) string {
	const max = 32
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
