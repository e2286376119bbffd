package fetchers

import (
	"encoding/json"
	"fmt"

	"solarguardian/internal/config"
	"solarguardian/internal/logger"
	"solarguardian/internal/models"

	"github.com/go-playground/validator/v10"
)

// NormalizerOptions configures row handling
type NormalizerOptions struct {
	// StrictFlares fails the whole flare batch on the first bad row instead
	// of skipping it.
	StrictFlares bool
	// ClassifyStorms derives storm_level from Kp; otherwise it is "Normal".
	ClassifyStorms bool
	Observer       Observer
	Logger         *logger.Logger
}

// DataNormalizer turns raw NOAA documents into validated readings
type DataNormalizer struct {
	opts     NormalizerOptions
	validate *validator.Validate
	observer Observer
	log      *logger.Logger
}

// NewDataNormalizer creates a new data normalizer instance
func NewDataNormalizer(opts NormalizerOptions) *DataNormalizer {
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &DataNormalizer{
		opts:     opts,
		validate: validator.New(),
		observer: opts.Observer,
		log:      opts.Logger.WithComponent("normalizer"),
	}
}

// NormalizeFlares converts the GOES X-ray document into flare readings.
// An error is only returned with StrictFlares set.
func (n *DataNormalizer) NormalizeFlares(payload json.RawMessage) ([]models.FlareReading, error) {
	source := config.EndpointSolarFlare

	rows, err := splitRows(payload)
	if err != nil {
		if n.opts.StrictFlares {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		n.log.WarnErr("Discarding upstream document", err, logger.Fields{"source": source})
		return []models.FlareReading{}, nil
	}

	if n.opts.StrictFlares {
		readings := make([]models.FlareReading, 0, len(rows))
		for i, raw := range rows {
			reading, err := n.parseFlare(raw)
			if err != nil {
				return nil, &RowError{Source: source, Index: i, Err: err}
			}
			readings = append(readings, reading)
		}
		return readings, nil
	}

	readings, skipped := parseLenient(rows, n.parseFlare)
	n.reportSkipped(source, len(rows), skipped)
	return readings, nil
}

// NormalizeGeomagnetic converts the planetary K-index document into
// geomagnetic readings. Row 0 is the header and is dropped; bad rows are
// skipped.
func (n *DataNormalizer) NormalizeGeomagnetic(payload json.RawMessage) []models.GeomagneticReading {
	source := config.EndpointGeomagnetic

	rows, err := splitRows(payload)
	if err != nil {
		n.log.WarnErr("Discarding upstream document", err, logger.Fields{"source": source})
		return []models.GeomagneticReading{}
	}
	if len(rows) == 0 {
		return []models.GeomagneticReading{}
	}

	readings, skipped := parseLenient(rows[1:], n.parseKIndex)
	for i := range skipped {
		// report positions in the upstream document, header included
		skipped[i].Index++
	}
	n.reportSkipped(source, len(rows)-1, skipped)
	return readings
}

func (n *DataNormalizer) parseFlare(raw json.RawMessage) (models.FlareReading, error) {
	reading, err := decodeXRayRow(raw)
	if err != nil {
		return models.FlareReading{}, err
	}
	if err := n.validate.Struct(reading); err != nil {
		return models.FlareReading{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	return reading, nil
}

func (n *DataNormalizer) parseKIndex(raw json.RawMessage) (models.GeomagneticReading, error) {
	reading, err := decodeKIndexRow(raw)
	if err != nil {
		return models.GeomagneticReading{}, err
	}
	if err := n.validate.Struct(reading); err != nil {
		return models.GeomagneticReading{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}

	reading.StormLevel = models.StormLevelNormal
	if n.opts.ClassifyStorms {
		reading.StormLevel = StormLevel(reading.KpIndex)
	}
	return reading, nil
}

func (n *DataNormalizer) reportSkipped(source string, total int, skipped []RowError) {
	if len(skipped) == 0 {
		return
	}
	for i := range skipped {
		skipped[i].Source = source
	}

	n.observer.RowsSkipped(source, len(skipped))
	n.log.WarnErr("Skipped malformed upstream rows", &skipped[0], logger.Fields{
		"source":  source,
		"rows":    total,
		"skipped": len(skipped),
	})
}

// parseLenient applies parse to every row, keeping successes in order and
// collecting failures instead of stopping at them.
func parseLenient[R any, T any](rows []R, parse func(R) (T, error)) ([]T, []RowError) {
	out := make([]T, 0, len(rows))
	var skipped []RowError

	for i, row := range rows {
		value, err := parse(row)
		if err != nil {
			skipped = append(skipped, RowError{Index: i, Err: err})
			continue
		}
		out = append(out, value)
	}

	return out, skipped
}
