package models

import "encoding/json"

// NOAAXRayRow is one object of the GOES xrays-*.json feed. Only time_tag and
// flux are consumed; flux arrives as a number or a numeric string.
type NOAAXRayRow struct {
	TimeTag json.RawMessage `json:"time_tag"`
	Flux    json.RawMessage `json:"flux"`
}

// NOAAKIndexRow is one positional row of noaa-planetary-k-index.json:
// [time_tag, Kp, a_running, station_count]. Row 0 of the feed is a header.
type NOAAKIndexRow []json.RawMessage
