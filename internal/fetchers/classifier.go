package fetchers

import "solarguardian/internal/models"

// Flux thresholds in W/m² for the GOES 0.1-0.8nm band
const (
	fluxClassX = 1e-4
	fluxClassM = 1e-5
	fluxClassC = 1e-6
	fluxClassB = 1e-7
)

// ClassifyFlare maps an X-ray flux to its flare class. Every input has a
// class; NaN and anything below 1e-7 is A.
func ClassifyFlare(flux float64) models.FlareClass {
	switch {
	case flux >= fluxClassX:
		return models.FlareClassX
	case flux >= fluxClassM:
		return models.FlareClassM
	case flux >= fluxClassC:
		return models.FlareClassC
	case flux >= fluxClassB:
		return models.FlareClassB
	default:
		return models.FlareClassA
	}
}

// StormLevel maps a planetary K-index onto the NOAA G-scale
func StormLevel(kp float64) string {
	switch {
	case kp >= 9:
		return "G5 Extreme"
	case kp >= 8:
		return "G4 Severe"
	case kp >= 7:
		return "G3 Strong"
	case kp >= 6:
		return "G2 Moderate"
	case kp >= 5:
		return "G1 Minor"
	default:
		return models.StormLevelNormal
	}
}
