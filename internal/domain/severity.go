package domain

import "strings"

// Extreme-classification thresholds. Wind and precipitation use the BMKG
// operational criteria for "cuaca ekstrem"; humidity catches saturated-air
// conditions ahead of heavy rainfall.
const (
	ExtremeWindKmh    = 40.0
	ExtremePrecipMM   = 50.0
	ExtremeHumidityPc = 95.0
)

// extremeKeywords are matched case-insensitively against both the local and
// translated weather descriptions.
var extremeKeywords = []string{
	"hujan lebat",
	"hujan sangat lebat",
	"angin kencang",
	"badai",
	"petir",
	"ekstrem",
	"heavy rain",
	"very heavy rain",
	"strong wind",
	"storm",
	"lightning",
	"extreme",
}

// IsExtreme reports whether a forecast sample warrants an immediate,
// individual alert instead of summary-only treatment.
func IsExtreme(s ForecastSample) bool {
	desc := strings.ToLower(s.Description + " " + s.DescriptionEN)
	for _, kw := range extremeKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return s.WindSpeed > ExtremeWindKmh ||
		s.Precipitation > ExtremePrecipMM ||
		s.Humidity > ExtremeHumidityPc
}
