package bmkg

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/hazard-monitor/internal/domain"
)

// sampleKey is the field whose presence makes a JSON object a forecast
// sample. Recursion through wrapper shapes stops as soon as an element
// exposes it.
const sampleKey = "local_datetime"

// nestedKey is where wrapper objects hide their sample arrays.
const nestedKey = "cuaca"

// WeatherSample is one raw forecast element: decoded fields for optional
// accessors plus the provider's JSON kept verbatim.
type WeatherSample struct {
	fields map[string]json.RawMessage
	raw    []byte
}

// Raw returns the sample's original JSON object, byte for byte.
func (s WeatherSample) Raw() []byte { return s.raw }

// Text returns the string value of key, or "" when absent or not a string.
func (s WeatherSample) Text(key string) string {
	raw, ok := s.fields[key]
	if !ok {
		return ""
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v
}

// Number returns the numeric value of key. The provider has shipped numbers
// both bare and quoted, so string-encoded numbers are accepted too.
func (s WeatherSample) Number(key string) (float64, bool) {
	raw, ok := s.fields[key]
	if !ok {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil && str != "" {
		if _, err := fmt.Sscanf(str, "%g", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ParseWeatherFeed decodes a weather feed body whose forecast samples may sit
// at one of several depths. Shape hypotheses are tried in a fixed order:
//
//  1. a flat array of samples;
//  2. an array of wrapper objects, each exposing a sample array under
//     "cuaca" that may itself be nested one level deeper.
//
// A top-level object is first unwrapped through its "data" (or "cuaca") key.
// Any element lacking a non-empty "local_datetime" is silently dropped.
func ParseWeatherFeed(body []byte) ([]WeatherSample, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("parse weather feed: empty body")
	}

	if trimmed[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("parse weather feed: %w", err)
		}
		if inner, ok := obj["data"]; ok {
			trimmed = bytes.TrimSpace(inner)
		} else if inner, ok := obj[nestedKey]; ok {
			trimmed = bytes.TrimSpace(inner)
		} else {
			// The whole object might itself be a single sample.
			if s, ok := asSample(trimmed); ok {
				return []WeatherSample{s}, nil
			}
			return nil, fmt.Errorf("parse weather feed: no sample array found")
		}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, fmt.Errorf("parse weather feed: %w", err)
	}

	var samples []WeatherSample
	collectSamples(elements, 0, &samples)
	return samples, nil
}

// collectSamples walks an element array, descending through wrapper objects
// and nested arrays up to two levels deep.
func collectSamples(elements []json.RawMessage, depth int, out *[]WeatherSample) {
	if depth > 2 {
		return
	}
	for _, el := range elements {
		el = bytes.TrimSpace(el)
		if len(el) == 0 {
			continue
		}
		switch el[0] {
		case '{':
			if s, ok := asSample(el); ok {
				*out = append(*out, s)
				continue
			}
			// Wrapper object: look one level down.
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(el, &obj); err != nil {
				continue
			}
			inner, ok := obj[nestedKey]
			if !ok {
				continue
			}
			var nested []json.RawMessage
			if err := json.Unmarshal(inner, &nested); err != nil {
				continue
			}
			collectSamples(nested, depth+1, out)
		case '[':
			var nested []json.RawMessage
			if err := json.Unmarshal(el, &nested); err != nil {
				continue
			}
			collectSamples(nested, depth+1, out)
		}
	}
}

// asSample decodes raw as a forecast sample. ok is false unless the object
// carries a non-empty local timestamp.
func asSample(raw []byte) (WeatherSample, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return WeatherSample{}, false
	}
	s := WeatherSample{fields: fields, raw: raw}
	if s.Text(sampleKey) == "" {
		return WeatherSample{}, false
	}
	return s, true
}

// CanonicalForecast normalizes a raw sample for region into the canonical
// entity. A sample whose local timestamp cannot be normalized is rejected.
func CanonicalForecast(s WeatherSample, region string) (domain.ForecastSample, bool) {
	local, ok := domain.NormalizeTimestamp(s.Text(sampleKey))
	if !ok {
		return domain.ForecastSample{}, false
	}

	f := domain.ForecastSample{
		Region:        region,
		AnalysisDate:  s.Text("analysis_date"),
		LocalTime:     local,
		Description:   s.Text("weather_desc"),
		DescriptionEN: s.Text("weather_desc_en"),
		WindDirection: s.Text("wd"),
		Visibility:    s.Text("vs_text"),
		RawPayload:    append([]byte(nil), s.Raw()...),
	}
	if utc, ok := domain.NormalizeTimestamp(s.Text("datetime")); ok {
		f.UTCTime = utc
	}
	if v, ok := s.Number("t"); ok {
		f.Temperature = v
	}
	if v, ok := s.Number("hu"); ok {
		f.Humidity = v
	}
	if v, ok := s.Number("ws"); ok {
		f.WindSpeed = v
	}
	if v, ok := s.Number("tcc"); ok {
		f.CloudCover = v
	}
	if v, ok := s.Number("tp"); ok {
		f.Precipitation = v
	}
	return f, true
}
