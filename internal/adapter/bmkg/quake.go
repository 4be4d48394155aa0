package bmkg

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"

	"github.com/couchcryptid/hazard-monitor/internal/domain"
)

// QuakeRecord is the loosely-typed earthquake record as BMKG publishes it.
// The JSON and XML iterations use identical field names, so one struct
// decodes both. Missing fields decode to "".
type QuakeRecord struct {
	DateTime  string `json:"DateTime" xml:"DateTime"`
	Tanggal   string `json:"Tanggal" xml:"Tanggal"`
	Jam       string `json:"Jam" xml:"Jam"`
	Magnitude string `json:"Magnitude" xml:"Magnitude"`
	Kedalaman string `json:"Kedalaman" xml:"Kedalaman"`
	Wilayah   string `json:"Wilayah" xml:"Wilayah"`
	Lintang   string `json:"Lintang" xml:"Lintang"`
	Bujur     string `json:"Bujur" xml:"Bujur"`
	Potensi   string `json:"Potensi" xml:"Potensi"`
	Dirasakan string `json:"Dirasakan" xml:"Dirasakan"`
	Shakemap  string `json:"Shakemap" xml:"Shakemap"`
	Point     struct {
		Coordinates string `json:"coordinates" xml:"coordinates"`
	} `json:"point" xml:"point"`
}

type quakeJSONEnvelope struct {
	Infogempa struct {
		Gempa json.RawMessage `json:"gempa"`
	} `json:"Infogempa"`
}

type quakeXMLEnvelope struct {
	XMLName xml.Name      `xml:"Infogempa"`
	Gempa   []QuakeRecord `xml:"gempa"`
}

// ParseQuakeFeed decodes an earthquake feed body. The caller declares whether
// the feed kind carries a single record or an ordered list; the parser never
// guesses. Legacy XML bodies are detected by their leading byte.
func ParseQuakeFeed(body []byte, kind domain.FeedKind) ([]QuakeRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("parse %s: empty body", kind)
	}

	if trimmed[0] == '<' {
		return parseQuakeXML(trimmed, kind)
	}
	return parseQuakeJSON(trimmed, kind)
}

func parseQuakeJSON(body []byte, kind domain.FeedKind) ([]QuakeRecord, error) {
	var env quakeJSONEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse %s: %w", kind, err)
	}
	raw := bytes.TrimSpace(env.Infogempa.Gempa)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if kind.SingleItem() {
		var rec QuakeRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parse %s: single record: %w", kind, err)
		}
		return []QuakeRecord{rec}, nil
	}

	var recs []QuakeRecord
	if err := json.Unmarshal(raw, &recs); err == nil {
		return recs, nil
	}
	// Multi-item feeds occasionally collapse to a bare object when only one
	// event is available.
	var rec QuakeRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse %s: record list: %w", kind, err)
	}
	return []QuakeRecord{rec}, nil
}

func parseQuakeXML(body []byte, kind domain.FeedKind) ([]QuakeRecord, error) {
	var env quakeXMLEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse %s: %w", kind, err)
	}
	if kind.SingleItem() && len(env.Gempa) > 1 {
		env.Gempa = env.Gempa[:1]
	}
	return env.Gempa, nil
}

// CanonicalQuake normalizes a raw record into the canonical entity.
// A missing or unparsable timestamp rejects the record (ok=false); field
// visibility varies by feed kind the way the notification variants expect:
// the recent-list kind omits the felt report, the felt-list kind omits the
// tsunami potential, and only the latest kind keeps its shakemap reference.
func CanonicalQuake(rec QuakeRecord, kind domain.FeedKind) (domain.QuakeEvent, bool) {
	ts, ok := domain.NormalizeTimestamp(rec.DateTime)
	if !ok {
		return domain.QuakeEvent{}, false
	}

	e := domain.QuakeEvent{
		Time:        ts,
		Date:        rec.Tanggal,
		Clock:       rec.Jam,
		Magnitude:   rec.Magnitude,
		Depth:       rec.Kedalaman,
		Region:      rec.Wilayah,
		Latitude:    rec.Lintang,
		Longitude:   rec.Bujur,
		Coordinates: rec.Point.Coordinates,
		Potential:   rec.Potensi,
		Source:      kind,
	}
	switch kind {
	case domain.FeedQuakeLatest:
		e.Felt = rec.Dirasakan
		e.Shakemap = rec.Shakemap
	case domain.FeedQuakeRecent:
		// No felt report for recent-list events.
	case domain.FeedQuakeFelt:
		e.Potential = ""
		e.Felt = rec.Dirasakan
	}
	return e, true
}
