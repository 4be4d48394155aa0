package domain

import "time"

// FeedKind identifies one of the distinct upstream data categories.
type FeedKind string

const (
	FeedQuakeLatest FeedKind = "autogempa"      // single latest event
	FeedQuakeRecent FeedKind = "gempaterkini"   // list of recent M5+ events
	FeedQuakeFelt   FeedKind = "gempadirasakan" // list of felt events
	FeedWarning     FeedKind = "warning"
	FeedWeather     FeedKind = "weather"
)

// QuakeKinds lists the earthquake sub-kinds in their fixed processing order.
var QuakeKinds = []FeedKind{FeedQuakeLatest, FeedQuakeRecent, FeedQuakeFelt}

// SingleItem reports whether a feed kind carries exactly one record per
// response. The caller declares this up front; the parser never guesses.
func (k FeedKind) SingleItem() bool { return k == FeedQuakeLatest }

// QuakeEvent is the canonical earthquake record. Provider fields are kept as
// the strings BMKG publishes; only the timestamp is normalized. Records are
// immutable once stored, unique on (Time, Source).
type QuakeEvent struct {
	Time        time.Time `json:"time"`
	Date        string    `json:"date,omitempty"`  // provider-native Tanggal
	Clock       string    `json:"clock,omitempty"` // provider-native Jam
	Magnitude   string    `json:"magnitude"`
	Depth       string    `json:"depth"`
	Region      string    `json:"region"`
	Latitude    string    `json:"latitude"`
	Longitude   string    `json:"longitude"`
	Coordinates string    `json:"coordinates,omitempty"`
	Potential   string    `json:"potential,omitempty"` // tsunami potential text
	Felt        string    `json:"felt,omitempty"`      // felt-report text
	Shakemap    string    `json:"shakemap,omitempty"`  // image filename, latest kind only
	Source      FeedKind  `json:"source"`
}

// WarningItem is one early-warning bulletin from the RSS feed, unique on ID.
// Published is the provider-native string and is never reparsed.
type WarningItem struct {
	ID          string `json:"id"` // guid, else link, else title
	Title       string `json:"title"`
	Link        string `json:"link,omitempty"`
	Published   string `json:"published,omitempty"`
	Description string `json:"description,omitempty"`
}

// ForecastSample is one weather forecast point for a region, unique on
// (Region, LocalTime). RawPayload keeps the provider's original JSON object
// verbatim so schema additions survive a round trip through storage.
type ForecastSample struct {
	Region        string    `json:"region"` // administrative unit code (adm4)
	AnalysisDate  string    `json:"analysis_date,omitempty"`
	LocalTime     time.Time `json:"local_time"`
	UTCTime       time.Time `json:"utc_time,omitempty"`
	Temperature   float64   `json:"temperature"` // °C
	Humidity      float64   `json:"humidity"`    // %
	Description   string    `json:"description,omitempty"`
	DescriptionEN string    `json:"description_en,omitempty"`
	WindSpeed     float64   `json:"wind_speed"` // km/h
	WindDirection string    `json:"wind_direction,omitempty"`
	CloudCover    float64   `json:"cloud_cover,omitempty"` // %
	Visibility    string    `json:"visibility,omitempty"`
	Precipitation float64   `json:"precipitation,omitempty"` // mm
	RawPayload    []byte    `json:"-"`
}
