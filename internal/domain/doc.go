// Package domain models BMKG hazard data: earthquake events, early-warning
// bulletins, and regional weather forecasts.
//
// # Data Sources
//
// All feeds come from BMKG (Badan Meteorologi, Klimatologi, dan Geofisika),
// Indonesia's national weather and geophysics agency.
//
// Earthquake feeds (data.bmkg.go.id/DataMKG/TEWS/):
//
//	autogempa       latest single event, may carry a shakemap image reference
//	gempaterkini    list of recent M5+ events
//	gempadirasakan  list of felt events with a "Dirasakan" intensity report
//
// Historically the feeds were XML; the current iteration serves JSON with the
// same field names under an {"Infogempa":{"gempa":...}} wrapper. Both forms
// are accepted by the parser in internal/adapter/bmkg.
//
// Warning bulletins are an RSS-style XML document with repeated <item>
// blocks. The publish date is kept as the provider-native string and never
// reparsed; the dedup identifier is the item guid, falling back to link and
// then title.
//
// Weather forecasts come from the public forecast API keyed by an
// administrative region code (adm4). Forecast samples have appeared at three
// nesting depths across API versions: a flat array, an array of location
// wrappers each holding a "cuaca" array, and a doubly-nested array-of-arrays
// under "cuaca". A JSON object is a forecast sample if and only if its
// "local_datetime" field is present and non-empty.
//
// # Timestamp Conventions
//
// Provider timestamps arrive in several formats (RFC3339, ISO 8601 without a
// zone, space-separated date-time). Zone-less timestamps are interpreted as
// WIB (UTC+7), the zone the provider publishes in. Canonical timestamps are
// always zone-qualified; a record whose timestamp cannot be normalized is
// skipped, never stored.
//
// # Dedup Keys
//
// Stored records are append-only and idempotent against re-ingestion:
//
//	earthquake  (timestamp, source feed kind)
//	warning     identifier (guid | link | title)
//	forecast    (region code, local timestamp)
//
// # Extreme Classification
//
// A forecast sample is extreme if its description contains one of a fixed
// keyword set (hujan lebat, hujan sangat lebat, angin kencang, badai, petir,
// ekstrem), or wind exceeds 40 km/h, or precipitation exceeds 50 mm, or
// relative humidity exceeds 95%. Extreme samples are dispatched immediately;
// everything else is folded into a per-region daily summary.
package domain
