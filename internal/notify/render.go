package notify

import (
	"fmt"
	"time"

	"github.com/couchcryptid/hazard-monitor/internal/domain"
)

// shakemapBaseURL prefixes the shakemap filename the latest-event feed
// publishes.
const shakemapBaseURL = "https://data.bmkg.go.id/DataMKG/TEWS/"

// quakeTitles are the per-source headings the original monitor used.
var quakeTitles = map[domain.FeedKind]string{
	domain.FeedQuakeLatest: "Gempa Terbaru",
	domain.FeedQuakeRecent: "Gempa Terkini",
	domain.FeedQuakeFelt:   "Gempa Dirasakan",
}

// QuakeNotification renders an earthquake event. Field visibility varies by
// feed kind: the latest kind carries a shakemap image, the recent-list kind
// has no felt report, the felt-list kind has no tsunami potential.
func QuakeNotification(e domain.QuakeEvent) Notification {
	title, ok := quakeTitles[e.Source]
	if !ok {
		title = "Gempa"
	}

	n := Notification{
		Title: fmt.Sprintf("🚨 %s Terdeteksi! 🚨", title),
		Fields: []Field{
			{Label: "Magnitudo", Value: "M" + e.Magnitude},
			{Label: "Kedalaman", Value: e.Depth},
			{Label: "Lokasi", Value: e.Region},
			{Label: "Waktu", Value: e.Time.Format(time.RFC3339)},
		},
	}

	if e.Source != domain.FeedQuakeFelt {
		n.Fields = append(n.Fields, Field{Label: "Potensi", Value: orNA(e.Potential)})
	}
	if e.Source != domain.FeedQuakeRecent {
		n.Fields = append(n.Fields, Field{Label: "Dirasakan", Value: orNA(e.Felt)})
	}
	if e.Source == domain.FeedQuakeLatest && e.Shakemap != "" {
		n.ImageURL = shakemapBaseURL + e.Shakemap
	}
	return n
}

// WarningNotification renders an early-warning bulletin.
func WarningNotification(w domain.WarningItem) Notification {
	n := Notification{
		Title: "⚠️ Peringatan Dini ⚠️",
		Fields: []Field{
			{Label: "Judul", Value: w.Title},
			{Label: "Waktu", Value: orNA(w.Published)},
		},
	}
	if w.Description != "" {
		n.Fields = append(n.Fields, Field{Label: "Keterangan", Value: w.Description})
	}
	if w.Link != "" {
		n.Fields = append(n.Fields, Field{Label: "Tautan", Value: w.Link})
	}
	return n
}

// ExtremeForecastNotification renders a forecast sample that crossed the
// extreme thresholds, for immediate individual dispatch.
func ExtremeForecastNotification(f domain.ForecastSample) Notification {
	desc := f.Description
	if f.DescriptionEN != "" {
		desc = fmt.Sprintf("%s (%s)", f.Description, f.DescriptionEN)
	}
	return Notification{
		Title:    "⛈️ Cuaca Ekstrem Terdeteksi! ⛈️",
		Priority: true,
		Fields: []Field{
			{Label: "Wilayah", Value: f.Region},
			{Label: "Waktu", Value: f.LocalTime.Format(time.RFC3339)},
			{Label: "Cuaca", Value: orNA(desc)},
			{Label: "Suhu", Value: fmt.Sprintf("%.0f°C", f.Temperature)},
			{Label: "Kelembapan", Value: fmt.Sprintf("%.0f%%", f.Humidity)},
			{Label: "Angin", Value: fmt.Sprintf("%.0f km/j %s", f.WindSpeed, f.WindDirection)},
		},
	}
}

// ForecastSummaryNotification renders the per-region daily summary from
// already-stored samples, one line per sample.
func ForecastSummaryNotification(region string, samples []domain.ForecastSample) Notification {
	n := Notification{
		Title: "🌤️ Ringkasan Cuaca Harian 🌤️",
		Fields: []Field{
			{Label: "Wilayah", Value: region},
		},
	}
	for _, f := range samples {
		n.Lines = append(n.Lines, fmt.Sprintf("%s  %s  %.0f°C  %.0f%%",
			f.LocalTime.Format("15:04"), orNA(f.Description), f.Temperature, f.Humidity))
	}
	return n
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
