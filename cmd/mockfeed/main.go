// Command mockfeed serves canned BMKG-shaped payloads over HTTP for local
// development. Timestamps are generated relative to the current time so the
// freshness filter accepts them.
//
// Usage:
//
//	go run ./cmd/mockfeed -addr :9091
//
// Point the monitor at it with:
//
//	QUAKE_LATEST_URL=http://localhost:9091/DataMKG/TEWS/autogempa.json
//	QUAKE_RECENT_URL=http://localhost:9091/DataMKG/TEWS/gempaterkini.json
//	QUAKE_FELT_URL=http://localhost:9091/DataMKG/TEWS/gempadirasakan.json
//	WARNING_URL=http://localhost:9091/peringatan-dini-cuaca.xml
//	WEATHER_URL_TEMPLATE=http://localhost:9091/publik/prakiraan-cuaca?adm4=%s
package main

import (
	"encoding/json"
	"encoding/xml"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

var wib = time.FixedZone("WIB", 7*60*60)

var regions = []string{
	"Banten", "Jawa Barat", "Maluku", "Sulawesi Utara", "Papua", "Sumatera Barat",
}

var skies = []struct {
	id, en string
}{
	{"Cerah", "Clear"},
	{"Berawan", "Cloudy"},
	{"Hujan Ringan", "Light Rain"},
	{"Hujan Lebat", "Heavy Rain"},
}

func main() {
	addr := flag.String("addr", ":9091", "listen address")
	extreme := flag.Bool("extreme", false, "include an extreme forecast sample in every weather response")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /DataMKG/TEWS/autogempa.json", serveQuakes(1, true))
	mux.HandleFunc("GET /DataMKG/TEWS/gempaterkini.json", serveQuakes(15, false))
	mux.HandleFunc("GET /DataMKG/TEWS/gempadirasakan.json", serveQuakes(15, false))
	mux.HandleFunc("GET /peringatan-dini-cuaca.xml", serveWarnings)
	mux.HandleFunc("GET /publik/prakiraan-cuaca", serveWeather(*extreme))

	log.Printf("mockfeed listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

func quake(age time.Duration) map[string]any {
	ts := time.Now().In(wib).Add(-age)
	return map[string]any{
		"DateTime":  ts.Format(time.RFC3339),
		"Tanggal":   ts.Format("02 Jan 2006"),
		"Jam":       ts.Format("15:04:05") + " WIB",
		"Magnitude": fmt.Sprintf("%.1f", 3.5+rand.Float64()*3),
		"Kedalaman": fmt.Sprintf("%d km", 5+rand.Intn(100)),
		"Wilayah":   regions[rand.Intn(len(regions))],
		"Lintang":   fmt.Sprintf("%.2f LS", rand.Float64()*10),
		"Bujur":     fmt.Sprintf("%.2f BT", 95+rand.Float64()*45),
		"Potensi":   "Tidak berpotensi tsunami",
		"Dirasakan": "II-III Pandeglang",
		"Shakemap":  fmt.Sprintf("2026%02d%02d.mmi.jpg", rand.Intn(12)+1, rand.Intn(28)+1),
	}
}

func serveQuakes(n int, single bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var gempa any
		if single {
			gempa = quake(time.Duration(rand.Intn(120)) * time.Minute)
		} else {
			list := make([]map[string]any, n)
			for i := range list {
				list[i] = quake(time.Duration(i)*time.Hour + time.Duration(rand.Intn(55))*time.Minute)
			}
			gempa = list
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"Infogempa": map[string]any{"gempa": gempa}})
	}
}

type rssItem struct {
	GUID        string `xml:"guid"`
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

type rssDoc struct {
	XMLName xml.Name  `xml:"rss"`
	Items   []rssItem `xml:"channel>item"`
}

func serveWarnings(w http.ResponseWriter, _ *http.Request) {
	now := time.Now().In(wib)
	doc := rssDoc{Items: []rssItem{
		{
			GUID:        fmt.Sprintf("warn-%d", now.Unix()/3600),
			Title:       "Peringatan Dini Cuaca Jakarta",
			Link:        "https://www.bmkg.go.id/peringatan-dini",
			PubDate:     now.Format("Mon, 02 Jan 2006 15:04:05 -0700"),
			Description: "Waspada potensi hujan lebat disertai kilat dan angin kencang.",
		},
	}}
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	xml.NewEncoder(w).Encode(doc)
}

func serveWeather(extreme bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().In(wib).Truncate(3 * time.Hour)
		samples := make([]map[string]any, 0, 8)
		for i := 0; i < 8; i++ {
			ts := now.Add(time.Duration(i*3) * time.Hour)
			sky := skies[rand.Intn(len(skies))]
			ws := 5 + rand.Float64()*20
			if extreme && i == 0 {
				sky = skies[3]
				ws = 60
			}
			samples = append(samples, map[string]any{
				"local_datetime":  ts.Format("2006-01-02 15:04:05"),
				"datetime":        ts.UTC().Format("2006-01-02T15:04:05Z"),
				"t":               24 + rand.Intn(10),
				"hu":              60 + rand.Intn(35),
				"ws":              ws,
				"wd":              []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}[rand.Intn(8)],
				"tcc":             rand.Intn(100),
				"weather_desc":    sky.id,
				"weather_desc_en": sky.en,
				"analysis_date":   now.UTC().Format("2006-01-02T15:04:05Z"),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"lokasi": map[string]any{"adm4": r.URL.Query().Get("adm4")},
			"data":   []any{map[string]any{"cuaca": []any{samples}}},
		})
	}
}
