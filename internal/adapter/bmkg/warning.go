package bmkg

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/couchcryptid/hazard-monitor/internal/domain"
)

// rssDocument covers the RSS-style warning feed. Only the item fields the
// pipeline consumes are mapped; anything else is ignored.
type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// ParseWarningFeed extracts all <item> blocks from an RSS-style warning
// document. Parsing is tolerant: a missing tag yields an empty string, and an
// item without any identifying field is dropped rather than failing the feed.
// The dedup identifier is the guid, falling back to link and then title.
func ParseWarningFeed(body []byte) ([]domain.WarningItem, error) {
	var doc rssDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse warning feed: %w", err)
	}

	items := make([]domain.WarningItem, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		id := firstNonEmpty(it.GUID, it.Link, it.Title)
		if id == "" {
			continue
		}
		items = append(items, domain.WarningItem{
			ID:          id,
			Title:       strings.TrimSpace(it.Title),
			Link:        strings.TrimSpace(it.Link),
			Published:   strings.TrimSpace(it.PubDate),
			Description: strings.TrimSpace(it.Description),
		})
	}
	return items, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
