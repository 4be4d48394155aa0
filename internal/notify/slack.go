package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Slack posts notifications to an incoming-webhook URL as Block Kit payloads.
type Slack struct {
	webhookURL string
	client     *http.Client
}

// NewSlack creates the Slack channel.
func NewSlack(webhookURL string, timeout time.Duration) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Slack) Name() string { return "slack" }

// Slack Block Kit wire types; only the block kinds the monitor emits.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	ImageURL string      `json:"image_url,omitempty"`
	AltText  string      `json:"alt_text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send renders n into section/fields/image blocks and posts them. Success is
// a 2xx response from the webhook.
func (s *Slack) Send(ctx context.Context, n Notification) error {
	payload := slackPayload{
		Blocks: []slackBlock{
			{
				Type: "section",
				Text: &slackText{Type: "mrkdwn", Text: "*" + n.Title + "*"},
			},
		},
	}

	if len(n.Fields) > 0 {
		fields := make([]slackText, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = slackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s:*\n%s", f.Label, f.Value)}
		}
		payload.Blocks = append(payload.Blocks, slackBlock{Type: "section", Fields: fields})
	}
	if len(n.Lines) > 0 {
		payload.Blocks = append(payload.Blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: strings.Join(n.Lines, "\n")},
		})
	}
	if n.ImageURL != "" {
		payload.Blocks = append(payload.Blocks, slackBlock{
			Type:     "image",
			ImageURL: n.ImageURL,
			AltText:  "Shakemap Gempa",
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
