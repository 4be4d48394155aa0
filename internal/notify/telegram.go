package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Telegram sends notifications through the Bot API's sendMessage method as
// form-encoded requests in MarkdownV2 parse mode. Every user-supplied field
// is escaped before interpolation.
type Telegram struct {
	token   string
	chatID  string
	client  *http.Client
	apiBase string // overridable in tests
}

// NewTelegram creates the Telegram channel.
func NewTelegram(token, chatID string, timeout time.Duration) *Telegram {
	return &Telegram{
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: timeout},
		apiBase: "https://api.telegram.org",
	}
}

func (t *Telegram) Name() string { return "telegram" }

// telegramResponse is the slice of the Bot API response the monitor cares
// about: the remote must acknowledge success in the body, a 2xx status alone
// is not enough.
type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send renders n into escaped MarkdownV2 text and posts it.
func (t *Telegram) Send(ctx context.Context, n Notification) error {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", EscapeMarkdown(n.Title))
	for _, f := range n.Fields {
		fmt.Fprintf(&b, "*%s:* %s\n", EscapeMarkdown(f.Label), EscapeMarkdown(f.Value))
	}
	if len(n.Lines) > 0 {
		b.WriteString("\n")
		for _, line := range n.Lines {
			b.WriteString(EscapeMarkdown(line))
			b.WriteString("\n")
		}
	}
	if n.ImageURL != "" {
		fmt.Fprintf(&b, "*Shakemap:* %s\n", EscapeMarkdown(n.ImageURL))
	}

	form := url.Values{
		"chat_id":    {t.chatID},
		"text":       {b.String()},
		"parse_mode": {"MarkdownV2"},
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	var result telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !result.OK {
		desc := result.Description
		if desc == "" {
			desc = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("telegram API error: %s", desc)
	}
	return nil
}
