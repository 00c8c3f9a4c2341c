package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chris/sprout/internal/care"
	"github.com/tidwall/sjson"
)

// Webhook posts to a Discord webhook. It cannot read replies.
type Webhook struct {
	url  string
	http *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{url: url, http: &http.Client{Timeout: 30 * time.Second}}
}

func (w *Webhook) Send(ctx context.Context, text string) error {
	for i, chunk := range Split(text, discordMaxChunk) {
		if err := w.post(ctx, chunk); err != nil {
			return fmt.Errorf("webhook chunk %d: %w", i+1, err)
		}
	}
	return nil
}

func (w *Webhook) Recent(context.Context, time.Time) ([]care.InboundMessage, error) {
	return nil, nil
}

func (w *Webhook) post(ctx context.Context, content string) error {
	body, _ := sjson.SetBytes(nil, "content", content) // setting a top-level string cannot fail
	req, err := http.NewRequestWithContext(ctx, "POST", w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
