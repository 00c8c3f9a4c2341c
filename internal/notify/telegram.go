package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/chris/sprout/internal/care"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	telegramAPI      = "https://api.telegram.org"
	telegramMaxChunk = 4000
)

type Telegram struct {
	baseURL string
	token   string
	chatID  string
	loc     *time.Location
	http    *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		baseURL: telegramAPI,
		token:   token,
		chatID:  chatID,
		loc:     time.Local,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *Telegram) WithBaseURL(u string) *Telegram {
	t.baseURL = u
	return t
}

// WithLocation sets the zone reply dates are reported in.
func (t *Telegram) WithLocation(loc *time.Location) *Telegram {
	t.loc = loc
	return t
}

func (t *Telegram) endpoint(method string) string {
	return t.baseURL + "/bot" + t.token + "/" + method
}

// Send posts text as plain text, one message per chunk.
func (t *Telegram) Send(ctx context.Context, text string) error {
	for i, chunk := range Split(text, telegramMaxChunk) {
		payload, _ := sjson.SetBytes(nil, "chat_id", t.chatID) // setting a top-level string cannot fail
		payload, _ = sjson.SetBytes(payload, "text", chunk)
		if _, err := t.call(ctx, "POST", "sendMessage", payload); err != nil {
			return fmt.Errorf("telegram send chunk %d: %w", i+1, err)
		}
	}
	return nil
}

func (t *Telegram) Recent(ctx context.Context, since time.Time) ([]care.InboundMessage, error) {
	body, err := t.call(ctx, "GET", "getUpdates", nil)
	if err != nil {
		return nil, fmt.Errorf("telegram updates: %w", err)
	}

	var msgs []care.InboundMessage
	gjson.GetBytes(body, "result").ForEach(func(_, u gjson.Result) bool {
		m := u.Get("message")
		if !m.Exists() || !m.Get("text").Exists() {
			return true
		}
		if chat := m.Get("chat.id").String(); t.chatID != "" && chat != t.chatID {
			return true
		}
		at := time.Unix(m.Get("date").Int(), 0)
		if !at.After(since) {
			return true
		}
		msgs = append(msgs, inbound(m.Get("text").String(), at, t.loc, m.Get("from.username").String()))
		return true
	})
	log.Printf("telegram: %d message(s) since %s", len(msgs), since.Format(time.RFC3339))
	return msgs, nil
}

func (t *Telegram) call(ctx context.Context, method, name string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.endpoint(name), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 || !gjson.GetBytes(respBody, "ok").Bool() {
		return nil, fmt.Errorf("telegram api: %s %s", resp.Status, gjson.GetBytes(respBody, "description").String())
	}
	return respBody, nil
}
