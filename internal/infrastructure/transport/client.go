package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the delivery transport's webhook: the messaging frontend
// that actually hands released items to users and can delete what it sent.
type Client interface {
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	Notify(ctx context.Context, chatID int64, text string) error
}

type client struct {
	webhookURL string
	http       *http.Client
}

// New builds a Client. An empty webhookURL yields a no-op client so the
// service runs without a transport attached (local development).
func New(webhookURL string) Client {
	if webhookURL == "" {
		return noop{}
	}
	return &client{
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return c.post(ctx, "delete_message", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	})
}

func (c *client) Notify(ctx context.Context, chatID int64, text string) error {
	return c.post(ctx, "send_message", map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})
}

func (c *client) post(ctx context.Context, action string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL+"/"+action, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("transport %s: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("transport %s: status %d", action, resp.StatusCode)
	}
	return nil
}

type noop struct{}

func (noop) DeleteMessage(context.Context, int64, int64) error { return nil }
func (noop) Notify(context.Context, int64, string) error       { return nil }
