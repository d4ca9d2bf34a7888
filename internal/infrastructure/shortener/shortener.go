package shortener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Shortener turns a verification URL into a monetized short link. The dwell
// a visitor spends on the shortener's interstitial pages is what funds the
// free access path.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

type client struct {
	apiURL string
	token  string
	http   *http.Client
}

// New builds a Shortener against the configured provider API. An empty
// apiURL yields a pass-through that hands back the long URL unchanged.
func New(apiURL, token string) Shortener {
	if apiURL == "" {
		return passthrough{}
	}
	return &client{
		apiURL: apiURL,
		token:  token,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

type shortenResponse struct {
	Status       string `json:"status"`
	ShortenedURL string `json:"shortenedUrl"`
	Message      string `json:"message"`
}

// Shorten calls the provider. On any failure it falls back to the long URL:
// a broken shortener must not block the verification flow, it only costs
// revenue.
func (c *client) Shorten(ctx context.Context, longURL string) (string, error) {
	q := url.Values{}
	q.Set("api", c.token)
	q.Set("url", longURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+q.Encode(), nil)
	if err != nil {
		return longURL, fmt.Errorf("build shorten request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("shortener unreachable, using long url", "err", err)
		return longURL, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("shortener returned non-200, using long url", "status", resp.StatusCode)
		return longURL, nil
	}

	var sr shortenResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		slog.Warn("shortener response undecodable, using long url", "err", err)
		return longURL, nil
	}
	if sr.Status != "success" || sr.ShortenedURL == "" {
		slog.Warn("shortener rejected url, using long url", "message", sr.Message)
		return longURL, nil
	}
	return sr.ShortenedURL, nil
}

type passthrough struct{}

func (passthrough) Shorten(_ context.Context, longURL string) (string, error) {
	return longURL, nil
}
