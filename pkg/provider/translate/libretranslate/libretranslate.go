// Package libretranslate provides a translation provider backed by a
// LibreTranslate server (https://libretranslate.com), self-hostable and
// API-compatible with several community instances.
package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vaani-labs/vaani/pkg/provider/translate"
)

// DefaultBaseURL is the default address of a locally running LibreTranslate
// instance.
const DefaultBaseURL = "http://localhost:5000"

// Compile-time assertion that Client implements translate.Provider.
var _ translate.Provider = (*Client)(nil)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithAPIKey sets the API key sent with each request. Public instances
// usually require one; self-hosted instances usually don't.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 15 s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// Client implements translate.Provider against a LibreTranslate server.
// Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client talking to the server at baseURL. An empty baseURL
// selects [DefaultBaseURL].
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate implements [translate.Provider.Translate].
func (c *Client) Translate(ctx context.Context, text, src, dst string) (string, error) {
	payload, err := json.Marshal(translateRequest{Q: text, Source: src, Target: dst, APIKey: c.apiKey})
	if err != nil {
		return "", fmt.Errorf("libretranslate: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("libretranslate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("libretranslate: translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("libretranslate: translate returned %s: %s", resp.Status, bytes.TrimSpace(raw))
	}

	var tr translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("libretranslate: decode response: %w", err)
	}
	return tr.TranslatedText, nil
}
