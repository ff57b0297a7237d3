// Package modelserver provides intent.Classifier and intent.Tagger backed by
// an NLU model-server sidecar.
//
// The sidecar hosts the offline-trained artifacts (TF-IDF + intent
// classifier, slot-filling CRF) behind a small REST API:
//
//	POST /intent  {"text": "..."}                       -> {"intent": "..."}
//	POST /slots   {"tokens": [{"text": ..., "pos": ...}]} -> {"tags": ["O", ...]}
//
// This keeps the Python model runtime out of process while the decoding and
// dialog logic stay here.
package modelserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vaani-labs/vaani/pkg/nlu"
	"github.com/vaani-labs/vaani/pkg/provider/intent"
)

// DefaultBaseURL is the default address of a locally running model server.
const DefaultBaseURL = "http://localhost:9091"

// Compile-time assertion that Client implements both scorer interfaces.
var _ intent.Provider = (*Client)(nil)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout. Defaults to 10 s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// Client implements intent.Classifier and intent.Tagger against the model
// server. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client talking to the model server at baseURL. An empty
// baseURL selects [DefaultBaseURL].
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type intentRequest struct {
	Text string `json:"text"`
}

type intentResponse struct {
	Intent string `json:"intent"`
}

type tokenPayload struct {
	Text string `json:"text"`
	POS  string `json:"pos,omitempty"`
}

type slotsRequest struct {
	Tokens []tokenPayload `json:"tokens"`
}

type slotsResponse struct {
	Tags []string `json:"tags"`
}

// ClassifyIntent implements [intent.Classifier.ClassifyIntent].
func (c *Client) ClassifyIntent(ctx context.Context, text string) (nlu.Intent, error) {
	var resp intentResponse
	if err := c.post(ctx, "/intent", intentRequest{Text: text}, &resp); err != nil {
		return "", fmt.Errorf("modelserver: classify intent: %w", err)
	}
	return nlu.Intent(resp.Intent), nil
}

// TagSequence implements [intent.Tagger.TagSequence].
func (c *Client) TagSequence(ctx context.Context, tokens []nlu.Token) ([]string, error) {
	req := slotsRequest{Tokens: make([]tokenPayload, len(tokens))}
	for i, t := range tokens {
		req.Tokens[i] = tokenPayload{Text: t.Text, POS: t.POS}
	}

	var resp slotsResponse
	if err := c.post(ctx, "/slots", req, &resp); err != nil {
		return nil, fmt.Errorf("modelserver: tag sequence: %w", err)
	}
	if len(resp.Tags) != len(tokens) {
		return nil, fmt.Errorf("modelserver: tag sequence: server returned %d tags for %d tokens",
			len(resp.Tags), len(tokens))
	}
	return resp.Tags, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %s: %s", path, resp.Status, bytes.TrimSpace(raw))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
