// Package resemblyzer provides a voice encoder backed by a Resemblyzer
// sidecar service.
//
// The sidecar wraps the Resemblyzer d-vector encoder behind a small REST API
// (POST /embed accepting a WAV body and returning a JSON embedding). Audio
// preprocessing — resampling to 16 kHz, noise reduction, peak amplification —
// happens inside the sidecar, so this client submits raw WAV bytes verbatim.
//
// Example:
//
//	p, err := resemblyzer.New("http://localhost:9090")
//	vec, err := p.Encode(ctx, wavBytes)
package resemblyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vaani-labs/vaani/pkg/provider/voiceenc"
)

// DefaultBaseURL is the default address of a locally running encoder sidecar.
const DefaultBaseURL = "http://localhost:9090"

// defaultDimensions is the d-vector size of the stock Resemblyzer encoder.
const defaultDimensions = 256

// Compile-time assertion that Provider implements voiceenc.Provider.
var _ voiceenc.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithDimensions overrides the expected embedding dimension. Defaults to 256,
// the stock Resemblyzer d-vector size.
func WithDimensions(d int) Option {
	return func(p *Provider) {
		p.dimensions = d
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s — encoding
// a several-second utterance on CPU can be slow.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements voiceenc.Provider against a Resemblyzer sidecar.
// Safe for concurrent use.
type Provider struct {
	baseURL    string
	dimensions int
	httpClient *http.Client
}

// New creates a Provider talking to the sidecar at baseURL. An empty baseURL
// selects [DefaultBaseURL].
func New(baseURL string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	p := &Provider{
		baseURL:    baseURL,
		dimensions: defaultDimensions,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.dimensions <= 0 {
		return nil, fmt.Errorf("resemblyzer: dimensions must be positive, got %d", p.dimensions)
	}
	return p, nil
}

// embedResponse is the sidecar's JSON reply.
type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Encode implements [voiceenc.Provider.Encode].
func (p *Provider) Encode(ctx context.Context, audio []byte) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("resemblyzer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resemblyzer: embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("resemblyzer: embed returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("resemblyzer: decode response: %w", err)
	}
	if len(er.Embedding) != p.dimensions {
		return nil, fmt.Errorf("resemblyzer: sidecar returned %d-dimensional embedding, expected %d",
			len(er.Embedding), p.dimensions)
	}
	return er.Embedding, nil
}

// Dimensions implements [voiceenc.Provider.Dimensions].
func (p *Provider) Dimensions() int { return p.dimensions }

// ModelID implements [voiceenc.Provider.ModelID].
func (p *Provider) ModelID() string { return "resemblyzer-dvector" }
