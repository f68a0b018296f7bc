// package client consumes the DJ endpoints: the SSE progress stream and its
// aggregated sibling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/soundslope/vibedj/internal/progress"
	"github.com/soundslope/vibedj/internal/protocol"
	"github.com/soundslope/vibedj/internal/shared"
	"golang.org/x/oauth2"
)

// Client talks to a running vibedj server.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// Opts contains dependencies for a [Client].
type Opts struct {
	BaseURL string
	Token   string
	Logger  *log.Logger
	// HTTPClient overrides the default bearer-authed client. Tests inject
	// one here.
	HTTPClient *http.Client
}

// New creates a client. The bearer credential is attached to every request
// via an [oauth2] token source.
func New(opts Opts) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: client base URL", shared.ErrMissingConfig)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		if opts.Token == "" {
			return nil, fmt.Errorf("%w: client token", shared.ErrMissingCredential)
		}
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(context.Background(), source)
	}

	return &Client{
		baseURL: opts.BaseURL,
		http:    httpClient,
		logger:  opts.Logger,
	}, nil
}

// FromConfig creates a client from the [client] section of the configuration.
func FromConfig(config *shared.Config, logger *log.Logger) (*Client, error) {
	return New(Opts{
		BaseURL: config.Client.BaseURL,
		Token:   config.Client.Token,
		Logger:  logger,
	})
}

// Stream opens the progress channel for one operation and invokes fn for
// every frame in delivery order. It returns nil once a terminal frame has
// been seen, [shared.ErrStreamIncomplete] when the server closes the channel
// without one, and the callback's error if fn rejects a frame.
func (c *Client) Stream(ctx context.Context, prompt, mode string, fn func(protocol.Frame) error) error {
	query := url.Values{"prompt": {prompt}}
	if mode != "" {
		query.Set("mode", mode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/dj/stream?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	terminal := false
	err = protocol.ReadStream(resp.Body, func(f protocol.Frame) error {
		if f.Terminal() {
			terminal = true
		}
		return fn(f)
	})
	if err != nil {
		return err
	}
	if !terminal {
		return shared.ErrStreamIncomplete
	}
	return nil
}

// GenerateResult is the aggregated response of the non-streaming endpoint.
type GenerateResult struct {
	SessionID string `json:"session_id,omitempty"`
	progress.View
}

// Generate runs one operation without streaming and returns the server-side
// aggregate of its history.
func (c *Client) Generate(ctx context.Context, prompt, mode string) (*GenerateResult, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt, "mode": mode})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/dj/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result GenerateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// Health reports whether the server answers its liveness probe.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("server error: status %d", resp.StatusCode)
	default:
		return nil
	}
}
