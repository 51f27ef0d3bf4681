package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hammamikhairi/moonrace/internal/logger"
)

// ClientOption configures a remote provider client.
type ClientOption func(*restClient)

// WithVoice sets the provider voice name or id.
func WithVoice(voice string) ClientOption {
	return func(c *restClient) {
		if voice != "" {
			c.voice = voice
		}
	}
}

// WithBaseURL points the client at a different endpoint root.
func WithBaseURL(url string) ClientOption {
	return func(c *restClient) {
		c.baseURL = url
	}
}

// WithHTTPTimeout sets the HTTP client timeout for synthesis requests.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *restClient) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *restClient) {
		c.httpClient = hc
	}
}

// restClient holds what every remote provider needs.
type restClient struct {
	apiKey     string
	baseURL    string
	voice      string
	httpClient *http.Client
	log        *logger.Logger
}

func newRestClient(apiKey, baseURL, voice string, log *logger.Logger, opts []ClientOption) restClient {
	c := restClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		voice:      voice,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		log:        log,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Voice returns the configured voice.
func (c *restClient) Voice() string { return c.voice }

// post sends body to url and returns the response body on 200.
func (c *restClient) post(ctx context.Context, url, contentType string, body []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// postJSON marshals in, posts it and returns the raw response body.
func (c *restClient) postJSON(ctx context.Context, url string, in any, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return c.post(ctx, url, "application/json", body, headers)
}

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("status %d: %s", e.Code, body)
}
