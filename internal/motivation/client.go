// Package motivation serves a short daily encouragement message. Text comes
// from an external generator when one is reachable and from a fixed local
// list otherwise; either way the message is cached per user per calendar day.
package motivation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrDisabled is returned by a client configured to skip the generator.
var ErrDisabled = errors.New("motivation generator disabled")

// Prompt is the attendance context sent to the generator.
type Prompt struct {
	Percentage float64 `json:"percentage"`
	Total      int     `json:"total"`
	Attended   int     `json:"attended"`
}

// Generator produces motivation text. Implementations may fail freely; the
// service falls back to local text.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Client calls the text generation microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client with configurable timeout.
func New(baseURL string, skip bool, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Skip:    skip,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Generate requests one message for the prompt.
func (c *Client) Generate(ctx context.Context, p Prompt) (string, error) {
	if c.Skip || c.BaseURL == "" {
		return "", ErrDisabled
	}

	body, _ := json.Marshal(p)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("motivation service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("motivation service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", errors.New("motivation service returned empty text")
	}
	return text, nil
}

// Health checks if the generator is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("motivation service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("motivation service unhealthy: %s", resp.Status)
	}
	return nil
}
