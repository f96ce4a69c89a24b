// Package inference provides the HTTP client for the generative gateway.
//
// The gateway fronts the actual model (prompt transport, auth, retries); this
// client only sends composed instruction text with an optional image and
// returns the raw text response. Transport details never reach the user: the
// session maps any error from here to a localized generic message.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ClientConfig configures the gateway client
type ClientConfig struct {
	ServerURL string        // e.g. "http://localhost:8080"
	Timeout   time.Duration // HTTP request timeout
}

// DefaultClientConfig returns sensible defaults
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ServerURL: "http://localhost:8080",
		Timeout:   30 * time.Second,
	}
}

// Client talks to the generative gateway
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new gateway client
func NewClient(cfg *ClientConfig, logger zerolog.Logger) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With().Str("component", "inference-client").Logger(),
	}
}

// generateRequest is the gateway wire request
type generateRequest struct {
	Instruction string `json:"instruction"`
	Image       string `json:"image,omitempty"` // base64-encoded still frame
	MimeType    string `json:"mimeType,omitempty"`
}

// generateResponse is the gateway wire response
type generateResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Infer sends instruction text with an optional base64 image and returns the
// raw model response text.
func (c *Client) Infer(ctx context.Context, instruction, imageBase64 string) (string, error) {
	reqBody := generateRequest{
		Instruction: instruction,
		Image:       imageBase64,
	}
	if imageBase64 != "" {
		reqBody.MimeType = "image/jpeg"
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.ServerURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("bodyLen", len(respBody)).
		Str("bodyPreview", truncateForLog(string(respBody), 500)).
		Msg("Gateway response received")

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway request failed: %d - %s", resp.StatusCode, truncateForLog(string(respBody), 200))
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if genResp.Error != "" {
		return "", fmt.Errorf("gateway error: %s", genResp.Error)
	}

	return genResp.Text, nil
}

// Health checks whether the gateway is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.ServerURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway unhealthy: %d", resp.StatusCode)
	}
	return nil
}

// ServerURL returns the configured gateway URL.
func (c *Client) ServerURL() string {
	return c.config.ServerURL
}

// truncateForLog truncates a string for logging purposes
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
