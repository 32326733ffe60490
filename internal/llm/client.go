// Package llm talks to an OpenRouter-compatible chat-completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spherical-ai/course-creator/internal/domain"
	"github.com/spherical-ai/course-creator/internal/observability"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "google/gemini-2.5-flash"
	defaultTimeout = 120 * time.Second
)

// Config holds generation client configuration.
type Config struct {
	APIKey  string
	Model   string // e.g. "google/gemini-2.5-flash"
	BaseURL string // Default: https://openrouter.ai/api/v1
	Timeout time.Duration
	Stream  bool
	Retry   *RetryConfig
}

// Client handles communication with the chat-completions API
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	stream     bool
	retry      *RetryConfig
	httpClient *http.Client
	logger     *observability.Logger
}

// Message represents a chat message
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart represents a part of message content
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Request represents the API request structure
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// Response represents the API response structure
type Response struct {
	ID      string    `json:"id"`
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError is the error object some providers return with a 200 status.
type APIError struct {
	Message string      `json:"message"`
	Code    interface{} `json:"code,omitempty"`
}

// Choice represents a single completion choice
type Choice struct {
	Delta        Delta  `json:"delta"`
	Message      Delta  `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// Delta represents a message delta in streaming response
type Delta struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// NewClient creates a new generation client.
func NewClient(cfg Config, logger *observability.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.ConfigError("OPENROUTER_API_KEY is not set", nil)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retry == nil {
		cfg.Retry = DefaultRetryConfig()
	}
	if logger == nil {
		logger = observability.DefaultLogger()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		stream:     cfg.Stream,
		retry:      cfg.Retry,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.WithOperation("llm"),
	}, nil
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string {
	return c.model
}

// Generate sends a single prompt and returns the model's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(c.buildRequest(prompt))
	if err != nil {
		return "", domain.GenerationError("Failed to marshal request", err)
	}

	start := time.Now()
	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("HTTP-Referer", "https://github.com/spherical-ai/course-creator")
		req.Header.Set("X-Title", "Course Creator")

		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", domain.GenerationError("Failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", domain.GenerationError(fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes))), nil)
	}

	var text string
	if c.stream {
		text, err = c.parseStream(resp.Body)
	} else {
		text, err = c.parseResponse(resp.Body)
	}
	if err != nil {
		return "", err
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("prompt_chars", len(prompt)).
		Int("output_chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Generation complete")

	return text, nil
}

// buildRequest constructs the API request for a text-only prompt
func (c *Client) buildRequest(prompt string) *Request {
	return &Request{
		Model: c.model,
		Messages: []Message{
			{
				Role:    "user",
				Content: []ContentPart{{Type: "text", Text: prompt}},
			},
		},
		Stream: c.stream,
	}
}

// parseResponse decodes a non-streaming completion
func (c *Client) parseResponse(body io.Reader) (string, error) {
	var resp Response
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", domain.GenerationError("Failed to decode response", err)
	}
	if resp.Error != nil {
		return "", domain.GenerationError("API error: "+resp.Error.Message, nil)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// parseStream accumulates a Server-Sent Events stream into one string
func (c *Client) parseStream(body io.Reader) (string, error) {
	var sb strings.Builder
	parser := NewStreamParser(body)
	if err := parser.ParseAll(func(chunk string) { sb.WriteString(chunk) }); err != nil {
		return "", domain.GenerationError("Failed to parse stream", err)
	}
	return sb.String(), nil
}
