// Package llm talks to an OpenAI-compatible multimodal chat-completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/spherical/docpipe/internal/domain"
	"github.com/spherical/docpipe/internal/observability"
)

// DefaultPrompt is used when a request carries no prompt of its own.
const DefaultPrompt = "Describe the content of this page in detail, including all text and table information."

// maxImageBytes is the provider-side limit on base64-encoded image payloads.
const maxImageBytes = 4 * 1024 * 1024

// Client handles communication with the vision-language model API
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	retry      *RetryConfig
	logger     zerolog.Logger
}

// ClientConfig holds client construction options.
type ClientConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Message represents a chat message
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart represents a part of message content (text or image)
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents an image URL in the message
type ImageURL struct {
	URL string `json:"url"`
}

// Request represents the API request structure
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Response represents the API response structure
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice represents a single completion choice
type Choice struct {
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// ChoiceMessage is the assistant message inside a choice
type ChoiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewClient creates a new model client
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      DefaultRetryConfig(),
		logger:     observability.WithComponent(logger, "llm"),
	}
}

// Analyze submits one page image with a prompt and returns the extracted
// text. Transient API failures (429, 5xx) are retried with backoff.
func (c *Client) Analyze(ctx context.Context, imageBytes []byte, prompt string) (domain.AnalysisResult, error) {
	req, err := c.buildRequest(imageBytes, prompt)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.AnalysisResult{}, domain.APIError("failed to marshal request", err)
	}

	resp, err := c.doWithRetry(ctx, body)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return domain.AnalysisResult{}, domain.APIError(fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.AnalysisResult{}, domain.APIError("failed to decode response", err)
	}
	if len(parsed.Choices) == 0 {
		return domain.AnalysisResult{}, domain.APIError("API returned no choices", nil)
	}

	return domain.AnalysisResult{
		Content: parsed.Choices[0].Message.Content,
		Model:   c.model,
	}, nil
}

// Ping verifies the API key with a minimal text-only completion.
func (c *Client) Ping(ctx context.Context) error {
	req := &Request{
		Model: c.model,
		Messages: []Message{{
			Role:    "user",
			Content: []ContentPart{{Type: "text", Text: "ping"}},
		}},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return domain.APIError("failed to marshal request", err)
	}

	httpReq, err := c.newRequest(ctx, body)
	if err != nil {
		return domain.APIError("failed to build request", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.APIError("API key validation request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.APIError(fmt.Sprintf("API key rejected (status %d)", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return domain.APIError(fmt.Sprintf("API key validation returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}
	return nil
}

// buildRequest constructs the API request with the image
func (c *Client) buildRequest(imageBytes []byte, prompt string) (*Request, error) {
	if len(imageBytes) == 0 {
		return nil, domain.ValidationError("image is empty", nil)
	}

	base64Image := base64.StdEncoding.EncodeToString(imageBytes)
	if len(base64Image) > maxImageBytes {
		return nil, domain.ValidationError("image exceeds API size limit (4MB)", nil)
	}

	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultPrompt
	}

	msg := Message{
		Role: "user",
		Content: []ContentPart{
			{
				Type:     "image_url",
				ImageURL: &ImageURL{URL: "data:image/jpeg;base64," + base64Image},
			},
			{
				Type: "text",
				Text: prompt,
			},
		},
	}

	return &Request{
		Model:    c.model,
		Messages: []Message{msg},
	}, nil
}

func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

func (c *Client) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	return c.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := c.newRequest(ctx, body)
		if err != nil {
			return nil, err
		}
		return c.httpClient.Do(req)
	})
}
