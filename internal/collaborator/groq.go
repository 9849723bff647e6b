package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "openai/gpt-oss-120b"

	// minRequestGap spaces requests out so a burst of component
	// generations does not trip the provider's per-minute limit.
	minRequestGap = 600 * time.Millisecond

	groqMaxRetries = 3
)

// GroqClient implements Client against Groq's OpenAI-compatible
// chat-completions endpoint.
type GroqClient struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	mu          sync.Mutex
	lastRequest time.Time
}

// GroqConfig holds configuration for the Groq client.
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultGroqConfig returns sensible defaults.
func DefaultGroqConfig(apiKey string) GroqConfig {
	return GroqConfig{
		APIKey:  apiKey,
		BaseURL: defaultGroqBaseURL,
		Model:   defaultGroqModel,
		Timeout: 120 * time.Second,
	}
}

// NewGroqClient creates a Groq client with default config.
func NewGroqClient(apiKey string) *GroqClient {
	return NewGroqClientWithConfig(DefaultGroqConfig(apiKey))
}

// NewGroqClientWithConfig creates a Groq client with custom config.
func NewGroqClientWithConfig(config GroqConfig) *GroqClient {
	if config.BaseURL == "" {
		config.BaseURL = defaultGroqBaseURL
	}
	if config.Model == "" {
		config.Model = defaultGroqModel
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}
	return &GroqClient{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the completion.
func (c *GroqClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message. Rate limiting is
// a simple minimum gap between requests; 429s retry with exponential
// backoff. Every failure is wrapped in *TransportError so the pipeline can
// tell network weather from code defects.
func (c *GroqClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", &TransportError{Provider: "groq", Err: fmt.Errorf("API key not configured")}
	}

	c.mu.Lock()
	if elapsed := time.Since(c.lastRequest); elapsed < minRequestGap {
		time.Sleep(minRequestGap - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	messages := make([]groqMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, groqMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, groqMessage{Role: "user", Content: userPrompt})

	body, err := json.Marshal(groqRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   8000,
		Temperature: 0.1, // low temperature for structured output
	})
	if err != nil {
		return "", &TransportError{Provider: "groq", Err: fmt.Errorf("marshaling request: %w", err)}
	}

	var lastErr error
	for i := 0; i <= groqMaxRetries; i++ {
		if i > 0 {
			// Exponential backoff: 1s, 2s, 4s.
			select {
			case <-time.After(time.Duration(1<<uint(i-1)) * time.Second):
			case <-ctx.Done():
				return "", &TransportError{Provider: "groq", Err: ctx.Err()}
			}
		}

		text, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		if !retryable {
			return "", &TransportError{Provider: "groq", Err: err}
		}
		lastErr = err
	}
	return "", &TransportError{Provider: "groq", Err: fmt.Errorf("max retries exceeded: %w", lastErr)}
}

// doRequest performs one HTTP round trip. retryable reports whether the
// caller should back off and try again (429 or a transient network error).
func (c *GroqClient) doRequest(ctx context.Context, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", true, fmt.Errorf("rate limit exceeded (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, excerpt(string(raw)))
	}

	var parsed groqResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false, fmt.Errorf("parsing response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("no completion returned")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), false, nil
}
