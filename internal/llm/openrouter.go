package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// defaultOpenRouterBaseURL is the default OpenRouter API base URL.
const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// HTTPDoer abstracts HTTP clients used by providers.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OpenRouterClient implements Client for the OpenRouter API.
type OpenRouterClient struct {
	APIKey  string
	BaseURL string
	Client  HTTPDoer
	Model   string
}

// FromEnv builds a client using environment configuration.
func FromEnv(provider, model string, client HTTPDoer) (Client, error) {
	if provider == "" {
		provider = strings.TrimSpace(os.Getenv("LLM_PROVIDER"))
	}
	if provider == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if provider != "openrouter" {
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
	if model == "" {
		model = strings.TrimSpace(os.Getenv("LLM_MODEL"))
	}
	apiKey := strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}
	baseURL := strings.TrimSpace(os.Getenv("LLM_BASE_URL"))
	return NewOpenRouterClient(model, apiKey, baseURL, client)
}

// NewOpenRouterClient constructs an OpenRouter client with explicit settings.
func NewOpenRouterClient(model, apiKey, baseURL string, client HTTPDoer) (*OpenRouterClient, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenRouterClient{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
		Model:   model,
	}, nil
}

// openRouterRequest is the chat completions request payload.
type openRouterRequest struct {
	Model          string                    `json:"model"`
	Messages       []openRouterMessage       `json:"messages"`
	Temperature    float64                   `json:"temperature"`
	MaxTokens      int                       `json:"max_tokens,omitempty"`
	ResponseFormat *openRouterResponseFormat `json:"response_format,omitempty"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterResponseFormat struct {
	Type string `json:"type"`
}

// openRouterResponse is the chat completions response payload.
type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens uint64 `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends a prompt to OpenRouter and returns the model's text.
func (c *OpenRouterClient) Complete(ctx context.Context, prompt string, opts Options) (Completion, error) {
	messages := make([]openRouterMessage, 0, 2)
	if opts.SystemMessage != "" {
		messages = append(messages, openRouterMessage{Role: "system", Content: opts.SystemMessage})
	}
	messages = append(messages, openRouterMessage{Role: "user", Content: prompt})

	requestBody := openRouterRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.ResponseFormat != "" {
		requestBody.ResponseFormat = &openRouterResponseFormat{Type: opts.ResponseFormat}
	}
	payload, err := json.Marshal(requestBody)
	if err != nil {
		return Completion{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Completion{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return Completion{}, fmt.Errorf("openrouter error: %s", strings.TrimSpace(string(body)))
	}

	var decoded openRouterResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Completion{}, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return Completion{}, fmt.Errorf("openrouter response has no choices")
	}
	return Completion{
		Text:        decoded.Choices[0].Message.Content,
		TotalTokens: decoded.Usage.TotalTokens,
	}, nil
}
