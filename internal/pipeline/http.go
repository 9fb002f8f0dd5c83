package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPDoer abstracts HTTP clients used by the adapter.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient queries a pipeline served over HTTP. The runtime parameters
// travel with every request so the service never caches a stale config.
type HTTPClient struct {
	URL    string
	Client HTTPDoer
}

// NewHTTPClient constructs an HTTP pipeline adapter.
func NewHTTPClient(url string, client HTTPDoer) (*HTTPClient, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("answer url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{URL: url, Client: client}, nil
}

// answerRequest is the JSON payload sent to the answer endpoint.
type answerRequest struct {
	Question            string  `json:"question"`
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	LLMTemperature      float64 `json:"llm_temperature"`
}

// Answer posts a question to the answer endpoint and decodes the response.
func (c *HTTPClient) Answer(ctx context.Context, question string, params Params) (Answer, error) {
	payload, err := json.Marshal(answerRequest{
		Question:            question,
		TopK:                params.TopK,
		SimilarityThreshold: params.SimilarityThreshold,
		LLMTemperature:      params.LLMTemperature,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return Answer{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return Answer{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return Answer{}, fmt.Errorf("pipeline error: %s", strings.TrimSpace(string(body)))
	}

	var answer Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return Answer{}, fmt.Errorf("decode answer: %w", err)
	}
	return answer, nil
}
