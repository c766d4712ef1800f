package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI implements Service against the OpenAI API.
type OpenAI struct {
	apiKey         string
	model          string
	embeddingModel string
	baseURL        string
	httpClient     *http.Client
}

// OpenAIOption configures an OpenAI client.
type OpenAIOption func(*OpenAI)

// WithOpenAIModels sets the chat and embedding models. Empty values keep
// the defaults.
func WithOpenAIModels(model, embeddingModel string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
		if embeddingModel != "" {
			o.embeddingModel = embeddingModel
		}
	}
}

// WithOpenAIBaseURL overrides the API base URL; empty keeps the default.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(o *OpenAI) {
		if url != "" {
			o.baseURL = url
		}
	}
}

// WithOpenAIHTTPClient injects an HTTP client.
func WithOpenAIHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAI) { o.httpClient = c }
}

// NewOpenAI creates an OpenAI client.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		apiKey:         apiKey,
		model:          "gpt-4o-mini",
		embeddingModel: "text-embedding-3-small",
		baseURL:        defaultOpenAIBaseURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type openaiChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

type openaiEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Classify asks the chat completions API for a relevance verdict.
func (o *OpenAI) Classify(ctx context.Context, text string) (Classification, error) {
	req := openaiChatRequest{
		Model: o.model,
		Messages: []openaiMessage{
			{Role: "user", Content: classificationPrompt(text)},
		},
		Temperature: 0.1,
	}

	var resp openaiChatResponse
	if err := o.post(ctx, o.baseURL+"/chat/completions", req, &resp); err != nil {
		return Irrelevant(), err
	}
	if len(resp.Choices) == 0 {
		return Irrelevant(), fmt.Errorf("ai: openai returned no choices")
	}

	var result Classification
	raw := stripFences(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return Irrelevant(), fmt.Errorf("ai: parse openai classification: %w", err)
	}
	return result, nil
}

// Embed asks the embeddings API for a vector.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	req := openaiEmbedRequest{Model: o.embeddingModel, Input: text}

	var resp openaiEmbedResponse
	if err := o.post(ctx, o.baseURL+"/embeddings", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("ai: openai returned no embedding")
	}
	return resp.Data[0].Embedding, nil
}

// post sends a JSON request and decodes a JSON response.
func (o *OpenAI) post(ctx context.Context, url string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("ai: marshal openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("ai: build openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ai: openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ai: openai status %d: %s", resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ai: decode openai response: %w", err)
	}
	return nil
}
