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

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini implements Service against the Google Generative Language API.
type Gemini struct {
	apiKey         string
	model          string
	embeddingModel string
	baseURL        string
	httpClient     *http.Client
}

// GeminiOption configures a Gemini client.
type GeminiOption func(*Gemini)

// WithGeminiModels sets the generation and embedding models. Empty values
// keep the defaults.
func WithGeminiModels(model, embeddingModel string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
		if embeddingModel != "" {
			g.embeddingModel = embeddingModel
		}
	}
}

// WithGeminiBaseURL overrides the API base URL; empty keeps the default.
func WithGeminiBaseURL(url string) GeminiOption {
	return func(g *Gemini) {
		if url != "" {
			g.baseURL = url
		}
	}
}

// WithGeminiHTTPClient injects an HTTP client.
func WithGeminiHTTPClient(c *http.Client) GeminiOption {
	return func(g *Gemini) { g.httpClient = c }
}

// NewGemini creates a Gemini client.
func NewGemini(apiKey string, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		apiKey:         apiKey,
		model:          "gemini-2.0-flash",
		embeddingModel: "text-embedding-004",
		baseURL:        defaultGeminiBaseURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type geminiGenerateRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiEmbedRequest struct {
	Content geminiContent `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Classify asks Gemini for a relevance verdict on the message.
func (g *Gemini) Classify(ctx context.Context, text string) (Classification, error) {
	req := geminiGenerateRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: classificationPrompt(text)}}},
		},
		GenerationConfig: geminiGenConfig{Temperature: 0.1, MaxOutputTokens: 256},
	}

	var resp geminiGenerateResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	if err := g.post(ctx, url, req, &resp); err != nil {
		return Irrelevant(), err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return Irrelevant(), fmt.Errorf("ai: gemini returned no candidates")
	}

	var result Classification
	raw := stripFences(resp.Candidates[0].Content.Parts[0].Text)
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return Irrelevant(), fmt.Errorf("ai: parse gemini classification: %w", err)
	}
	return result, nil
}

// Embed asks Gemini for an embedding vector.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float64, error) {
	req := geminiEmbedRequest{
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}

	var resp geminiEmbedResponse
	url := fmt.Sprintf("%s/models/%s:embedContent", g.baseURL, g.embeddingModel)
	if err := g.post(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	return resp.Embedding.Values, nil
}

// post sends a JSON request and decodes a JSON response.
func (g *Gemini) post(ctx context.Context, url string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("ai: marshal gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("ai: build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ai: gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ai: gemini status %d: %s", resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ai: decode gemini response: %w", err)
	}
	return nil
}
