// Package ai provides the classification and embedding collaborators
// backing the grouping engine, with Gemini and OpenAI implementations.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/nixo/fdebot/internal/config"
	"github.com/nixo/fdebot/internal/models"
)

// Classification is the classifier's verdict on one message.
type Classification struct {
	Relevant   bool    `json:"relevant"`
	Category   string  `json:"category"`
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
}

// Irrelevant is the classification used when a message should be dropped,
// including on any classifier failure.
func Irrelevant() Classification {
	return Classification{Relevant: false, Category: models.CategoryNone}
}

// Service classifies messages and produces embedding vectors. An empty
// vector from Embed means "no embedding available", not an error.
type Service interface {
	Classify(ctx context.Context, text string) (Classification, error)
	Embed(ctx context.Context, text string) ([]float64, error)
}

// NewService builds the provider selected in config.
func NewService(cfg config.AIConfig) (Service, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(cfg.APIKey,
			WithGeminiModels(cfg.Model, cfg.EmbeddingModel),
			WithGeminiBaseURL(cfg.BaseURL)), nil
	case "openai":
		return NewOpenAI(cfg.APIKey,
			WithOpenAIModels(cfg.Model, cfg.EmbeddingModel),
			WithOpenAIBaseURL(cfg.BaseURL)), nil
	default:
		return nil, fmt.Errorf("ai: unknown provider %q", cfg.Provider)
	}
}

// classificationPrompt asks for a strict-JSON relevance verdict on a Slack
// message from the perspective of a Forward Deployed Engineer.
func classificationPrompt(text string) string {
	return fmt.Sprintf(`Analyze this Slack message and determine if it's relevant to a Forward Deployed Engineer (FDE).

Message: %q

A message is RELEVANT if it's:
- A bug report (something is broken or not working)
- A feature request (asking for new functionality)
- A support question (asking how to do something)
- A product question (asking about capabilities or limitations)

A message is IRRELEVANT if it's:
- Casual conversation ("thanks", "sounds good", "let's get dinner")
- Social messages ("good morning", "see you tomorrow")
- Acknowledgments ("got it", "ok", "sure")
- Off-topic discussion

Respond ONLY with valid JSON in this exact format with no markdown, no code blocks, no additional text:
{"relevant":true,"category":"BUG","title":"short summary","confidence":0.95}

Categories: BUG, FEATURE_REQUEST, SUPPORT, QUESTION, NONE
If irrelevant, use: {"relevant":false,"category":"NONE","title":null,"confidence":0.9}`, text)
}

// stripFences removes markdown code fences some models wrap around JSON
// despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
