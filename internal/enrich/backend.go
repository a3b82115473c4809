// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/pdiddy/pharma-agent/pkg/types"
)

// Backend abstracts the extraction service so tests can supply a mock.
// Extract must return a strict JSON object matching the Extraction shape.
type Backend interface {
	Extract(ctx context.Context, payload, query string) ([]byte, error)
}

// Refiner converts a natural-language question into a keyword query.
// Implementations are best-effort; the caller falls back to the original
// query on any error.
type Refiner interface {
	Refine(ctx context.Context, query string) (string, error)
}

const defaultModel = "gpt-4o-mini"

// OpenAIBackend implements Backend and Refiner against an OpenAI-compatible
// chat API. All calls run at temperature zero so that identical inputs are
// eligible to produce identical outputs.
type OpenAIBackend struct {
	client llms.Model
	logger *slog.Logger
}

// NewOpenAIBackend builds the client from configuration. The API key is
// required; it is injected here rather than read from the environment inside
// the pipeline so the core stays testable with a stub backend.
func NewOpenAIBackend(cfg types.AIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("extraction service API key is required: set OPENAI_API_KEY or .secrets/openai-api-key")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &OpenAIBackend{
		client: client,
		logger: slog.Default().With("component", "openai-backend"),
	}, nil
}

// Extract asks the model for the structured evidence fields of one record.
// The response is requested in JSON mode and returned as raw bytes.
func (b *OpenAIBackend) Extract(ctx context.Context, payload, query string) ([]byte, error) {
	prompt, err := renderExtractionPrompt(payload, query)
	if err != nil {
		return nil, fmt.Errorf("rendering extraction prompt: %w", err)
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	response, err := b.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("extraction service returned no choices")
	}

	return []byte(stripCodeFences(response.Choices[0].Content)), nil
}

// Refine converts a natural-language query into search keywords.
func (b *OpenAIBackend) Refine(ctx context.Context, query string) (string, error) {
	prompt, err := renderRefinePrompt(query)
	if err != nil {
		return "", fmt.Errorf("rendering refine prompt: %w", err)
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	response, err := b.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		return "", fmt.Errorf("refine call: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("refine returned no choices")
	}

	refined := strings.TrimSpace(response.Choices[0].Content)
	if refined == "" {
		return "", fmt.Errorf("refine returned empty keywords")
	}
	return refined, nil
}

// Answer responds to a follow-up question from the prepared study context.
// Answering is generative, not extractive, so it runs slightly above zero
// temperature.
func (b *OpenAIBackend) Answer(ctx context.Context, studyContext, question string) (string, error) {
	prompt, err := renderAnswerPrompt(studyContext, question)
	if err != nil {
		return "", fmt.Errorf("rendering answer prompt: %w", err)
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	response, err := b.client.GenerateContent(ctx, content, llms.WithTemperature(0.3))
	if err != nil {
		return "", fmt.Errorf("answer call: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("answer returned no choices")
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}

// stripCodeFences removes a markdown ```json wrapper some models emit even
// in JSON mode.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
