package gateway

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"lingocache/internal/model"
)

// OpenAIEvaluator talks to OpenAI or any compatible endpoint (Ollama)
type OpenAIEvaluator struct {
	client    *openai.Client
	model     string
	maxTokens int
	name      string
}

func NewOpenAIEvaluator(name, apiKey, modelName, baseURL string, maxTokens int) *OpenAIEvaluator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEvaluator{
		client:    openai.NewClientWithConfig(cfg),
		model:     modelName,
		maxTokens: maxTokens,
		name:      name,
	}
}

func (e *OpenAIEvaluator) Name() string { return e.name }

func (e *OpenAIEvaluator) Evaluate(ctx context.Context, req Request) (*Response, error) {
	prompt := buildPrompt(req)
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens: e.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response choices", model.ErrUpstreamError)
	}

	text := resp.Choices[0].Message.Content
	out, err := parseVerdict(text, e.name)
	if err != nil {
		return nil, err
	}
	out.CostUnits = float64(resp.Usage.TotalTokens)
	if out.CostUnits == 0 {
		out.CostUnits = estimateUnits(prompt, text)
	}
	return out, nil
}
