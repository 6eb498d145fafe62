package gateway

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"lingocache/internal/model"
)

// ClaudeEvaluator uses the Anthropic messages API
type ClaudeEvaluator struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewClaudeEvaluator(apiKey, modelName, baseURL string, maxTokens int) *ClaudeEvaluator {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeEvaluator{
		client:    anthropic.NewClient(apiKey, opts...),
		model:     modelName,
		maxTokens: maxTokens,
	}
}

func (e *ClaudeEvaluator) Name() string { return "claude" }

func (e *ClaudeEvaluator) Evaluate(ctx context.Context, req Request) (*Response, error) {
	prompt := buildPrompt(req)
	resp, err := e.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(e.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		return nil, fmt.Errorf("%w: no response content", model.ErrUpstreamError)
	}

	text := *resp.Content[0].Text
	out, err := parseVerdict(text, e.Name())
	if err != nil {
		return nil, err
	}
	out.CostUnits = float64(resp.Usage.InputTokens + resp.Usage.OutputTokens)
	if out.CostUnits == 0 {
		out.CostUnits = estimateUnits(prompt, text)
	}
	return out, nil
}
