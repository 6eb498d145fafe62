package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"lingocache/internal/config"
	"lingocache/internal/model"
)

// GeminiEvaluator calls the Gemini generateContent REST API in JSON mode
type GeminiEvaluator struct {
	config config.GatewayConfig
	client *http.Client
}

func NewGeminiEvaluator(cfg config.GatewayConfig) *GeminiEvaluator {
	return &GeminiEvaluator{
		config: cfg,
		client: &http.Client{Timeout: cfg.HardTimeout()},
	}
}

func (e *GeminiEvaluator) Name() string { return "gemini" }

func (e *GeminiEvaluator) Evaluate(ctx context.Context, req Request) (*Response, error) {
	prompt := buildPrompt(req)
	text, tokens, err := e.callGemini(ctx, e.config.Model, prompt)
	if err != nil {
		return nil, err
	}
	resp, err := parseVerdict(text, e.Name())
	if err != nil {
		return nil, err
	}
	resp.CostUnits = float64(tokens)
	if tokens == 0 {
		resp.CostUnits = estimateUnits(prompt, text)
	}
	return resp, nil
}

// callGemini makes a request to the Gemini API
func (e *GeminiEvaluator) callGemini(ctx context.Context, modelName, prompt string) (string, int, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  e.config.MaxTokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, err
	}

	url := fmt.Sprintf("%s?key=%s", e.config.ModelEndpoint(modelName), e.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%w: gemini status %d", model.ErrUpstreamError, resp.StatusCode)
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			TotalTokenCount int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", 0, fmt.Errorf("%w: %v", model.ErrUpstreamError, err)
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, geminiResp.UsageMetadata.TotalTokenCount, nil
	}

	return "", 0, fmt.Errorf("%w: empty response from Gemini", model.ErrUpstreamError)
}
