package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AnthropicTranslator repurposes the chat completion endpoint into a
// translation request, keeping the system/role message split and the
// messages API shape.
type AnthropicTranslator struct {
	apiKey string
	url    string
	model  string
}

func NewAnthropicTranslator(apiKey string, model string) *AnthropicTranslator {
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}
	return &AnthropicTranslator{
		apiKey: apiKey,
		url:    "https://api.anthropic.com/v1/messages",
		model:  model,
	}
}

func (l *AnthropicTranslator) Name() string { return "anthropic-translate" }

func (l *AnthropicTranslator) Translate(ctx context.Context, req Request) (string, error) {
	var messages []map[string]string
	for _, h := range req.History {
		messages = append(messages, map[string]string{"role": "user", "content": h.Source})
		messages = append(messages, map[string]string{"role": "assistant", "content": h.Target})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.SourceText})

	payload := map[string]interface{}{
		"model":      l.model,
		"messages":   messages,
		"system":     systemPrompt(req),
		"max_tokens": 1024,
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", l.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", l.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("anthropic translate error (status %d): %v", resp.StatusCode, errResp)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("no content returned from anthropic")
	}
	return result.Content[0].Text, nil
}
