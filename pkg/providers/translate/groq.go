package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GroqTranslator targets Groq's OpenAI-compatible chat completions
// endpoint, sharing the message-rendering shape with OpenAITranslator.
type GroqTranslator struct {
	apiKey string
	url    string
	model  string
}

func NewGroqTranslator(apiKey string, model string) *GroqTranslator {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return &GroqTranslator{
		apiKey: apiKey,
		url:    "https://api.groq.com/openai/v1/chat/completions",
		model:  model,
	}
}

func (l *GroqTranslator) Name() string { return "groq-translate" }

func (l *GroqTranslator) Translate(ctx context.Context, req Request) (string, error) {
	payload := map[string]interface{}{
		"model":    l.model,
		"messages": chatMessages(req),
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
	httpReq.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("groq translate error (status %d): %v", resp.StatusCode, errResp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from groq")
	}
	return result.Choices[0].Message.Content, nil
}
