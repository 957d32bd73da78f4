package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAITranslator repurposes the chat completions endpoint into a
// translation request.
type OpenAITranslator struct {
	apiKey string
	url    string
	model  string
}

func NewOpenAITranslator(apiKey string, model string) *OpenAITranslator {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAITranslator{
		apiKey: apiKey,
		url:    "https://api.openai.com/v1/chat/completions",
		model:  model,
	}
}

func (l *OpenAITranslator) Name() string { return "openai-translate" }

func (l *OpenAITranslator) Translate(ctx context.Context, req Request) (string, error) {
	messages := chatMessages(req)

	payload := map[string]interface{}{
		"model":    l.model,
		"messages": messages,
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
		return "", fmt.Errorf("openai translate error (status %d): %v", resp.StatusCode, errResp)
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
		return "", fmt.Errorf("no choices returned from openai")
	}
	return result.Choices[0].Message.Content, nil
}

// chatMessages renders the shared system+history+final-line message list
// used by both OpenAI-compatible adapters (openai, groq).
func chatMessages(req Request) []map[string]string {
	messages := []map[string]string{{"role": "system", "content": systemPrompt(req)}}
	for _, h := range req.History {
		messages = append(messages, map[string]string{"role": "user", "content": h.Source})
		messages = append(messages, map[string]string{"role": "assistant", "content": h.Target})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.SourceText})
	return messages
}
