package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GoogleTranslator targets Gemini's generateContent endpoint, keeping the
// role remapping (system→user, assistant→model) Gemini requires.
type GoogleTranslator struct {
	apiKey string
	url    string
	model  string
}

func NewGoogleTranslator(apiKey string, model string) *GoogleTranslator {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GoogleTranslator{
		apiKey: apiKey,
		url:    "https://generativelanguage.googleapis.com/v1beta/models/" + model + ":generateContent",
		model:  model,
	}
}

func (l *GoogleTranslator) Name() string { return "google-translate" }

type googleContent struct {
	Role  string `json:"role"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func (l *GoogleTranslator) Translate(ctx context.Context, req Request) (string, error) {
	var contents []googleContent
	contents = append(contents, textContent("user", systemPrompt(req)))
	for _, h := range req.History {
		contents = append(contents, textContent("user", h.Source))
		contents = append(contents, textContent("model", h.Target))
	}
	contents = append(contents, textContent("user", req.SourceText))

	payload := map[string]interface{}{"contents": contents}
	if req.Temperature > 0 {
		payload["generationConfig"] = map[string]interface{}{"temperature": req.Temperature}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", l.url+"?key="+l.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("google translate error (status %d): %v", resp.StatusCode, errResp)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from google translate")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

func textContent(role, text string) googleContent {
	c := googleContent{Role: role}
	c.Parts = append(c.Parts, struct {
		Text string `json:"text"`
	}{Text: text})
	return c
}
