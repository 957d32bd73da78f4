package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/siminterp/siminterp/pkg/domain"
)

func TestOpenAITranslator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		msgs, _ := body["messages"].([]interface{})
		if len(msgs) == 0 {
			t.Fatalf("expected at least one message, got %v", body)
		}
		if body["temperature"] != 0.5 {
			t.Errorf("expected temperature 0.5, got %v", body["temperature"])
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hola mundo"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	l := &OpenAITranslator{apiKey: "test-key", url: server.URL, model: "gpt-4o"}
	out, err := l.Translate(context.Background(), Request{
		SourceText:  "hello world",
		SourceLang:  domain.Language("en"),
		TargetLang:  domain.Language("es"),
		Temperature: 0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hola mundo" {
		t.Errorf("expected 'hola mundo', got %q", out)
	}
	if l.Name() != "openai-translate" {
		t.Errorf("expected openai-translate, got %s", l.Name())
	}
}

func TestOpenAITranslatorOmitsTemperatureWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["temperature"]; ok {
			t.Errorf("expected no temperature field, got %v", body["temperature"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "hola"}}},
		})
	}))
	defer server.Close()

	l := &OpenAITranslator{apiKey: "k", url: server.URL, model: "gpt-4o"}
	if _, err := l.Translate(context.Background(), Request{SourceText: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenAITranslatorErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{"error": "rate limited"})
	}))
	defer server.Close()

	l := &OpenAITranslator{apiKey: "k", url: server.URL, model: "gpt-4o"}
	if _, err := l.Translate(context.Background(), Request{SourceText: "hi"}); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
