package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/siminterp/siminterp/pkg/domain"
)

func TestGoogleTranslator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		genConfig, _ := body["generationConfig"].(map[string]interface{})
		if genConfig["temperature"] != 0.9 {
			t.Errorf("expected generationConfig.temperature 0.9, got %v", genConfig)
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "hola mundo"}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	l := &GoogleTranslator{apiKey: "test-key", url: server.URL, model: "gemini-1.5-flash"}
	out, err := l.Translate(context.Background(), Request{
		SourceText:  "hello world",
		SourceLang:  domain.Language("en"),
		TargetLang:  domain.Language("es"),
		Temperature: 0.9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hola mundo" {
		t.Errorf("expected 'hola mundo', got %q", out)
	}
	if l.Name() != "google-translate" {
		t.Errorf("expected google-translate, got %s", l.Name())
	}
}

func TestGoogleTranslatorOmitsGenerationConfigWhenTemperatureUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["generationConfig"]; ok {
			t.Errorf("expected no generationConfig field, got %v", body["generationConfig"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{"content": map[string]any{"parts": []map[string]any{{"text": "hola"}}}}},
		})
	}))
	defer server.Close()

	l := &GoogleTranslator{apiKey: "k", url: server.URL, model: "gemini-1.5-flash"}
	if _, err := l.Translate(context.Background(), Request{SourceText: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGoogleTranslatorNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []map[string]any{}})
	}))
	defer server.Close()

	l := &GoogleTranslator{apiKey: "k", url: server.URL, model: "gemini-1.5-flash"}
	if _, err := l.Translate(context.Background(), Request{SourceText: "hi"}); err == nil {
		t.Fatal("expected error when no candidates returned")
	}
}
