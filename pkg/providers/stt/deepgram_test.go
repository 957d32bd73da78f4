package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/siminterp/siminterp/pkg/domain"
)

func TestDeepgramSTT(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("language") != "es" {
			t.Errorf("expected language=es in query, got %q", r.URL.RawQuery)
		}

		resp := map[string]any{
			"results": map[string]any{
				"channels": []map[string]any{
					{"alternatives": []map[string]any{{"transcript": "hola mundo"}}},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	s := &DeepgramSTT{apiKey: "test-key", url: server.URL}

	result, err := s.Transcribe(context.Background(), []byte{1, 2, 3}, domain.Language("es"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "hola mundo" {
		t.Errorf("expected 'hola mundo', got %q", result)
	}
	if s.Name() != "deepgram-stt" {
		t.Errorf("expected deepgram-stt, got %s", s.Name())
	}
}

func TestDeepgramSTTEmptyResultsYieldsEmptyString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": map[string]any{"channels": []map[string]any{}}})
	}))
	defer server.Close()

	s := &DeepgramSTT{apiKey: "k", url: server.URL}
	result, err := s.Transcribe(context.Background(), []byte{0}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}
