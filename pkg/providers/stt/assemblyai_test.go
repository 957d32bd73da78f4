package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/siminterp/siminterp/pkg/domain"
)

func TestAssemblyAISTT(t *testing.T) {
	polls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"upload_url": "https://cdn.assemblyai.com/blob"})
	})
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["audio_url"] != "https://cdn.assemblyai.com/blob" {
				t.Errorf("expected upload_url carried into submit, got %v", body)
			}
			if body["language_code"] != "es" {
				t.Errorf("expected language_code=es, got %v", body)
			}
			json.NewEncoder(w).Encode(map[string]any{"id": "abc123"})
			return
		}
	})
	mux.HandleFunc("/transcript/abc123", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 2 {
			json.NewEncoder(w).Encode(map[string]any{"status": "processing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "completed", "text": "hola mundo"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	s := &AssemblyAISTT{apiKey: "test-key", baseURL: server.URL, pollEvery: time.Millisecond}
	result, err := s.Transcribe(context.Background(), []byte{1, 2, 3}, domain.Language("es"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "hola mundo" {
		t.Errorf("expected 'hola mundo', got %q", result)
	}
	if s.Name() != "assemblyai-stt" {
		t.Errorf("expected assemblyai-stt, got %s", s.Name())
	}
}

func TestAssemblyAISTTTranscriptionError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"upload_url": "https://cdn.assemblyai.com/blob"})
	})
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "bad1"})
	})
	mux.HandleFunc("/transcript/bad1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "error"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	s := &AssemblyAISTT{apiKey: "k", baseURL: server.URL, pollEvery: time.Millisecond}
	if _, err := s.Transcribe(context.Background(), []byte{0}, ""); err == nil {
		t.Fatal("expected error when transcription status is error")
	}
}
