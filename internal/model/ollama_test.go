package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nimbus-ai/nimbus/internal/errors"
)

func TestOllamaGenerate(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(ollamaResponse{
			Model:    "deepseek-r1:14b",
			Response: "The capital of France is Paris.",
			Done:     true,
		})
	}))
	defer server.Close()

	client := NewOllamaClient(&OllamaConfig{
		URL:     server.URL,
		Model:   "deepseek-r1:14b",
		Enabled: true,
	})

	resp, err := client.Generate(context.Background(), &Request{Prompt: "capital of France?"})
	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris.", resp.Text)
	assert.Equal(t, "deepseek-r1:14b", resp.Model)

	// Request body must match the Ollama generate contract.
	assert.Equal(t, "deepseek-r1:14b", gotBody["model"])
	assert.Equal(t, "capital of France?", gotBody["prompt"])
	assert.Equal(t, false, gotBody["stream"])
}

func TestOllamaGenerateDisabled(t *testing.T) {
	client := NewOllamaClient(&OllamaConfig{
		URL:     "http://localhost:11434/api/generate",
		Model:   "deepseek-r1:14b",
		Enabled: false,
	})

	_, err := client.Generate(context.Background(), &Request{Prompt: "hello"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CategorySystem, apperrors.GetCategory(err))
}

func TestOllamaGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOllamaClient(&OllamaConfig{URL: server.URL, Model: "m", Enabled: true})

	_, err := client.Generate(context.Background(), &Request{Prompt: "hello"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryExternal, apperrors.GetCategory(err))
}

func TestOllamaGenerateBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewOllamaClient(&OllamaConfig{URL: server.URL, Model: "m", Enabled: true})

	_, err := client.Generate(context.Background(), &Request{Prompt: "hello"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryPermanent, apperrors.GetCategory(err))
}

func TestOllamaGenerateUnreachable(t *testing.T) {
	client := NewOllamaClient(&OllamaConfig{
		URL:     "http://127.0.0.1:1/api/generate",
		Model:   "m",
		Enabled: true,
		Timeout: 500 * time.Millisecond,
	})

	_, err := client.Generate(context.Background(), &Request{Prompt: "hello"})
	require.Error(t, err)
}

func TestOllamaDefaults(t *testing.T) {
	client := NewOllamaClient(nil)
	assert.Equal(t, "deepseek-r1:14b", client.Name())
	assert.True(t, client.IsAvailable())
	assert.Equal(t, DefaultTimeout, client.cfg.Timeout)
}
