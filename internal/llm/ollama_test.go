package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/tenderlens/internal/config"
	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaServer(t *testing.T, chunks []string) (*httptest.Server, *api.ChatRequest) {
	t.Helper()
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, c := range chunks {
			line, _ := json.Marshal(api.ChatResponse{Model: got.Model, Message: api.Message{Role: "assistant", Content: c}})
			fmt.Fprintf(w, "%s\n", line)
		}
		line, _ := json.Marshal(api.ChatResponse{Model: got.Model, Done: true, DoneReason: "stop"})
		fmt.Fprintf(w, "%s\n", line)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestOllama_Stream(t *testing.T) {
	srv, req := ollamaServer(t, []string{"**Tender", "", " Name**\n", "- HMIS"})
	o, err := NewOllama(config.LLMConfig{Model: "llama3.1", BaseURL: srv.URL, Temperature: 0.3}, nil)
	require.NoError(t, err)

	var chunks []string
	err = o.Stream(context.Background(), "summarize this", func(c string) error {
		chunks = append(chunks, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"**Tender", " Name**\n", "- HMIS"}, chunks, "empty fragments are skipped")

	assert.Equal(t, "llama3.1", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "summarize this", req.Messages[0].Content)
	assert.EqualValues(t, 0.3, req.Options["temperature"])
}

func TestOllama_StreamCallbackError(t *testing.T) {
	srv, _ := ollamaServer(t, []string{"a", "b"})
	o, err := NewOllama(config.LLMConfig{Model: "m", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	stop := errors.New("stop")
	err = o.Stream(context.Background(), "p", func(string) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestOllama_StreamServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"missing\" not found"}`))
	}))
	defer srv.Close()

	o, err := NewOllama(config.LLMConfig{Model: "missing", BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	err = o.Stream(context.Background(), "p", func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestNewOllama_badURL(t *testing.T) {
	_, err := NewOllama(config.LLMConfig{BaseURL: "://bad"}, nil)
	assert.Error(t, err)
}
