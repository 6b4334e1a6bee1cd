package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroqClient_RequestsJSONObject(t *testing.T) {
	var body struct {
		Model          string  `json:"model"`
		Temperature    float64 `json:"temperature"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth, path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","model":"test-model",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"quickSummary\":\"hi\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewGroqClient("secret", srv.URL, "test-model", 0.3, 5*time.Second)
	got, err := c.Complete(context.Background(), "system text", "user text")

	require.NoError(t, err)
	assert.Equal(t, `{"quickSummary":"hi"}`, got)
	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "test-model", body.Model)
	assert.Equal(t, "json_object", body.ResponseFormat.Type)
	assert.InDelta(t, 0.3, body.Temperature, 0.001)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "system text", body.Messages[0].Content)
	assert.Equal(t, "user", body.Messages[1].Role)
}

func TestGroqClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	_, err := NewGroqClient("secret", srv.URL, "m", 0.3, time.Second).Complete(context.Background(), "s", "u")

	assert.Error(t, err)
}

func TestGroqClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewGroqClient("secret", srv.URL, "m", 0.3, time.Second).Complete(context.Background(), "s", "u")

	assert.ErrorIs(t, err, errEmptyCompletion)
}
