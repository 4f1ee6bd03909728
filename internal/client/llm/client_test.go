package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"action\":\"unknown\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Model: "test-model"})
	out, err := c.Chat(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"unknown"}`, out)

	assert.Equal(t, "test-model", raw["model"])
	assert.Len(t, raw["messages"], 2)
	assert.Equal(t, map[string]any{"type": "json_object"}, raw["response_format"])
	// 未配置 temperature 时不发送该字段
	_, sent := raw["temperature"]
	assert.False(t, sent)
}

func TestChatOptions(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	temp := 0.2
	c := NewClient(Config{BaseURL: srv.URL, Temperature: &temp, DisableJSONMode: true})
	_, err := c.Chat(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, 0.2, raw["temperature"])
	_, sent := raw["response_format"]
	assert.False(t, sent)
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantMsg    string
	}{
		{"非 200 带错误体", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
		}, http.StatusTooManyRequests, "Rate limit reached"},
		{"非 200 纯文本", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}, http.StatusBadGateway, "bad gateway"},
		{"空 choices", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}, 0, ""},
		{"非 JSON", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`oops`))
		}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewClient(Config{BaseURL: srv.URL}).Chat(context.Background(), "s", "u")
			require.Error(t, err)
			var apiErr *APIError
			if tt.wantStatus == 0 {
				assert.False(t, errors.As(err, &apiErr))
				return
			}
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}
