package perplexity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-scout/internal/resilience"
)

func TestChatCompletion(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantErr       string
		wantTransient bool
		wantContent   string
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{
				"id": "cmpl-123",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello!"}}],
				"citations": ["https://acme.com"],
				"usage": {"prompt_tokens": 10, "completion_tokens": 5}
			}`,
			wantContent: "Hello!",
		},
		{
			name:          "rate_limit",
			status:        http.StatusTooManyRequests,
			body:          `{"error": "rate limit exceeded"}`,
			wantErr:       "perplexity: unexpected status 429",
			wantTransient: true,
		},
		{
			name:          "server_error",
			status:        http.StatusInternalServerError,
			body:          `{"error": "internal server error"}`,
			wantErr:       "unexpected status 500",
			wantTransient: true,
		},
		{
			name:    "bad_key",
			status:  http.StatusUnauthorized,
			body:    `{"error": "invalid api key"}`,
			wantErr: "invalid api key",
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid json`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			resp, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{
				Messages: []Message{{Role: "user", Content: "Hi"}},
			})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, tt.wantTransient, resilience.IsTransient(err))
				assert.Nil(t, resp)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, resp.Content())
			assert.Equal(t, []string{"https://acme.com"}, resp.Citations)
			assert.Equal(t, 5, resp.Usage.CompletionTokens)
		})
	}
}

func TestChatCompletion_Model(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		reqModel  string
		wantModel string
	}{
		{"default", nil, "", defaultModel},
		{"client option", []Option{WithModel("sonar-pro")}, "", "sonar-pro"},
		{"request wins", []Option{WithModel("sonar-pro")}, "sonar-reasoning", "sonar-reasoning"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req ChatCompletionRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, tt.wantModel, req.Model)
				_, _ = w.Write([]byte(`{"id":"1","choices":[],"usage":{}}`))
			}))
			defer srv.Close()

			client := NewClient("k", append(tt.opts, WithBaseURL(srv.URL))...)
			_, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{Model: tt.reqModel})
			require.NoError(t, err)
		})
	}
}

func TestChatCompletion_OmitsUnsetTuning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var raw map[string]any
		assert.NoError(t, json.Unmarshal(body, &raw))
		_, hasTemp := raw["temperature"]
		_, hasMax := raw["max_tokens"]
		assert.False(t, hasTemp)
		assert.False(t, hasMax)
		_, _ = w.Write([]byte(`{"id":"1","choices":[],"usage":{}}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).ChatCompletion(context.Background(), ChatCompletionRequest{})
	require.NoError(t, err)
}

func TestChatCompletion_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"1","choices":[],"usage":{}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient("k", WithBaseURL(srv.URL)).ChatCompletion(ctx, ChatCompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
}

func TestNewClient_Defaults(t *testing.T) {
	custom := &http.Client{}
	hc := NewClient("my-key", WithHTTPClient(custom), WithBaseURL("")).(*httpClient)
	assert.Equal(t, "my-key", hc.apiKey)
	assert.Equal(t, defaultBaseURL, hc.baseURL)
	assert.Equal(t, defaultModel, hc.model)
	assert.Same(t, custom, hc.http)

	var nilResp *ChatCompletionResponse
	assert.Empty(t, nilResp.Content())
}
