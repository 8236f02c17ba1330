package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixme-backend/internal/llm"
)

type capturedRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature float64          `json:"temperature"`
	Messages    []map[string]any `json:"messages"`
}

func newTestServer(t *testing.T, status int, body string, captured *capturedRequest) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestClient(serverURL string) *Client {
	return NewClient(Options{
		APIKey:      "test-key",
		BaseURL:     serverURL + "/v1",
		Model:       "gpt-text",
		VisionModel: "gpt-vision",
		MaxTokens:   1000,
		Temperature: 0.1,
	})
}

const okBody = `{"id":"x","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"{\"detected_issue\":\"Leak\"}"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`

func TestDiagnoseTextOnlyUsesPlainContent(t *testing.T) {
	var captured capturedRequest
	server, calls := newTestServer(t, http.StatusOK, okBody, &captured)

	out, err := newTestClient(server.URL).Diagnose(context.Background(), llm.DiagnoseInput{Prompt: "describe the leak"})
	require.NoError(t, err)
	assert.Equal(t, `{"detected_issue":"Leak"}`, out)
	assert.EqualValues(t, 1, calls.Load())

	assert.Equal(t, "gpt-text", captured.Model)
	assert.Equal(t, 1000, captured.MaxTokens)
	assert.InDelta(t, 0.1, captured.Temperature, 0.0001)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0]["role"])
	assert.Contains(t, captured.Messages[0]["content"], "professional repair and maintenance diagnostic assistant")
	assert.Equal(t, "user", captured.Messages[1]["role"])
	assert.Equal(t, "describe the leak", captured.Messages[1]["content"])
}

func TestDiagnoseWithImagesSendsDataURIs(t *testing.T) {
	var captured capturedRequest
	server, _ := newTestServer(t, http.StatusOK, okBody, &captured)

	_, err := newTestClient(server.URL).Diagnose(context.Background(), llm.DiagnoseInput{
		Prompt: "two photos",
		Images: []llm.Image{
			{Content: []byte("abc"), MimeType: "image/png"},
			{Content: []byte{0xff, 0xd8}, MimeType: "image/jpeg"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-vision", captured.Model)
	require.Len(t, captured.Messages, 2)
	parts, ok := captured.Messages[1]["content"].([]any)
	require.True(t, ok, "expected multi-part content, got %T", captured.Messages[1]["content"])
	require.Len(t, parts, 3)

	text := parts[0].(map[string]any)
	assert.Equal(t, "text", text["type"])
	assert.Equal(t, "two photos", text["text"])

	first := parts[1].(map[string]any)
	assert.Equal(t, "image_url", first["type"])
	assert.Equal(t, "data:image/png;base64,YWJj", first["image_url"].(map[string]any)["url"])

	second := parts[2].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,/9g=", second["image_url"].(map[string]any)["url"])
}

func TestDiagnoseErrorCategories(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   llm.Category
	}{
		{
			name:   "429 status",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Too many requests","type":"requests"}}`,
			want:   llm.CategoryRateLimited,
		},
		{
			name:   "quota code",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"quota","type":"insufficient_quota","code":"insufficient_quota"}}`,
			want:   llm.CategoryRateLimited,
		},
		{
			name:   "401 status",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			want:   llm.CategoryAuthFailed,
		},
		{
			name:   "403 status",
			status: http.StatusForbidden,
			body:   `{"error":{"message":"forbidden","type":"invalid_request_error"}}`,
			want:   llm.CategoryAuthFailed,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"boom","type":"server_error"}}`,
			want:   llm.CategoryOther,
		},
		{
			name:   "non json error body",
			status: http.StatusBadGateway,
			body:   `upstream unavailable`,
			want:   llm.CategoryOther,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, tt.status, tt.body, nil)
			_, err := newTestClient(server.URL).Diagnose(context.Background(), llm.DiagnoseInput{Prompt: "p"})
			require.Error(t, err)

			var remote *llm.RemoteError
			require.True(t, errors.As(err, &remote))
			assert.Equal(t, tt.want, remote.Category)
			assert.Equal(t, tt.status, remote.StatusCode)
		})
	}
}

func TestDiagnoseEmptyChoicesIsOther(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, `{"id":"x","choices":[]}`, nil)
	_, err := newTestClient(server.URL).Diagnose(context.Background(), llm.DiagnoseInput{Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, llm.CategoryOther, llm.CategoryOf(err))
}

func TestDiagnoseEmptyContentIsReturned(t *testing.T) {
	body := `{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`
	server, _ := newTestServer(t, http.StatusOK, body, nil)
	out, err := newTestClient(server.URL).Diagnose(context.Background(), llm.DiagnoseInput{Prompt: "p"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDiagnoseZeroTemperatureIsSent(t *testing.T) {
	var captured capturedRequest
	server, _ := newTestServer(t, http.StatusOK, okBody, &captured)
	client := NewClient(Options{APIKey: "test-key", BaseURL: server.URL + "/v1"})

	_, err := client.Diagnose(context.Background(), llm.DiagnoseInput{Prompt: "p"})
	require.NoError(t, err)
	assert.Greater(t, captured.Temperature, 0.0)
	assert.Less(t, captured.Temperature, 0.0001)
}

func TestDiagnoseWithoutAPIKeyMakesNoCall(t *testing.T) {
	server, calls := newTestServer(t, http.StatusOK, okBody, nil)
	client := NewClient(Options{BaseURL: server.URL + "/v1"})

	_, err := client.Diagnose(context.Background(), llm.DiagnoseInput{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrNotConfigured))
	assert.Equal(t, llm.CategoryAuthFailed, llm.CategoryOf(err))
	assert.Equal(t, "OpenAI API key is not configured", err.Error())
	assert.EqualValues(t, 0, calls.Load())
}

func TestDataURL(t *testing.T) {
	got := DataURL("image/webp", []byte("hi"))
	assert.True(t, strings.HasPrefix(got, "data:image/webp;base64,"))
	assert.Equal(t, "data:image/webp;base64,aGk=", got)
}
