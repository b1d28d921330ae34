package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel is an llms.Model returning a canned response.
type stubModel struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (m *stubModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, opt := range options {
		opt(&m.options)
	}
	return m.resp, m.err
}

func (m *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestQueryMapsRolesAndModel(t *testing.T) {
	model := &stubModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "4"}, nil, {Content: "four"}},
	}}
	q := NewQuerier(model)

	candidates, err := q.Query(context.Background(), "gpt-4o-mini", []Message{
		{Role: RoleSystem, Content: "Be brief."},
		{Role: RoleUser, Content: "what is 2+2?"},
		{Role: "tool", Content: "dropped"},
	})
	require.NoError(t, err)

	assert.Equal(t, []Candidate{
		{Role: RoleAssistant, Content: "4"},
		{Role: RoleAssistant, Content: "four"},
	}, candidates)
	assert.Equal(t, "gpt-4o-mini", model.options.Model)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, llms.TextContent{Text: "what is 2+2?"}, model.messages[1].Parts[0])
}

func TestQueryNilResponseIsMalformed(t *testing.T) {
	q := NewQuerier(&stubModel{})

	_, err := q.Query(context.Background(), "m", []Message{{Role: RoleUser, Content: "x"}})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

// newChatServer fakes the OpenAI chat completions endpoint.
func newChatServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func chatCompletion(contents ...string) map[string]any {
	choices := make([]map[string]any, 0, len(contents))
	for i, c := range contents {
		choices = append(choices, map[string]any{
			"index":         i,
			"message":       map[string]any{"role": "assistant", "content": c},
			"finish_reason": "stop",
		})
	}
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-3.5-turbo",
		"choices": choices,
		"usage":   map[string]any{"prompt_tokens": 5, "completion_tokens": 1, "total_tokens": 6},
	}
}

func TestOpenAIQuerierAgainstServer(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, chatCompletion("42"))

	q, err := NewOpenAIQuerier("sk-test", srv.URL, "gpt-3.5-turbo")
	require.NoError(t, err)

	candidates, err := q.Query(context.Background(), "gpt-3.5-turbo", []Message{{Role: RoleUser, Content: "answer?"}})
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "42", candidates[0].Content)
}

func TestOpenAIQuerierErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   error
	}{
		{
			name:   "bad key",
			status: http.StatusUnauthorized,
			body:   map[string]any{"error": map[string]any{"message": "Incorrect API key provided", "type": "invalid_request_error"}},
			want:   ErrAuth,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   map[string]any{"error": map[string]any{"message": "Country, region, or territory not supported", "type": "request_forbidden"}},
			want:   ErrAuth,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   map[string]any{"error": map[string]any{"message": "upstream exploded", "type": "server_error"}},
			want:   ErrProvider,
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   chatCompletion(),
			want:   ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newChatServer(t, tt.status, tt.body)

			q, err := NewOpenAIQuerier("sk-test", srv.URL, "gpt-3.5-turbo")
			require.NoError(t, err)

			_, err = q.Query(context.Background(), "gpt-3.5-turbo", []Message{{Role: RoleUser, Content: "x"}})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenAIQuerierUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	q, err := NewOpenAIQuerier("sk-test", url, "gpt-3.5-turbo")
	require.NoError(t, err)

	_, err = q.Query(context.Background(), "gpt-3.5-turbo", []Message{{Role: RoleUser, Content: "x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}
