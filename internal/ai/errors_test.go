package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

func TestKind(t *testing.T) {
	assert.Equal(t, KindOK, Kind(nil))
	assert.Equal(t, KindNetwork, Kind(fmt.Errorf("wrapped: %w", ErrNetwork)))
	assert.Equal(t, KindAuth, Kind(ErrAuth))
	assert.Equal(t, KindProvider, Kind(ErrProvider))
	assert.Equal(t, KindMalformed, Kind(ErrMalformedResponse))
	assert.Equal(t, KindUnknown, Kind(errors.New("boom")))
}

func TestClassify(t *testing.T) {
	dialErr := &url.Error{
		Op:  "Post",
		URL: "https://api.openai.com/v1/chat/completions",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
	}
	deadlineErr := &url.Error{
		Op:  "Post",
		URL: "https://api.openai.com/v1/chat/completions",
		Err: context.DeadlineExceeded,
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"dial failure", dialErr, ErrNetwork},
		{"sanitized transport failure", errors.New("network error: failed to reach API server"), ErrNetwork},
		{"sanitized deadline", errors.New("request timeout: API call exceeded deadline"), ErrProvider},
		{"cancelled", context.Canceled, ErrProvider},
		{"request deadline", deadlineErr, ErrProvider},
		{"bare deadline", context.DeadlineExceeded, ErrProvider},
		{"unauthorized status", errors.New("API returned unexpected status code: 401: Incorrect API key provided"), ErrAuth},
		{"forbidden status", errors.New("API returned unexpected status code: 403"), ErrAuth},
		{"rate limited", errors.New("API returned unexpected status code: 429: Rate limit reached"), ErrProvider},
		{"server error", errors.New("API returned unexpected status code: 500"), ErrProvider},
		{"unavailable", errors.New("API returned unexpected status code: 503: overloaded"), ErrProvider},
		{"invalid key text", errors.New("invalid api key"), ErrAuth},
		{"unknown", errors.New("something odd"), ErrProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "original error must stay in the chain")
		})
	}
}

func TestClassifyKeepsExistingKind(t *testing.T) {
	err := fmt.Errorf("%w: upstream said 401", ErrNetwork)
	assert.Same(t, err, classify(err))
	assert.NoError(t, classify(nil))
}

func TestClassifyKeepsProviderCode(t *testing.T) {
	err := classify(errors.New("API returned unexpected status code: 429: Rate limit reached"))

	assert.ErrorIs(t, err, ErrProvider)
	assert.True(t, llms.IsRateLimitError(err))
}

func TestIsEmptyResponse(t *testing.T) {
	assert.True(t, isEmptyResponse(openai.ErrEmptyResponse))
	assert.True(t, isEmptyResponse(errors.New("empty response")))
	assert.False(t, isEmptyResponse(errors.New("API returned unexpected status code: 500")))
}
