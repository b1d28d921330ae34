package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Every error returned by the relay wraps exactly one of these.
var (
	ErrNetwork           = errors.New("network error")
	ErrAuth              = errors.New("authentication error")
	ErrProvider          = errors.New("provider error")
	ErrMalformedResponse = errors.New("malformed response")
)

const (
	KindOK        = "ok"
	KindNetwork   = "network"
	KindAuth      = "auth"
	KindProvider  = "provider"
	KindMalformed = "malformed"
	KindUnknown   = "unknown"
)

// Kind names the failure class of err for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrProvider):
		return KindProvider
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	default:
		return KindUnknown
	}
}

// The openai client replaces transport errors with these messages.
const (
	sanitizedNetworkError = "network error:"
	emptyChatResponse     = "empty response"
)

// forbidden maps 403s, which the openai error table does not treat as auth.
var forbidden = llms.NewErrorMapper("openai").AddMatcher(llms.ErrorMatcher{
	Match: isForbidden,
	Code:  llms.ErrCodeAuthentication,
})

func isForbidden(err error) bool {
	return strings.Contains(err.Error(), "status code: 403")
}

// classify wraps an unclassified provider error with its failure kind.
// Already classified errors are returned as is.
func classify(err error) error {
	if err == nil || Kind(err) != KindUnknown {
		return err
	}

	if isNetworkError(err) {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	mapped := openai.MapError(err)
	if isForbidden(err) {
		mapped = forbidden.Map(err)
	}

	if llms.IsAuthenticationError(mapped) {
		return fmt.Errorf("%w: %w", ErrAuth, mapped)
	}

	// Timeouts, cancellations, rate limits and outages all land here.
	return fmt.Errorf("%w: %w", ErrProvider, mapped)
}

// isNetworkError reports transport failures that are not timeouts.
func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return !netErr.Timeout()
	}

	return strings.Contains(err.Error(), sanitizedNetworkError)
}

// isEmptyResponse reports a reply without any choices.
func isEmptyResponse(err error) bool {
	return errors.Is(err, openai.ErrEmptyResponse) || strings.HasSuffix(err.Error(), emptyChatResponse)
}
