// Package providers abstracts the text generation backends behind a single
// Provider interface, with error classification for retry decisions.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// Message is one turn in a provider conversation. Role is one of "system",
// "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

// Options tunes a single generation call.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Provider is the text generation contract shared by all backends.
type Provider interface {
	Generate(ctx context.Context, messages []Message, model string, opts Options) (string, error)
	GetDefaultModel() string
}

// ErrorClass partitions provider errors into retryable and not.
type ErrorClass int

const (
	// ClassPermanent errors will not succeed on retry (bad request, auth).
	ClassPermanent ErrorClass = iota
	// ClassTransient errors may succeed on retry (rate limit, upstream 5xx,
	// connection refused, timeout).
	ClassTransient
)

// HTTPError wraps a provider error together with the HTTP status code the
// backend returned, so classification does not depend on SDK error types.
type HTTPError struct {
	Code int
	Err  error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %v", e.Code, e.Err)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// transientCodes are the status codes worth retrying.
var transientCodes = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// Classify decides whether an error is worth retrying. Unknown errors are
// permanent: only positively identified transient failures get more attempts.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassPermanent
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return ClassTransient
	}
	if os.IsTimeout(err) {
		return ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if transientCodes[httpErr.Code] {
			return ClassTransient
		}
		return ClassPermanent
	}

	// Last resort for errors that arrive as plain strings.
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "500", "502", "503", "504", "connection refused", "timeout", "temporarily unavailable"} {
		if strings.Contains(msg, marker) {
			return ClassTransient
		}
	}
	return ClassPermanent
}
