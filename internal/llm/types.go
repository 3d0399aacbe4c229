package llm

import (
	"context"
	"errors"
)

var (
	// ErrAuthentication indicates the completion endpoint rejected
	// the configured credentials.
	ErrAuthentication = errors.New("completion endpoint rejected credentials")

	// ErrServiceUnavailable indicates the completion endpoint could
	// not be reached or timed out. Calls are not retried.
	ErrServiceUnavailable = errors.New("completion endpoint unavailable")
)

type Provider interface {
	// Complete sends one system+user prompt pair and returns the raw
	// completion text.
	Complete(ctx context.Context, system, user string, opts ...Option) (*Response, error)
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Option func(*Options)

type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

type Response struct {
	Content string
	Usage   Usage
}
