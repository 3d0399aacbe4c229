package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/sozercan/mail-ai-mole/internal/config"
)

// OpenAI client implementation. A client is built per call because
// session overrides can change the endpoint and key between requests.
type OpenAI struct {
	creds config.Credentials
}

func NewOpenAI(creds config.Credentials) *OpenAI {
	return &OpenAI{creds: creds}
}

func (o *OpenAI) newClient() *openai.Client {
	switch o.creds.Provider {
	case "azure":
		return openai.NewClient(
			azure.WithEndpoint(o.creds.Endpoint, o.creds.APIVersion),
			azure.WithAPIKey(o.creds.APIKey),
		)
	default: // "openai"
		return openai.NewClient(
			option.WithAPIKey(o.creds.APIKey),
			option.WithBaseURL(o.creds.Endpoint),
		)
	}
}

func (o *OpenAI) Complete(ctx context.Context, system, user string, opts ...Option) (*Response, error) {
	options := &Options{
		Model:       o.creds.Model,
		Temperature: 0.3,
		MaxTokens:   2000,
	}
	for _, opt := range opts {
		opt(options)
	}

	model := options.Model
	if o.creds.Provider == "azure" && o.creds.DeploymentName != "" {
		model = o.creds.DeploymentName
	}

	resp, err := o.newClient().Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Model: openai.F(model),
			Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			}),
			Temperature: openai.F(options.Temperature),
			MaxTokens:   openai.F(options.MaxTokens),
		},
	)
	if err != nil {
		return nil, mapError(err)
	}

	response := &Response{
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		response.Content = resp.Choices[0].Message.Content
	}
	return response, nil
}

// mapError folds provider-specific failures into the two error kinds
// callers care about: bad credentials vs. unreachable service.
func mapError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 401 || apierr.StatusCode == 403:
			return fmt.Errorf("%w: %v", ErrAuthentication, err)
		case apierr.StatusCode == 429 || apierr.StatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}
