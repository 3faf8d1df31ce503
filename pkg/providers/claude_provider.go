package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider generates text via the Anthropic Messages API. Used as the
// fallback text backend when an Anthropic key is configured.
type ClaudeProvider struct {
	client       *anthropic.Client
	defaultModel string
}

func NewClaudeProvider(apiKey, defaultModel string) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &ClaudeProvider{client: &client, defaultModel: defaultModel}
}

func (p *ClaudeProvider) Generate(ctx context.Context, messages []Message, model string, opts Options) (string, error) {
	if model == "" {
		model = p.defaultModel
	}

	params := buildClaudeParams(messages, model, opts)
	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", wrapClaudeError(err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.AsText().Text
		}
	}
	return content, nil
}

func (p *ClaudeProvider) GetDefaultModel() string {
	return p.defaultModel
}

func buildClaudeParams(messages []Message, model string, opts Options) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var anthropicMessages []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case "assistant":
			anthropicMessages = append(anthropicMessages,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)),
			)
		default:
			anthropicMessages = append(anthropicMessages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)),
			)
		}
	}

	maxTokens := int64(4096)
	if opts.MaxTokens > 0 {
		maxTokens = int64(opts.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  anthropicMessages,
		MaxTokens: maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	return params
}

func wrapClaudeError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &HTTPError{Code: apierr.StatusCode, Err: fmt.Errorf("claude API call: %w", err)}
	}
	return fmt.Errorf("claude API call: %w", err)
}
