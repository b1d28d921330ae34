package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Querier sends role-tagged messages to a completion provider and returns
// its candidates.
type Querier interface {
	Query(ctx context.Context, model string, messages []Message) ([]Candidate, error)
}

// OpenAIQuerier implements Querier using the OpenAI-compatible API.
type OpenAIQuerier struct {
	client llms.Model
}

// NewOpenAIQuerier creates a new OpenAI-compatible querier.
func NewOpenAIQuerier(apiKey, baseURL, model string) (*OpenAIQuerier, error) {
	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return NewQuerier(client), nil
}

// NewQuerier wraps any langchaingo model.
func NewQuerier(client llms.Model) *OpenAIQuerier {
	return &OpenAIQuerier{client: client}
}

// Query sends messages to the LLM and returns every candidate it produced.
func (q *OpenAIQuerier) Query(ctx context.Context, model string, messages []Message) ([]Candidate, error) {
	llmMessages := make([]llms.MessageContent, 0, len(messages))

	for _, msg := range messages {
		var msgType llms.ChatMessageType
		switch msg.Role {
		case RoleSystem:
			msgType = llms.ChatMessageTypeSystem
		case RoleUser:
			msgType = llms.ChatMessageTypeHuman
		case RoleAssistant:
			msgType = llms.ChatMessageTypeAI
		default:
			continue
		}
		llmMessages = append(llmMessages, llms.TextParts(msgType, msg.Content))
	}

	var opts []llms.CallOption
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}

	resp, err := q.client.GenerateContent(ctx, llmMessages, opts...)
	if err != nil && isEmptyResponse(err) {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to generate content: %w", err))
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: empty response from model", ErrMalformedResponse)
	}

	candidates := make([]Candidate, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Role:    RoleAssistant,
			Content: choice.Content,
		})
	}

	return candidates, nil
}
