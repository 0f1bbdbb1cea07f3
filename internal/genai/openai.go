package genai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModelGenerator adapts an eino chat model to the Generator interface,
// for OpenAI-compatible providers.
type ChatModelGenerator struct {
	chatModel model.ChatModel
}

// NewChatModel builds a generator backed by an OpenAI-compatible endpoint.
// BaseURL may be empty for the default OpenAI API.
func NewChatModel(ctx context.Context, apiKey, baseURL, modelName string) (*ChatModelGenerator, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return &ChatModelGenerator{chatModel: chatModel}, nil
}

// NewChatModelWith wraps an existing chat model, used by tests.
func NewChatModelWith(chatModel model.ChatModel) *ChatModelGenerator {
	return &ChatModelGenerator{chatModel: chatModel}
}

func (g *ChatModelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.User, Content: prompt},
	}
	resp, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat model generate: %w", err)
	}
	if resp == nil || resp.Content == "" {
		return "", ErrNoContent
	}
	return resp.Content, nil
}
