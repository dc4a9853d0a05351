package generation

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIAdapter speaks for the automated participants through an
// OpenAI-compatible chat completion endpoint.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

// OpenAIConfig controls adapter construction. BaseURL may point at any
// compatible endpoint; Model falls back to a small default.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAIAdapter(cfg OpenAIConfig) *OpenAIAdapter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (a *OpenAIAdapter) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.Phase, req.Role)},
			{Role: openai.ChatMessageRoleUser, Content: userContext(req)},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai completion: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyContent
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

func (a *OpenAIAdapter) ShouldContinue(ctx context.Context, req Request) (bool, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: promptJudgeContinue},
			{Role: openai.ChatMessageRoleUser, Content: userContext(req)},
		},
		MaxTokens:   10,
		Temperature: 0.2,
	})
	if err != nil {
		return false, fmt.Errorf("%w: openai continuation: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return false, ErrEmptyContent
	}
	return parseContinueDecision(resp.Choices[0].Message.Content), nil
}
