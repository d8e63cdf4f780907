package llm

import (
	"chatpat/internal/config"
	"chatpat/internal/logger"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangchainProvider implements Gateway with langchaingo's OpenAI-compatible client.
// It only generates text.
type LangchainProvider struct {
	llm          llms.Model
	systemPrompt string
}

// NewLangchainProvider creates a client for an OpenAI-compatible endpoint such as a local Ollama
func NewLangchainProvider(llmConfig *config.LLMConfig) (*LangchainProvider, error) {
	llm, err := openai.New(
		openai.WithToken(localAPIKey(llmConfig.OpenAIAPIKey)),
		openai.WithBaseURL(llmConfig.OpenAIBaseURL),
		openai.WithModel(llmConfig.OpenAIModel),
	)
	if err != nil {
		return nil, fmt.Errorf("creating langchain client: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"model":    llmConfig.OpenAIModel,
		"base_url": llmConfig.OpenAIBaseURL,
	}).Info("Initialized langchain provider")

	return &LangchainProvider{llm: llm, systemPrompt: llmConfig.SystemPrompt}, nil
}

// Name returns the provider name
func (p *LangchainProvider) Name() string {
	return config.ProviderLangchain
}

// GenerateText asks the model for a reply
func (p *LangchainProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	var content []llms.MessageContent
	if p.systemPrompt != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, p.systemPrompt))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := p.llm.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("langchain generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("langchain returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// GenerateImage always answers without an image
func (p *LangchainProvider) GenerateImage(context.Context, string) (*Image, error) {
	return nil, nil
}
