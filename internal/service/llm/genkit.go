package llm

import (
	"chatpat/internal/config"
	"chatpat/internal/logger"
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai"
	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
)

const genkitProviderName = "compat"

// GenkitProvider implements Gateway using Firebase Genkit against an OpenAI-compatible endpoint
type GenkitProvider struct {
	genkit       *genkit.Genkit
	model        string
	systemPrompt string
}

// NewGenkitProvider initializes Genkit with the compat_oai plugin
func NewGenkitProvider(ctx context.Context, llmConfig *config.LLMConfig) (*GenkitProvider, error) {
	if llmConfig.OpenAIBaseURL == "" {
		return nil, fmt.Errorf("OPENAI_BASE_URL not configured")
	}

	model := genkitProviderName + "/" + llmConfig.OpenAIModel

	g := genkit.Init(ctx,
		genkit.WithPlugins(&compat_oai.OpenAICompatible{
			Provider: genkitProviderName,
			APIKey:   localAPIKey(llmConfig.OpenAIAPIKey),
			BaseURL:  llmConfig.OpenAIBaseURL,
		}),
		genkit.WithDefaultModel(model),
	)

	logger.Log.WithFields(logrus.Fields{
		"model":    model,
		"base_url": llmConfig.OpenAIBaseURL,
	}).Info("Initialized Genkit provider")

	return &GenkitProvider{
		genkit:       g,
		model:        model,
		systemPrompt: llmConfig.SystemPrompt,
	}, nil
}

// Name returns the provider name
func (p *GenkitProvider) Name() string {
	return config.ProviderGenkit
}

// GenerateText asks the configured model for a reply
func (p *GenkitProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := p.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// GenerateImage returns the first media part of the model's answer
func (p *GenkitProvider) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	resp, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return imageFromResponse(resp)
}

func (p *GenkitProvider) generate(ctx context.Context, prompt string) (*ai.ModelResponse, error) {
	messages := []*ai.Message{ai.NewUserTextMessage(prompt)}
	if p.systemPrompt != "" {
		messages = append([]*ai.Message{ai.NewSystemTextMessage(p.systemPrompt)}, messages...)
	}

	logger.Log.WithField("model", p.model).Info("Calling Genkit")

	resp, err := genkit.Generate(ctx, p.genkit,
		ai.WithMessages(messages...),
		ai.WithModelName(p.model),
		ai.WithConfig(&openai.ChatCompletionNewParams{}),
	)
	if err != nil {
		return nil, fmt.Errorf("genkit generation failed: %w", err)
	}
	return resp, nil
}

// imageFromResponse decodes the first media part, which compat_oai carries as a data URI
func imageFromResponse(resp *ai.ModelResponse) (*Image, error) {
	if resp == nil || resp.Message == nil {
		return nil, nil
	}
	for _, part := range resp.Message.Content {
		if !part.IsMedia() || part.Text == "" {
			continue
		}
		image, err := ParseDataURI(part.Text)
		if err != nil {
			return nil, fmt.Errorf("error decoding media part: %w", err)
		}
		if part.ContentType != "" {
			image.MIMEType = part.ContentType
		}
		return image, nil
	}
	return nil, nil
}

// localAPIKey fills in a placeholder for local OpenAI-compatible servers that ignore the key
func localAPIKey(key string) string {
	if key == "" {
		return "unused"
	}
	return key
}
