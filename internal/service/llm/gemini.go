package llm

import (
	"chatpat/internal/config"
	"chatpat/internal/logger"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// ErrNoImageData is returned when the image model answers without an inline image
var ErrNoImageData = errors.New("no image data found in response")

// GeminiProvider implements Gateway on the Gemini API
type GeminiProvider struct {
	client       *genai.Client
	textModel    string
	imageModel   string
	systemPrompt string
}

// NewGeminiProvider creates a Gemini API client. baseURL is only set by tests.
func NewGeminiProvider(ctx context.Context, llmConfig *config.LLMConfig, baseURL string) (*GeminiProvider, error) {
	if llmConfig.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not configured")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  llmConfig.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"text_model":  llmConfig.GeminiTextModel,
		"image_model": llmConfig.GeminiImageModel,
	}).Info("Initialized Gemini provider")

	return &GeminiProvider{
		client:       client,
		textModel:    llmConfig.GeminiTextModel,
		imageModel:   llmConfig.GeminiImageModel,
		systemPrompt: llmConfig.SystemPrompt,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return config.ProviderGemini
}

// GenerateText asks the text model for a reply
func (p *GeminiProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if p.systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.systemPrompt, genai.RoleUser)
	}

	res, err := p.client.Models.GenerateContent(ctx, p.textModel, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	return res.Text(), nil
}

// GenerateImage asks the image model for a picture and returns the first inline image part
func (p *GeminiProvider) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	res, err := p.client.Models.GenerateContent(ctx, p.imageModel, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate image: %w", err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil, ErrNoImageData
	}
	for _, part := range res.Candidates[0].Content.Parts {
		if part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		return &Image{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}, nil
	}

	return nil, ErrNoImageData
}
