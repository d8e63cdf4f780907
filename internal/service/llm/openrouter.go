package llm

import (
	"bytes"
	"chatpat/internal/config"
	"chatpat/internal/logger"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// OpenRouterProvider implements Gateway using direct OpenRouter API calls
type OpenRouterProvider struct {
	config *config.LLMConfig
	client *http.Client
}

// NewOpenRouterProvider creates a new OpenRouter provider with config
func NewOpenRouterProvider(llmConfig *config.LLMConfig) (*OpenRouterProvider, error) {
	if llmConfig.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not configured")
	}
	return &OpenRouterProvider{
		config: llmConfig,
		client: &http.Client{},
	}, nil
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model      string    `json:"model"`
	Messages   []Message `json:"messages"`
	Stream     bool      `json:"stream"`
	Modalities []string  `json:"modalities,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ResponseImage struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ResponseMessage struct {
	Role    string          `json:"role"`
	Content string          `json:"content"`
	Images  []ResponseImage `json:"images,omitempty"`
}

type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message ResponseMessage `json:"message"`
	} `json:"choices"`
}

// Name returns the provider name
func (p *OpenRouterProvider) Name() string {
	return config.ProviderOpenRouter
}

// GenerateText asks the text model for a reply
func (p *OpenRouterProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	reqBody := ChatRequest{
		Model:    p.config.OpenRouterTextModel,
		Messages: p.buildMessages(prompt),
	}

	resp, err := p.complete(ctx, reqBody)
	if err != nil {
		return "", err
	}

	content := resp.Choices[0].Message.Content
	logger.Log.WithField("content_length", len(content)).Debug("Extracted content from response")
	return content, nil
}

// GenerateImage asks the image model for a picture and decodes the first returned image
func (p *OpenRouterProvider) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	reqBody := ChatRequest{
		Model:      p.config.OpenRouterImageModel,
		Messages:   []Message{{Role: "user", Content: prompt}},
		Modalities: []string{"image", "text"},
	}

	resp, err := p.complete(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	for _, img := range resp.Choices[0].Message.Images {
		if img.ImageURL.URL == "" {
			continue
		}
		image, err := ParseDataURI(img.ImageURL.URL)
		if err != nil {
			return nil, fmt.Errorf("error decoding image: %w", err)
		}
		return image, nil
	}

	logger.Log.WithField("model", reqBody.Model).Warn("OpenRouter returned no image")
	return nil, nil
}

func (p *OpenRouterProvider) buildMessages(prompt string) []Message {
	messages := []Message{{Role: "user", Content: prompt}}
	if p.config.SystemPrompt != "" {
		messages = append([]Message{{Role: "system", Content: p.config.SystemPrompt}}, messages...)
	}
	return messages
}

func (p *OpenRouterProvider) complete(ctx context.Context, reqBody ChatRequest) (*ChatResponse, error) {
	logger.Log.WithFields(logrus.Fields{
		"model":      reqBody.Model,
		"modalities": reqBody.Modalities,
	}).Info("Calling OpenRouter API")

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	url := strings.TrimSuffix(p.config.OpenRouterBaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.OpenRouterAPIKey)
	req.Header.Set("X-Title", "chatpat")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	logger.Log.WithField("response_length", len(body)).Debug("Received raw response")

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from API")
	}

	return &chatResp, nil
}
