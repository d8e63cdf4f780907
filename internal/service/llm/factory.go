package llm

import (
	"chatpat/internal/config"
	"chatpat/internal/logger"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// NewGateway builds the provider selected by LLM_PROVIDER, bounded by LLM_TIMEOUT
func NewGateway(ctx context.Context, llmConfig *config.LLMConfig) (Gateway, error) {
	var (
		gw  Gateway
		err error
	)

	switch llmConfig.Provider {
	case config.ProviderGemini, "":
		gw, err = NewGeminiProvider(ctx, llmConfig, "")
	case config.ProviderOpenRouter:
		gw, err = NewOpenRouterProvider(llmConfig)
	case config.ProviderGenkit:
		gw, err = NewGenkitProvider(ctx, llmConfig)
	case config.ProviderLangchain:
		gw, err = NewLangchainProvider(llmConfig)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", llmConfig.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Log.WithField("provider", gw.Name()).Info("Model gateway ready")
	return WithTimeout(gw, llmConfig.Timeout), nil
}

// WithTimeout bounds every call of gw and logs its duration. A zero timeout only logs.
func WithTimeout(gw Gateway, timeout time.Duration) Gateway {
	return &timedGateway{next: gw, timeout: timeout}
}

type timedGateway struct {
	next    Gateway
	timeout time.Duration
}

func (g *timedGateway) Name() string { return g.next.Name() }

func (g *timedGateway) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	start := time.Now()
	text, err := g.next.GenerateText(ctx, prompt)
	g.log(ctx, "text", start, err)
	return text, err
}

func (g *timedGateway) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	start := time.Now()
	img, err := g.next.GenerateImage(ctx, prompt)
	g.log(ctx, "image", start, err)
	return img, err
}

func (g *timedGateway) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *timedGateway) log(ctx context.Context, kind string, start time.Time, err error) {
	entry := logger.FromContext(ctx).WithFields(logrus.Fields{
		"provider":    g.next.Name(),
		"kind":        kind,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("Model gateway call failed")
		return
	}
	entry.Debug("Model gateway call completed")
}
