package llm

import "context"

// Gateway is the single abstraction over a generative-AI provider.
// Each call is one blocking round trip with no retry.
type Gateway interface {
	// GenerateText returns the model's text answer to prompt
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateImage returns a generated image, or nil when the provider answered without one
	GenerateImage(ctx context.Context, prompt string) (*Image, error)

	// Name identifies the provider in logs
	Name() string
}
