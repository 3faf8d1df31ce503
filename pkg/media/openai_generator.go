package media

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/carlev/thoughts-to-post-agent/pkg/models"
)

// OpenAIImageGenerator produces images through the OpenAI images API.
type OpenAIImageGenerator struct {
	client openai.Client
}

func NewOpenAIImageGenerator(apiKey string) (*OpenAIImageGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key required for image generation")
	}
	return &OpenAIImageGenerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

func (g *OpenAIImageGenerator) Generate(ctx context.Context, prompt string, params models.MediaParams) (*models.GeneratedMedia, error) {
	params = fillDefaults(params)

	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModelDallE3,
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image generation: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai image generation returned no data")
	}

	return &models.GeneratedMedia{
		ID:         uuid.NewString(),
		DataBase64: resp.Data[0].B64JSON,
		Format:     "png",
		PromptUsed: prompt,
		Width:      params.Width,
		Height:     params.Height,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
