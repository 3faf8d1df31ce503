package media

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carlev/thoughts-to-post-agent/pkg/logger"
	"github.com/carlev/thoughts-to-post-agent/pkg/models"
)

// placeholderPNG is a 1x1 transparent PNG.
const placeholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

// PlaceholderGenerator stands in when no media backend is configured.
type PlaceholderGenerator struct{}

func NewPlaceholderGenerator() *PlaceholderGenerator {
	return &PlaceholderGenerator{}
}

func (g *PlaceholderGenerator) Generate(ctx context.Context, prompt string, params models.MediaParams) (*models.GeneratedMedia, error) {
	logger.WarnCF("media", "Using 1x1 placeholder image; configure a media backend for real artifacts", nil)
	return &models.GeneratedMedia{
		ID:         uuid.NewString(),
		DataBase64: placeholderPNG,
		Format:     "png",
		PromptUsed: prompt,
		Width:      1,
		Height:     1,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
