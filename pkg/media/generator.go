// Package media produces images (and video prompts) to accompany enriched
// posts. Media generation is best-effort: a failure here never fails the
// platform, the caller degrades to an empty media list.
package media

import (
	"context"

	"github.com/carlev/thoughts-to-post-agent/pkg/models"
)

// Generator is the media backend contract: one prompt in, one artifact out.
type Generator interface {
	Generate(ctx context.Context, prompt string, params models.MediaParams) (*models.GeneratedMedia, error)
}

const (
	defaultWidth  = 1024
	defaultHeight = 1024
	defaultSteps  = 30
)

func fillDefaults(p models.MediaParams) models.MediaParams {
	if p.Width == 0 {
		p.Width = defaultWidth
	}
	if p.Height == 0 {
		p.Height = defaultHeight
	}
	if p.Steps == 0 {
		p.Steps = defaultSteps
	}
	return p
}
