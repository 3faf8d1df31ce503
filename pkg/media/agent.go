package media

import (
	"context"
	"fmt"

	"github.com/carlev/thoughts-to-post-agent/pkg/logger"
	"github.com/carlev/thoughts-to-post-agent/pkg/models"
	"github.com/carlev/thoughts-to-post-agent/pkg/providers"
	"github.com/carlev/thoughts-to-post-agent/pkg/utils"
)

const imagePromptSystem = `You are an expert at creating image generation prompts for AI art models.
Your task is to create a clear, detailed prompt that will generate a professional,
visually appealing image suitable for social media posts.

Guidelines:
- Focus on the main concept or metaphor in the content
- Use descriptive visual language
- Specify style (e.g., "professional photography", "modern illustration", "minimalist design")
- Include lighting and mood descriptors
- Keep the prompt under 200 words
- Do NOT include text in the image
- Make it suitable for professional/business content

Respond with ONLY the image prompt, nothing else.`

const videoPromptSystem = `You are an expert at creating video generation prompts for AI video models.
Your task is to create a clear, detailed motion-focused prompt that will generate a high-quality short video.

Guidelines:
- Describe the movement and action clearly
- Specify camera work (e.g., "slow zoom in", "panning shot")
- Specify style and lighting
- Keep the prompt focused on a single, impactful scene
- Do NOT include text in the video
- If a base prompt is provided, enhance and refine it based on the post content.

Respond with ONLY the video prompt, nothing else.`

// Agent turns enriched content into media artifacts: it derives a prompt
// from the post body through the text provider, then invokes the configured
// generator. Stateless per call.
type Agent struct {
	provider  providers.Provider
	generator Generator
	model     string
}

func NewAgent(provider providers.Provider, generator Generator, model string) *Agent {
	return &Agent{provider: provider, generator: generator, model: model}
}

// GenerateForContent produces one artifact for the given enriched content.
// cfg may carry a caller-supplied media prompt and parameters; refinement is
// the optional image-refinement instruction for follow-up rounds.
func (a *Agent) GenerateForContent(
	ctx context.Context,
	content *models.EnrichedContent,
	refinement string,
	cfg models.PlatformConfig,
) (*models.GeneratedMedia, error) {
	prompt, err := a.buildPrompt(ctx, content, refinement, cfg)
	if err != nil {
		return nil, err
	}
	return a.generator.Generate(ctx, prompt, cfg.MediaParams)
}

func (a *Agent) buildPrompt(ctx context.Context, content *models.EnrichedContent, refinement string, cfg models.PlatformConfig) (string, error) {
	system := imagePromptSystem
	if cfg.MediaParams.Kind == "video" {
		system = videoPromptSystem
	}

	input := fmt.Sprintf("Create a generation prompt for the following social media content:\n\n%s", content.Body)
	if cfg.MediaPrompt != "" {
		input += "\n\nBase prompt to enhance: " + cfg.MediaPrompt
	}
	if refinement != "" {
		input += "\n\nRefine the final prompt with these specific instructions: " + refinement
	}

	prompt, err := a.provider.Generate(ctx, []providers.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: input},
	}, a.model, providers.Options{MaxTokens: 512, Temperature: 0.8})
	if err != nil {
		// Degrade to a simple prompt rather than losing the artifact.
		logger.WarnCF("media", "Prompt generation failed, using fallback prompt", map[string]interface{}{
			"platform": content.Platform,
			"error":    err.Error(),
		})
		return fmt.Sprintf("Professional illustration representing: %s, modern, clean, corporate style", utils.Truncate(content.Body, 100)), nil
	}

	logger.DebugCF("media", "Generated media prompt", map[string]interface{}{
		"platform": content.Platform,
		"preview":  utils.Truncate(prompt, 100),
	})
	return prompt, nil
}
