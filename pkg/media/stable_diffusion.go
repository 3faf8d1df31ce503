package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carlev/thoughts-to-post-agent/pkg/logger"
	"github.com/carlev/thoughts-to-post-agent/pkg/models"
)

// StableDiffusionGenerator calls an Automatic1111-compatible txt2img API.
type StableDiffusionGenerator struct {
	apiURL string
	client *http.Client
}

func NewStableDiffusionGenerator(apiURL string) *StableDiffusionGenerator {
	return &StableDiffusionGenerator{
		apiURL: apiURL,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

type txt2imgRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Steps          int    `json:"steps"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	CfgScale       int    `json:"cfg_scale"`
	SamplerName    string `json:"sampler_name"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
}

type progressResponse struct {
	Progress float64 `json:"progress"`
}

func (g *StableDiffusionGenerator) Generate(ctx context.Context, prompt string, params models.MediaParams) (*models.GeneratedMedia, error) {
	params = fillDefaults(params)

	payload, err := json.Marshal(txt2imgRequest{
		Prompt:         prompt,
		NegativePrompt: "blurry, low quality, distorted, watermark, text, logo",
		Steps:          params.Steps,
		Width:          params.Width,
		Height:         params.Height,
		CfgScale:       7,
		SamplerName:    "DPM++ 2M Karras",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal txt2img payload: %w", err)
	}

	// Progress poller: a bounded-lifetime helper, always joined before this
	// call returns so no background work outlives a generate call.
	pollCtx, cancelPoll := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go g.pollProgress(pollCtx, &wg)
	defer func() {
		cancelPoll()
		wg.Wait()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"/sdapi/v1/txt2img", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building txt2img request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stable diffusion generation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stable diffusion returned status %d", resp.StatusCode)
	}

	var result txt2imgResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding txt2img response: %w", err)
	}
	if len(result.Images) == 0 {
		return nil, fmt.Errorf("stable diffusion returned no images")
	}

	return &models.GeneratedMedia{
		ID:         uuid.NewString(),
		DataBase64: result.Images[0],
		Format:     "png",
		PromptUsed: prompt,
		Width:      params.Width,
		Height:     params.Height,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// pollProgress logs generation progress at a throttled interval until the
// generate call finishes and cancels it.
func (g *StableDiffusionGenerator) pollProgress(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL+"/sdapi/v1/progress", nil)
			if err != nil {
				continue
			}
			resp, err := g.client.Do(req)
			if err != nil {
				continue
			}
			var p progressResponse
			err = json.NewDecoder(resp.Body).Decode(&p)
			resp.Body.Close()
			if err != nil {
				continue
			}
			logger.DebugCF("media", "Stable diffusion progress", map[string]interface{}{
				"progress": fmt.Sprintf("%.0f%%", p.Progress*100),
			})
		}
	}
}
