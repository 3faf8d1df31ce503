// Package enrich turns a raw thought into platform-specific post content
// through the text provider, with bounded retry on transient upstream
// failures.
package enrich

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/carlev/thoughts-to-post-agent/pkg/logger"
	"github.com/carlev/thoughts-to-post-agent/pkg/models"
	"github.com/carlev/thoughts-to-post-agent/pkg/providers"
	"github.com/carlev/thoughts-to-post-agent/pkg/utils"
)

const (
	// maxRetries is the number of additional attempts after the first call.
	maxRetries = 3
	// baseRetryDelay doubles each attempt; jitter adds up to one base unit.
	baseRetryDelay = time.Second
)

var hashtagRe = regexp.MustCompile(`#(\w+)`)

// Result carries one successful enrichment plus the attempt count, so the
// caller can account for retries.
type Result struct {
	Content  models.EnrichedContent
	Attempts int
}

// Agent enriches thoughts into platform posts. It is stateless between
// calls: conversation history is passed in and the new turns are returned.
type Agent struct {
	provider    providers.Provider
	model       string
	maxTokens   int
	temperature float64

	// sleep is replaceable in tests so backoff does not slow them down.
	sleep func(time.Duration)
}

func NewAgent(provider providers.Provider, model string, maxTokens int, temperature float64) *Agent {
	return &Agent{
		provider:    provider,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		sleep:       time.Sleep,
	}
}

// EnrichForPlatform generates enriched content for one platform. It returns
// the result and the conversation history extended with the new human/ai
// turn pair. Transient provider errors are retried up to maxRetries times
// with exponential backoff plus jitter; permanent errors propagate
// immediately.
func (a *Agent) EnrichForPlatform(
	ctx context.Context,
	req *models.ThoughtRequest,
	platform models.PlatformType,
	hist []providers.Message,
) (*Result, []providers.Message, error) {
	input := "Original thought/topic: " + req.OriginalThought
	if req.AdditionalInstructions != "" {
		input += "\n\nAdditional instructions: " + req.AdditionalInstructions
	}

	messages := make([]providers.Message, 0, len(hist)+2)
	messages = append(messages, providers.Message{Role: "system", Content: systemPromptFor(req, platform)})
	messages = append(messages, hist...)
	messages = append(messages, providers.Message{Role: "user", Content: input})

	opts := providers.Options{MaxTokens: a.maxTokens, Temperature: a.temperature}

	logger.InfoCF("enrich", fmt.Sprintf("Enriching content for %s: %s", platform, utils.Truncate(req.OriginalThought, 50)),
		map[string]interface{}{
			"request_id": req.RequestID,
			"platform":   platform,
			"history":    len(hist),
		})

	var text string
	var err error
	attempts := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		attempts++
		text, err = a.provider.Generate(ctx, messages, a.model, opts)
		if err == nil {
			break
		}
		if attempt < maxRetries && providers.Classify(err) == providers.ClassTransient {
			delay := baseRetryDelay<<uint(attempt) + time.Duration(rand.Int63n(int64(baseRetryDelay)))
			logger.WarnCF("enrich", fmt.Sprintf("Attempt %d/%d failed for %s, retrying in %s", attempt+1, maxRetries+1, platform, delay),
				map[string]interface{}{
					"request_id": req.RequestID,
					"error":      err.Error(),
				})
			a.sleep(delay)
			continue
		}
		return nil, hist, fmt.Errorf("enriching content for %s after %d attempts: %w", platform, attempts, err)
	}

	content := models.NewEnrichedContent(platform, text, extractHashtags(text))
	newHist := append(append([]providers.Message(nil), hist...),
		providers.Message{Role: "user", Content: input},
		providers.Message{Role: "assistant", Content: text},
	)

	logger.InfoCF("enrich", fmt.Sprintf("Enrichment success for %s", platform),
		map[string]interface{}{
			"request_id": req.RequestID,
			"chars":      content.CharacterCount,
			"hashtags":   len(content.Hashtags),
			"attempts":   attempts,
		})
	return &Result{Content: content, Attempts: attempts}, newHist, nil
}

// extractHashtags pulls #tags out of the generated body.
func extractHashtags(text string) []string {
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return models.DedupeHashtags(tags)
}
