package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// PlatformType identifies a supported social media platform.
type PlatformType string

const (
	PlatformLinkedIn  PlatformType = "linkedin"
	PlatformFacebook  PlatformType = "facebook"
	PlatformInstagram PlatformType = "instagram"
)

// RequestStatus tracks the lifecycle of an enrichment request.
type RequestStatus string

const (
	StatusPending            RequestStatus = "pending"
	StatusProcessing         RequestStatus = "processing"
	StatusInProgress         RequestStatus = "in_progress"
	StatusCompleted          RequestStatus = "completed"
	StatusPartiallyCompleted RequestStatus = "partially_completed"
	StatusFailed             RequestStatus = "failed"
)

// IsTerminal reports whether a status ends the lifecycle for a version.
// IN_PROGRESS is a per-platform progress signal, never a stored state.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusPartiallyCompleted, StatusFailed:
		return true
	}
	return false
}

// MediaParams carries per-platform media generation parameters.
type MediaParams struct {
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Steps      int    `json:"steps,omitempty"`
	Kind       string `json:"kind,omitempty"`       // "image" or "video"
	Resolution string `json:"resolution,omitempty"` // video only
	Duration   int    `json:"duration,omitempty"`   // video only, seconds
	FPS        int    `json:"fps,omitempty"`        // video only
}

// PlatformConfig carries optional per-platform overrides from the caller.
type PlatformConfig struct {
	StylePrompt string      `json:"style_prompt,omitempty"`
	MediaPrompt string      `json:"media_prompt,omitempty"`
	MediaParams MediaParams `json:"media_params,omitempty"`
}

// ThoughtRequest is the inbound message: the raw thought to enrich.
// Immutable as received.
type ThoughtRequest struct {
	RequestID              string                          `json:"request_id"`
	UserID                 string                          `json:"user_id"`
	OriginalThought        string                          `json:"original_thought"`
	Platforms              []PlatformType                  `json:"platforms"`
	AdditionalInstructions string                          `json:"additional_instructions,omitempty"`
	PlatformConfigs        map[PlatformType]PlatformConfig `json:"platform_configs,omitempty"`
	ModelRole              string                          `json:"model_role,omitempty"`
	SearchDescription      string                          `json:"search_description,omitempty"`

	// Image refinement: when set, only media is regenerated for the target
	// platform (or every platform already enriched when no target is given).
	ImageRefinementInstructions string        `json:"image_refinement_instructions,omitempty"`
	TargetPlatform              *PlatformType `json:"target_platform,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// GeneratedMedia is a single generated artifact (image or video frame data).
type GeneratedMedia struct {
	ID         string    `json:"id"`
	DataBase64 string    `json:"data_base64"`
	Format     string    `json:"format"`
	PromptUsed string    `json:"prompt_used"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	CreatedAt  time.Time `json:"created_at"`
}

// EnrichedContent is the AI-generated post for one platform.
type EnrichedContent struct {
	Platform       PlatformType     `json:"platform"`
	Body           string           `json:"body"`
	Hashtags       []string         `json:"hashtags"`
	CharacterCount int              `json:"character_count"`
	Media          []GeneratedMedia `json:"media"`
}

// NewEnrichedContent builds an EnrichedContent with the character count
// derived from the body and hashtags deduplicated in first-seen order.
// The count is in characters, not bytes; post bodies carry emoji.
func NewEnrichedContent(platform PlatformType, body string, hashtags []string) EnrichedContent {
	return EnrichedContent{
		Platform:       platform,
		Body:           body,
		Hashtags:       DedupeHashtags(hashtags),
		CharacterCount: utf8.RuneCountInString(body),
	}
}

// Normalize re-derives fields that must never diverge from the body.
// Called after loading a persisted snapshot.
func (c *EnrichedContent) Normalize() {
	c.CharacterCount = utf8.RuneCountInString(c.Body)
	c.Hashtags = DedupeHashtags(c.Hashtags)
}

// DedupeHashtags removes duplicates (case-insensitive) preserving order.
func DedupeHashtags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// ConversationTurn is one serializable turn of the model conversation.
// Role is one of "human", "ai", "system".
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AgentContext is the durable, mutable per-request aggregate. It is mutated
// only by the orchestrator through the checkpoint store.
type AgentContext struct {
	RequestID           string             `json:"request_id"`
	UserID              string             `json:"user_id"`
	OriginalThought     string             `json:"original_thought"`
	Platforms           []PlatformType     `json:"platforms"`
	EnrichedContents    []EnrichedContent  `json:"enriched_contents"`
	ConversationHistory []ConversationTurn `json:"conversation_history"`
	RefinementRequests  []string           `json:"refinement_requests"`
	CurrentVersion      int                `json:"current_version"`
	Status              RequestStatus      `json:"status"`
	ErrorMessage        string             `json:"error_message,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// ContentForPlatform returns a pointer to the current enriched content for
// the given platform, or nil when none exists yet.
func (c *AgentContext) ContentForPlatform(platform PlatformType) *EnrichedContent {
	for i := range c.EnrichedContents {
		if c.EnrichedContents[i].Platform == platform {
			return &c.EnrichedContents[i]
		}
	}
	return nil
}

// Clone returns a deep copy, so store callers cannot mutate shared state
// behind the orchestrator's back.
func (c *AgentContext) Clone() *AgentContext {
	out := *c
	out.Platforms = append([]PlatformType(nil), c.Platforms...)
	out.ConversationHistory = append([]ConversationTurn(nil), c.ConversationHistory...)
	out.RefinementRequests = append([]string(nil), c.RefinementRequests...)
	out.EnrichedContents = make([]EnrichedContent, len(c.EnrichedContents))
	for i, ec := range c.EnrichedContents {
		ec.Hashtags = append([]string(nil), ec.Hashtags...)
		ec.Media = append([]GeneratedMedia(nil), ec.Media...)
		out.EnrichedContents[i] = ec
	}
	return &out
}

// AgentResponse is the outbound message emitted after (or during) processing.
type AgentResponse struct {
	RequestID        string            `json:"request_id"`
	UserID           string            `json:"user_id"`
	Status           RequestStatus     `json:"status"`
	EnrichedContents []EnrichedContent `json:"enriched_contents"`
	FailedPlatforms  []PlatformType    `json:"failed_platforms,omitempty"`
	Version          int               `json:"version"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	ProcessedAt      time.Time         `json:"processed_at"`
}
