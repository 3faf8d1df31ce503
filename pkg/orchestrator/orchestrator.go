// Thoughts-to-Post AI Agent - request-processing orchestrator
// License: MIT
//
// Copyright (c) 2026 Thoughts-to-Post contributors

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/carlev/thoughts-to-post-agent/pkg/bus"
	"github.com/carlev/thoughts-to-post-agent/pkg/checkpoint"
	"github.com/carlev/thoughts-to-post-agent/pkg/enrich"
	"github.com/carlev/thoughts-to-post-agent/pkg/history"
	"github.com/carlev/thoughts-to-post-agent/pkg/logger"
	"github.com/carlev/thoughts-to-post-agent/pkg/media"
	"github.com/carlev/thoughts-to-post-agent/pkg/metrics"
	"github.com/carlev/thoughts-to-post-agent/pkg/models"
	"github.com/carlev/thoughts-to-post-agent/pkg/providers"
	"github.com/carlev/thoughts-to-post-agent/pkg/utils"
)

// Consumer pulls inbound request messages.
type Consumer interface {
	ConsumeInbound(ctx context.Context) (bus.InboundMessage, bool)
}

// ResponsePublisher emits outbound response messages.
type ResponsePublisher interface {
	PublishOutbound(ctx context.Context, msg bus.OutboundMessage) error
}

// requestKind is decided once at the top of request handling so the state
// machine stays a single linear dispatch.
type requestKind int

const (
	kindEnrichment requestKind = iota
	kindImageRefinement
)

func classifyRequest(req *models.ThoughtRequest) requestKind {
	if req.ImageRefinementInstructions != "" {
		return kindImageRefinement
	}
	return kindEnrichment
}

// Orchestrator is the request state machine: it consumes one request at a
// time, drives per-platform fan-out through the enrichment and media agents,
// checkpoints incrementally, and emits progress plus a final response.
type Orchestrator struct {
	store         *checkpoint.Store
	enricher      *enrich.Agent
	mediaAgent    *media.Agent
	consumer      Consumer
	publisher     ResponsePublisher
	escalator     *Escalator
	tracker       *metrics.Tracker
	responseTopic string
	running       atomic.Bool
}

func New(
	store *checkpoint.Store,
	enricher *enrich.Agent,
	mediaAgent *media.Agent,
	consumer Consumer,
	publisher ResponsePublisher,
	escalator *Escalator,
	tracker *metrics.Tracker,
	responseTopic string,
) *Orchestrator {
	return &Orchestrator{
		store:         store,
		enricher:      enricher,
		mediaAgent:    mediaAgent,
		consumer:      consumer,
		publisher:     publisher,
		escalator:     escalator,
		tracker:       tracker,
		responseTopic: responseTopic,
	}
}

// Run consumes requests until the context is cancelled or Stop is called.
// Exactly one request is fully processed before the next is pulled; shutdown
// never aborts the in-flight request.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.running.Store(true)

	active := o.store.ListActive()
	if len(active) > 0 {
		logger.InfoCF("orchestrator", "Contexts still active from previous run", map[string]interface{}{
			"count": len(active),
		})
	}

	for o.running.Load() {
		msg, ok := o.consumer.ConsumeInbound(ctx)
		if !ok {
			return nil
		}
		o.handleMessage(ctx, msg)
	}
	return nil
}

// Stop ends the consume loop after the in-flight request finishes.
func (o *Orchestrator) Stop() {
	o.running.Store(false)
}

// handleMessage parses one inbound payload and runs the state machine.
// Malformed payloads are logged and dropped; they never stop the loop.
func (o *Orchestrator) handleMessage(ctx context.Context, msg bus.InboundMessage) {
	if len(msg.Payload) == 0 {
		logger.WarnCF("orchestrator", "Empty inbound payload, skipping", map[string]interface{}{
			"key": msg.Key,
		})
		return
	}

	var req models.ThoughtRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		logger.ErrorCF("orchestrator", "Unparseable inbound payload, skipping", map[string]interface{}{
			"key":     msg.Key,
			"error":   err.Error(),
			"preview": utils.Truncate(string(msg.Payload), 120),
		})
		return
	}
	if req.RequestID == "" {
		logger.WarnCF("orchestrator", "Inbound request without request_id, skipping", nil)
		return
	}

	logger.InfoCF("orchestrator", fmt.Sprintf("Processing request %s", req.RequestID),
		map[string]interface{}{
			"user_id":     req.UserID,
			"platforms":   req.Platforms,
			"version":     req.Version,
			"retry_count": RetryCount(msg),
		})

	if err := o.processRequest(ctx, &req); err != nil {
		o.handleFatal(ctx, msg, &req, err)
	}
}

// handleFatal checkpoints the failure, then either escalates to a retry lane
// or emits the terminal failure response. One of the two always happens, so
// the caller of the pipeline never sees silence.
func (o *Orchestrator) handleFatal(ctx context.Context, msg bus.InboundMessage, req *models.ThoughtRequest, procErr error) {
	logger.ErrorCF("orchestrator", fmt.Sprintf("Request %s failed", req.RequestID),
		map[string]interface{}{
			"error": procErr.Error(),
		})

	failed := models.StatusFailed
	errText := procErr.Error()
	o.store.ApplyUpdate(req.RequestID, checkpoint.Update{Status: &failed, ErrorMessage: &errText})

	if o.escalator.Escalate(ctx, msg, procErr) {
		return
	}

	version := req.Version
	if actx, ok := o.store.Get(req.RequestID); ok {
		version = actx.CurrentVersion
	}
	o.emit(ctx, &models.AgentResponse{
		RequestID:    req.RequestID,
		UserID:       req.UserID,
		Status:       models.StatusFailed,
		Version:      version,
		ErrorMessage: errText,
		ProcessedAt:  time.Now().UTC(),
	})
}

// processRequest runs steps 1-6 of the state machine. Any error it returns
// is a fatal, request-level failure.
func (o *Orchestrator) processRequest(ctx context.Context, req *models.ThoughtRequest) error {
	actx, ok := o.store.Get(req.RequestID)
	if !ok {
		created, err := o.store.Create(req)
		if err != nil {
			return fmt.Errorf("creating context: %w", err)
		}
		actx = created
	} else if req.AdditionalInstructions != "" && req.Version > actx.CurrentVersion {
		// Refinement round. Anything else (same version, duplicate delivery,
		// changed text with unchanged version) is idempotent redelivery and
		// must not double-increment the version.
		refined, found := o.store.AddRefinement(req.RequestID, req.AdditionalInstructions)
		if found {
			actx = refined
		}
	} else {
		logger.InfoCF("orchestrator", "No version increment, treating as redelivery", map[string]interface{}{
			"request_id":     req.RequestID,
			"version":        req.Version,
			"stored_version": actx.CurrentVersion,
		})
	}

	processing := models.StatusProcessing
	o.store.ApplyUpdate(req.RequestID, checkpoint.Update{Status: &processing})

	hist := history.ToProviderMessages(actx.ConversationHistory)

	switch classifyRequest(req) {
	case kindImageRefinement:
		return o.processImageRefinement(ctx, req, actx)
	default:
		return o.processEnrichment(ctx, req, actx, hist)
	}
}

// processImageRefinement appends a new artifact to each targeted platform's
// media list. Missing platforms are skipped, never fatal, and media already
// generated is never replaced.
func (o *Orchestrator) processImageRefinement(ctx context.Context, req *models.ThoughtRequest, actx *models.AgentContext) error {
	var targets []models.PlatformType
	if req.TargetPlatform != nil {
		targets = []models.PlatformType{*req.TargetPlatform}
	} else {
		for _, c := range actx.EnrichedContents {
			targets = append(targets, c.Platform)
		}
	}

	logger.InfoCF("orchestrator", "Image refinement round", map[string]interface{}{
		"request_id": req.RequestID,
		"targets":    targets,
	})

	for _, platform := range targets {
		content := actx.ContentForPlatform(platform)
		if content == nil {
			logger.WarnCF("orchestrator", "No enriched content for platform, skipping refinement", map[string]interface{}{
				"request_id": req.RequestID,
				"platform":   platform,
			})
			continue
		}

		started := time.Now()
		artifact, err := o.mediaAgent.GenerateForContent(ctx, content, req.ImageRefinementInstructions, req.PlatformConfigs[platform])
		if err != nil {
			logger.ErrorCF("orchestrator", "Image refinement failed for platform", map[string]interface{}{
				"request_id": req.RequestID,
				"platform":   platform,
				"error":      err.Error(),
			})
			continue
		}

		content.Media = append(content.Media, *artifact)
		o.store.ApplyUpdate(req.RequestID, checkpoint.Update{EnrichedContents: &actx.EnrichedContents})
		o.tracker.Record(metrics.PlatformEvent{
			RequestID:  req.RequestID,
			Platform:   platform,
			Version:    actx.CurrentVersion,
			Outcome:    "refined",
			DurationMS: time.Since(started).Milliseconds(),
		})
	}

	completed := models.StatusCompleted
	o.store.ApplyUpdate(req.RequestID, checkpoint.Update{Status: &completed})

	o.emit(ctx, &models.AgentResponse{
		RequestID:        req.RequestID,
		UserID:           req.UserID,
		Status:           completed,
		EnrichedContents: actx.EnrichedContents,
		Version:          actx.CurrentVersion,
		ProcessedAt:      time.Now().UTC(),
	})
	return nil
}

// processEnrichment is the full/text-refinement fan-out: one iteration per
// requested platform, checkpointing and emitting progress after each.
func (o *Orchestrator) processEnrichment(ctx context.Context, req *models.ThoughtRequest, actx *models.AgentContext, hist []providers.Message) error {
	results := actx.EnrichedContents
	var failed []models.PlatformType

	for _, platform := range req.Platforms {
		started := time.Now()

		res, newHist, err := o.enricher.EnrichForPlatform(ctx, req, platform, hist)
		if err != nil {
			// One platform's failure never aborts the others.
			logger.ErrorCF("orchestrator", "Platform enrichment failed", map[string]interface{}{
				"request_id": req.RequestID,
				"platform":   platform,
				"error":      err.Error(),
			})
			failed = append(failed, platform)
			o.tracker.Record(metrics.PlatformEvent{
				RequestID:  req.RequestID,
				Platform:   platform,
				Version:    actx.CurrentVersion,
				Outcome:    "failed",
				DurationMS: time.Since(started).Milliseconds(),
			})
			continue
		}
		hist = newHist
		enriched := res.Content

		// Media is best-effort: a failure degrades to no new artifact.
		artifact, merr := o.mediaAgent.GenerateForContent(ctx, &enriched, "", req.PlatformConfigs[platform])
		if merr != nil {
			logger.WarnCF("orchestrator", "Media generation failed, continuing without media", map[string]interface{}{
				"request_id": req.RequestID,
				"platform":   platform,
				"error":      merr.Error(),
			})
			o.tracker.Record(metrics.PlatformEvent{
				RequestID: req.RequestID,
				Platform:  platform,
				Version:   actx.CurrentVersion,
				Outcome:   "media_skipped",
			})
		}

		// Replace by platform key, carrying prior media forward: artifacts
		// accumulate across refinement rounds, text does not.
		if prev := findContent(results, platform); prev != nil {
			enriched.Media = append(append([]models.GeneratedMedia(nil), prev.Media...), enriched.Media...)
		}
		if artifact != nil {
			enriched.Media = append(enriched.Media, *artifact)
		}
		results = upsertContent(results, enriched)

		// Checkpoint now so a crash mid-fan-out loses at most this platform.
		o.store.ApplyUpdate(req.RequestID, checkpoint.Update{EnrichedContents: &results})

		o.emit(ctx, &models.AgentResponse{
			RequestID:        req.RequestID,
			UserID:           req.UserID,
			Status:           models.StatusInProgress,
			EnrichedContents: []models.EnrichedContent{enriched},
			Version:          actx.CurrentVersion,
			ProcessedAt:      time.Now().UTC(),
		})

		o.tracker.Record(metrics.PlatformEvent{
			RequestID:  req.RequestID,
			Platform:   platform,
			Version:    actx.CurrentVersion,
			Outcome:    "enriched",
			Attempts:   res.Attempts,
			Characters: enriched.CharacterCount,
			DurationMS: time.Since(started).Milliseconds(),
		})
	}

	if len(results) == 0 && len(req.Platforms) > 0 {
		return fmt.Errorf("failed to enrich content for any of the requested platforms")
	}

	turns := history.FromProviderMessages(hist)

	finalStatus := models.StatusCompleted
	errMsg := ""
	if len(failed) > 0 {
		finalStatus = models.StatusPartiallyCompleted
		errMsg = fmt.Sprintf("Failed platforms: %v", failed)
	}
	o.store.ApplyUpdate(req.RequestID, checkpoint.Update{
		ConversationHistory: &turns,
		Status:              &finalStatus,
		ErrorMessage:        &errMsg,
	})

	logger.InfoCF("orchestrator", fmt.Sprintf("Request %s finished", req.RequestID),
		map[string]interface{}{
			"status":    finalStatus,
			"succeeded": len(results),
			"failed":    len(failed),
		})

	o.emit(ctx, &models.AgentResponse{
		RequestID:        req.RequestID,
		UserID:           req.UserID,
		Status:           finalStatus,
		EnrichedContents: results,
		FailedPlatforms:  failed,
		Version:          actx.CurrentVersion,
		ErrorMessage:     errMsg,
		ProcessedAt:      time.Now().UTC(),
	})
	return nil
}

// emit serializes and publishes one response, keyed by request identifier so
// per-request ordering survives a partitioned transport.
func (o *Orchestrator) emit(ctx context.Context, resp *models.AgentResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		logger.ErrorCF("orchestrator", "Failed to marshal response", map[string]interface{}{
			"request_id": resp.RequestID,
			"error":      err.Error(),
		})
		return
	}
	err = o.publisher.PublishOutbound(ctx, bus.OutboundMessage{
		Destination: o.responseTopic,
		Key:         resp.RequestID,
		Payload:     payload,
	})
	if err != nil {
		logger.ErrorCF("orchestrator", "Failed to publish response", map[string]interface{}{
			"request_id": resp.RequestID,
			"status":     resp.Status,
			"error":      err.Error(),
		})
	}
}

func findContent(contents []models.EnrichedContent, platform models.PlatformType) *models.EnrichedContent {
	for i := range contents {
		if contents[i].Platform == platform {
			return &contents[i]
		}
	}
	return nil
}

func upsertContent(contents []models.EnrichedContent, c models.EnrichedContent) []models.EnrichedContent {
	for i := range contents {
		if contents[i].Platform == c.Platform {
			contents[i] = c
			return contents
		}
	}
	return append(contents, c)
}
