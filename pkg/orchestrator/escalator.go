package orchestrator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/carlev/thoughts-to-post-agent/pkg/bus"
	"github.com/carlev/thoughts-to-post-agent/pkg/logger"
)

// retryTiers maps the attempt number (1-based) to a delay-tier suffix. The
// transport maps each suffix to a progressively longer redelivery delay.
var retryTiers = []string{"1m", "5m", "15m"}

// RetryPublisher publishes to a delay-tiered retry lane.
type RetryPublisher interface {
	PublishRetry(ctx context.Context, msg bus.OutboundMessage) error
}

// Escalator re-enqueues fatally failed requests onto delayed retry lanes,
// bounded by a maximum attempt count.
type Escalator struct {
	publisher    RetryPublisher
	requestTopic string
	maxAttempts  int
}

func NewEscalator(publisher RetryPublisher, requestTopic string, maxAttempts int) *Escalator {
	return &Escalator{
		publisher:    publisher,
		requestTopic: requestTopic,
		maxAttempts:  maxAttempts,
	}
}

// RetryCount reads the attempt counter off an inbound message, defaulting
// to zero for first deliveries.
func RetryCount(msg bus.InboundMessage) int {
	raw, ok := msg.Headers[bus.HeaderRetryCount]
	if !ok {
		return 0
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return 0
	}
	return count
}

// Escalate republishes the original payload to the retry lane for the next
// attempt, with the incremented counter and last error attached as headers.
// Returns false when attempts are exhausted (or the republish itself fails);
// the caller must then emit a terminal failure response.
func (e *Escalator) Escalate(ctx context.Context, msg bus.InboundMessage, procErr error) bool {
	count := RetryCount(msg)
	if count >= e.maxAttempts {
		logger.WarnCF("escalator", "Retry attempts exhausted", map[string]interface{}{
			"request_id": msg.Key,
			"attempts":   count,
		})
		return false
	}

	count++
	tier := retryTiers[len(retryTiers)-1]
	if count-1 < len(retryTiers) {
		tier = retryTiers[count-1]
	}

	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[bus.HeaderRetryCount] = strconv.Itoa(count)
	headers[bus.HeaderLastError] = procErr.Error()

	destination := fmt.Sprintf("%s-retry-%s", e.requestTopic, tier)
	err := e.publisher.PublishRetry(ctx, bus.OutboundMessage{
		Destination: destination,
		Key:         msg.Key,
		Payload:     msg.Payload,
		Headers:     headers,
	})
	if err != nil {
		logger.ErrorCF("escalator", "Failed to publish to retry lane", map[string]interface{}{
			"request_id":  msg.Key,
			"destination": destination,
			"error":       err.Error(),
		})
		return false
	}

	logger.InfoCF("escalator", "Request escalated to retry lane", map[string]interface{}{
		"request_id":  msg.Key,
		"destination": destination,
		"retry_count": count,
	})
	return true
}
