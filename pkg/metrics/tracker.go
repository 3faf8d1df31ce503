package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/carlev/thoughts-to-post-agent/pkg/models"
)

// PlatformEvent records the outcome of processing one platform for one
// request round.
type PlatformEvent struct {
	Timestamp  string              `json:"ts"`
	RequestID  string              `json:"request_id"`
	Platform   models.PlatformType `json:"platform"`
	Version    int                 `json:"version"`
	Outcome    string              `json:"outcome"` // "enriched", "failed", "media_skipped", "refined"
	Attempts   int                 `json:"attempts,omitempty"`
	Characters int                 `json:"chars,omitempty"`
	DurationMS int64               `json:"duration_ms"`
}

// Tracker appends platform events to a JSONL file.
type Tracker struct {
	filePath string
	mu       sync.Mutex
}

// NewTracker creates a tracker that writes to dir/platform_events.jsonl.
func NewTracker(dir string) *Tracker {
	os.MkdirAll(dir, 0755)
	return &Tracker{
		filePath: filepath.Join(dir, "platform_events.jsonl"),
	}
}

// Record appends one event. Failures are silent: metrics never interfere
// with request processing.
func (t *Tracker) Record(event PlatformEvent) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	f.Write(data)
	f.Write([]byte("\n"))
}
