package checkpoint

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/carlev/thoughts-to-post-agent/pkg/logger"
	"github.com/carlev/thoughts-to-post-agent/pkg/models"
)

// Update names the context fields a caller may change. Nil pointers leave
// the field untouched.
type Update struct {
	EnrichedContents    *[]models.EnrichedContent
	ConversationHistory *[]models.ConversationTurn
	Status              *models.RequestStatus
	ErrorMessage        *string
}

// Store tracks one AgentContext per request identifier, mirroring every
// mutation to the durability backend as a full-context snapshot. It is
// accessed from the single orchestrator goroutine; the lock keeps the
// interface safe for a future concurrent caller without changing it.
type Store struct {
	mu       sync.RWMutex
	contexts map[string]*models.AgentContext
	backend  Backend
}

// NewStore loads all persisted snapshots before returning, so recovery
// completes before the orchestrator starts consuming. A snapshot that fails
// to parse is logged and skipped, never fatal.
func NewStore(backend Backend) (*Store, error) {
	s := &Store{
		contexts: make(map[string]*models.AgentContext),
		backend:  backend,
	}

	records, err := backend.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("loading checkpoints: %w", err)
	}
	for id, data := range records {
		var ctx models.AgentContext
		if err := json.Unmarshal(data, &ctx); err != nil {
			logger.WarnCF("checkpoint", "Skipping unparseable snapshot", map[string]interface{}{
				"request_id": id,
				"error":      err.Error(),
			})
			continue
		}
		for i := range ctx.EnrichedContents {
			ctx.EnrichedContents[i].Normalize()
		}
		s.contexts[ctx.RequestID] = &ctx
	}
	if len(s.contexts) > 0 {
		logger.InfoCF("checkpoint", "Restored persisted contexts", map[string]interface{}{
			"count": len(s.contexts),
		})
	}
	return s, nil
}

// Create builds a new context from a request. It fails if a context already
// exists for the identifier; callers must Get first.
func (s *Store) Create(req *models.ThoughtRequest) (*models.AgentContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contexts[req.RequestID]; exists {
		return nil, fmt.Errorf("context already exists for request %s", req.RequestID)
	}

	now := time.Now().UTC()
	ctx := &models.AgentContext{
		RequestID:       req.RequestID,
		UserID:          req.UserID,
		OriginalThought: req.OriginalThought,
		Platforms:       req.Platforms,
		CurrentVersion:  req.Version,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if ctx.CurrentVersion == 0 {
		ctx.CurrentVersion = 1
	}

	s.contexts[req.RequestID] = ctx
	s.persist(ctx)

	logger.InfoCF("checkpoint", "Created context", map[string]interface{}{
		"request_id": req.RequestID,
		"platforms":  req.Platforms,
	})
	return ctx.Clone(), nil
}

// Get returns a copy of the context for the identifier, or false when absent.
func (s *Store) Get(id string) (*models.AgentContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctx, ok := s.contexts[id]
	if !ok {
		return nil, false
	}
	return ctx.Clone(), true
}

// ApplyUpdate mutates the named fields and snapshots the result. It
// fails-soft: returns false without error when the identifier is unknown.
func (s *Store) ApplyUpdate(id string, u Update) (*models.AgentContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.contexts[id]
	if !ok {
		logger.WarnCF("checkpoint", "Update for unknown context", map[string]interface{}{
			"request_id": id,
		})
		return nil, false
	}

	if u.EnrichedContents != nil {
		ctx.EnrichedContents = *u.EnrichedContents
	}
	if u.ConversationHistory != nil {
		ctx.ConversationHistory = *u.ConversationHistory
	}
	if u.Status != nil {
		ctx.Status = *u.Status
	}
	if u.ErrorMessage != nil {
		ctx.ErrorMessage = *u.ErrorMessage
	}
	ctx.UpdatedAt = time.Now().UTC()
	s.persist(ctx)

	return ctx.Clone(), true
}

// AddRefinement appends the instruction, increments the version, and stamps
// the update time as one logical step. Fails-soft on unknown id.
func (s *Store) AddRefinement(id, instruction string) (*models.AgentContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.contexts[id]
	if !ok {
		logger.WarnCF("checkpoint", "Refinement for unknown context", map[string]interface{}{
			"request_id": id,
		})
		return nil, false
	}

	ctx.RefinementRequests = append(ctx.RefinementRequests, instruction)
	ctx.CurrentVersion++
	ctx.UpdatedAt = time.Now().UTC()
	s.persist(ctx)

	logger.InfoCF("checkpoint", "Added refinement", map[string]interface{}{
		"request_id": id,
		"version":    ctx.CurrentVersion,
	})
	return ctx.Clone(), true
}

// Delete removes a context and its snapshot. Returns false when absent.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contexts[id]; !ok {
		return false
	}
	delete(s.contexts, id)
	if err := s.backend.Delete(id); err != nil {
		logger.WarnCF("checkpoint", "Failed to delete snapshot", map[string]interface{}{
			"request_id": id,
			"error":      err.Error(),
		})
	}
	return true
}

// ListActive returns every context not in a terminal status.
func (s *Store) ListActive() []*models.AgentContext {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.AgentContext
	for _, ctx := range s.contexts {
		if !ctx.Status.IsTerminal() {
			out = append(out, ctx.Clone())
		}
	}
	return out
}

// persist snapshots the full context. A write failure is logged, not fatal:
// the in-memory state stays authoritative for this process lifetime.
// Callers hold s.mu.
func (s *Store) persist(ctx *models.AgentContext) {
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		logger.WarnCF("checkpoint", "Failed to marshal context", map[string]interface{}{
			"request_id": ctx.RequestID,
			"error":      err.Error(),
		})
		return
	}
	if err := s.backend.Write(ctx.RequestID, data); err != nil {
		logger.WarnCF("checkpoint", "Failed to persist context", map[string]interface{}{
			"request_id": ctx.RequestID,
			"error":      err.Error(),
		})
	}
}
