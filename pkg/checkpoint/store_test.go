package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/carlev/thoughts-to-post-agent/pkg/models"
)

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	store, err := NewStore(backend)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return store
}

func testRequest(id string) *models.ThoughtRequest {
	return &models.ThoughtRequest{
		RequestID:       id,
		UserID:          "user-1",
		OriginalThought: "a thought",
		Platforms:       []models.PlatformType{models.PlatformLinkedIn},
	}
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t, t.TempDir())

	ctx, err := store.Create(testRequest("req-1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ctx.Status != models.StatusPending {
		t.Errorf("Expected status pending, got %s", ctx.Status)
	}
	if ctx.CurrentVersion != 1 {
		t.Errorf("Expected version to default to 1, got %d", ctx.CurrentVersion)
	}

	got, ok := store.Get("req-1")
	if !ok {
		t.Fatal("Expected context to exist")
	}
	if got.OriginalThought != "a thought" {
		t.Errorf("Expected original thought preserved, got %q", got.OriginalThought)
	}

	if _, err := store.Create(testRequest("req-1")); err == nil {
		t.Error("Expected duplicate create to fail")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	store.Create(testRequest("req-1"))

	first, _ := store.Get("req-1")
	first.OriginalThought = "mutated"
	first.Platforms[0] = models.PlatformInstagram

	second, _ := store.Get("req-1")
	if second.OriginalThought != "a thought" {
		t.Error("Expected store state to be isolated from caller mutation")
	}
	if second.Platforms[0] != models.PlatformLinkedIn {
		t.Error("Expected platforms slice to be deep-copied")
	}
}

func TestApplyUpdate(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	store.Create(testRequest("req-1"))

	contents := []models.EnrichedContent{
		models.NewEnrichedContent(models.PlatformLinkedIn, "body", []string{"Tech"}),
	}
	status := models.StatusProcessing
	updated, ok := store.ApplyUpdate("req-1", Update{
		EnrichedContents: &contents,
		Status:           &status,
	})
	if !ok {
		t.Fatal("Expected update to apply")
	}
	if updated.Status != models.StatusProcessing {
		t.Errorf("Expected status processing, got %s", updated.Status)
	}
	if len(updated.EnrichedContents) != 1 {
		t.Errorf("Expected 1 content, got %d", len(updated.EnrichedContents))
	}

	// Untouched fields stay put on a partial update.
	errMsg := "something broke"
	updated, _ = store.ApplyUpdate("req-1", Update{ErrorMessage: &errMsg})
	if updated.Status != models.StatusProcessing {
		t.Errorf("Expected status unchanged, got %s", updated.Status)
	}
	if len(updated.EnrichedContents) != 1 {
		t.Errorf("Expected contents unchanged, got %d entries", len(updated.EnrichedContents))
	}

	if _, ok := store.ApplyUpdate("unknown", Update{Status: &status}); ok {
		t.Error("Expected update for unknown id to report false")
	}
}

func TestAddRefinement(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	store.Create(testRequest("req-1"))

	ctx, ok := store.AddRefinement("req-1", "make it shorter")
	if !ok {
		t.Fatal("Expected refinement to apply")
	}
	if ctx.CurrentVersion != 2 {
		t.Errorf("Expected version 2, got %d", ctx.CurrentVersion)
	}
	if len(ctx.RefinementRequests) != 1 || ctx.RefinementRequests[0] != "make it shorter" {
		t.Errorf("Expected refinement recorded, got %v", ctx.RefinementRequests)
	}

	if _, ok := store.AddRefinement("unknown", "x"); ok {
		t.Error("Expected refinement for unknown id to report false")
	}
}

func TestReloadAfterRestart(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir)

	store.Create(testRequest("req-1"))
	contents := []models.EnrichedContent{
		models.NewEnrichedContent(models.PlatformLinkedIn, "hello 🌍 world", []string{"Tech", "tech", "AI"}),
	}
	contents[0].Media = []models.GeneratedMedia{{ID: "m1", Format: "png"}}
	status := models.StatusProcessing
	store.ApplyUpdate("req-1", Update{EnrichedContents: &contents, Status: &status})
	store.AddRefinement("req-1", "round two")

	reloaded := newTestStore(t, dir)
	ctx, ok := reloaded.Get("req-1")
	if !ok {
		t.Fatal("Expected context to survive restart")
	}
	if ctx.CurrentVersion != 2 {
		t.Errorf("Expected version 2 after reload, got %d", ctx.CurrentVersion)
	}
	if ctx.Status != models.StatusProcessing {
		t.Errorf("Expected status processing after reload, got %s", ctx.Status)
	}
	content := ctx.ContentForPlatform(models.PlatformLinkedIn)
	if content == nil {
		t.Fatal("Expected linkedin content after reload")
	}
	// Character count, not byte count, survives the reload normalization.
	if content.CharacterCount != 13 {
		t.Errorf("Expected character count 13 re-derived from body, got %d", content.CharacterCount)
	}
	if len(content.Hashtags) != 2 {
		t.Errorf("Expected hashtags deduplicated on load, got %v", content.Hashtags)
	}
	if len(content.Media) != 1 {
		t.Errorf("Expected media preserved, got %d artifacts", len(content.Media))
	}
}

func TestCorruptSnapshotIsSkipped(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir)
	store.Create(testRequest("req-good"))

	if err := os.WriteFile(filepath.Join(dir, "req-bad.json"), []byte("{corrupt"), 0644); err != nil {
		t.Fatalf("writing corrupt snapshot: %v", err)
	}

	reloaded := newTestStore(t, dir)
	if _, ok := reloaded.Get("req-good"); !ok {
		t.Error("Expected intact snapshot to load")
	}
	if _, ok := reloaded.Get("req-bad"); ok {
		t.Error("Expected corrupt snapshot to be skipped")
	}
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir)
	store.Create(testRequest("req-1"))

	if !store.Delete("req-1") {
		t.Error("Expected delete to succeed")
	}
	if _, ok := store.Get("req-1"); ok {
		t.Error("Expected context gone after delete")
	}
	if store.Delete("req-1") {
		t.Error("Expected second delete to report false")
	}

	reloaded := newTestStore(t, dir)
	if _, ok := reloaded.Get("req-1"); ok {
		t.Error("Expected snapshot gone after delete")
	}
}

func TestListActive(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	store.Create(testRequest("req-active"))
	store.Create(testRequest("req-done"))

	done := models.StatusCompleted
	store.ApplyUpdate("req-done", Update{Status: &done})

	active := store.ListActive()
	if len(active) != 1 {
		t.Fatalf("Expected 1 active context, got %d", len(active))
	}
	if active[0].RequestID != "req-active" {
		t.Errorf("Expected req-active, got %s", active[0].RequestID)
	}
}
