package models

import (
	"testing"
)

func TestDedupeHashtags(t *testing.T) {
	got := DedupeHashtags([]string{"Go", "go", "AI", "ai", "Go", "Cloud"})
	want := []string{"Go", "AI", "Cloud"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestNewEnrichedContent(t *testing.T) {
	c := NewEnrichedContent(PlatformLinkedIn, "hello world", []string{"Tech", "tech"})
	if c.CharacterCount != 11 {
		t.Errorf("Expected character count 11, got %d", c.CharacterCount)
	}
	if len(c.Hashtags) != 1 {
		t.Errorf("Expected deduplicated hashtags, got %v", c.Hashtags)
	}

	// Counts are characters, not bytes: emoji and accents are one each.
	emoji := NewEnrichedContent(PlatformInstagram, "Launch day 🚀 — let's go", nil)
	if emoji.CharacterCount != 23 {
		t.Errorf("Expected 23 characters for emoji body, got %d", emoji.CharacterCount)
	}
	if emoji.CharacterCount == len(emoji.Body) {
		t.Error("Expected character count to differ from byte length for multibyte body")
	}
}

func TestNormalizeRederivesCount(t *testing.T) {
	c := EnrichedContent{
		Platform:       PlatformFacebook,
		Body:           "café ☕",
		CharacterCount: 9999,
		Hashtags:       []string{"A", "a"},
	}
	c.Normalize()
	if c.CharacterCount != 6 {
		t.Errorf("Expected count re-derived as 6 characters, got %d", c.CharacterCount)
	}
	if len(c.Hashtags) != 1 {
		t.Errorf("Expected hashtags deduplicated, got %v", c.Hashtags)
	}
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := []RequestStatus{StatusCompleted, StatusPartiallyCompleted, StatusFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("Expected %s to be terminal", s)
		}
	}
	nonTerminal := []RequestStatus{StatusPending, StatusProcessing, StatusInProgress}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("Expected %s to be non-terminal", s)
		}
	}
}

func TestAgentContextClone(t *testing.T) {
	ctx := &AgentContext{
		RequestID: "req-1",
		Platforms: []PlatformType{PlatformLinkedIn},
		EnrichedContents: []EnrichedContent{
			{
				Platform: PlatformLinkedIn,
				Body:     "body",
				Hashtags: []string{"Tech"},
				Media:    []GeneratedMedia{{ID: "m1"}},
			},
		},
		ConversationHistory: []ConversationTurn{{Role: "human", Content: "hi"}},
		RefinementRequests:  []string{"round two"},
	}

	clone := ctx.Clone()
	clone.Platforms[0] = PlatformInstagram
	clone.EnrichedContents[0].Body = "mutated"
	clone.EnrichedContents[0].Hashtags[0] = "Mutated"
	clone.EnrichedContents[0].Media[0].ID = "mutated"
	clone.ConversationHistory[0].Content = "mutated"
	clone.RefinementRequests[0] = "mutated"

	if ctx.Platforms[0] != PlatformLinkedIn {
		t.Error("Expected platforms isolated from clone mutation")
	}
	if ctx.EnrichedContents[0].Body != "body" {
		t.Error("Expected contents isolated from clone mutation")
	}
	if ctx.EnrichedContents[0].Hashtags[0] != "Tech" {
		t.Error("Expected hashtags isolated from clone mutation")
	}
	if ctx.EnrichedContents[0].Media[0].ID != "m1" {
		t.Error("Expected media isolated from clone mutation")
	}
	if ctx.ConversationHistory[0].Content != "hi" {
		t.Error("Expected history isolated from clone mutation")
	}
	if ctx.RefinementRequests[0] != "round two" {
		t.Error("Expected refinements isolated from clone mutation")
	}
}

func TestContentForPlatform(t *testing.T) {
	ctx := &AgentContext{
		EnrichedContents: []EnrichedContent{
			{Platform: PlatformLinkedIn, Body: "a"},
			{Platform: PlatformFacebook, Body: "b"},
		},
	}

	if c := ctx.ContentForPlatform(PlatformFacebook); c == nil || c.Body != "b" {
		t.Error("Expected facebook content")
	}
	if c := ctx.ContentForPlatform(PlatformInstagram); c != nil {
		t.Error("Expected nil for missing platform")
	}

	// The pointer aims at the backing array, so in-place edits stick.
	ctx.ContentForPlatform(PlatformLinkedIn).Body = "updated"
	if ctx.EnrichedContents[0].Body != "updated" {
		t.Error("Expected in-place mutation through the returned pointer")
	}
}
