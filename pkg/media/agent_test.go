package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/carlev/thoughts-to-post-agent/pkg/models"
	"github.com/carlev/thoughts-to-post-agent/pkg/providers"
)

type fakeProvider struct {
	generate func(system, user string) (string, error)
}

func (f *fakeProvider) Generate(ctx context.Context, messages []providers.Message, model string, opts providers.Options) (string, error) {
	return f.generate(messages[0].Content, messages[1].Content)
}

func (f *fakeProvider) GetDefaultModel() string { return "fake" }

type capturingGenerator struct {
	prompt string
	params models.MediaParams
}

func (g *capturingGenerator) Generate(ctx context.Context, prompt string, params models.MediaParams) (*models.GeneratedMedia, error) {
	g.prompt = prompt
	g.params = params
	return &models.GeneratedMedia{ID: "artifact", PromptUsed: prompt}, nil
}

func testContent() *models.EnrichedContent {
	c := models.NewEnrichedContent(models.PlatformLinkedIn, "Teams ship faster with trust.", nil)
	return &c
}

func TestGenerateForContentUsesDerivedPrompt(t *testing.T) {
	provider := &fakeProvider{generate: func(system, user string) (string, error) {
		if !strings.Contains(system, "image generation prompts") {
			t.Errorf("Expected image prompt system, got %q", system)
		}
		if !strings.Contains(user, "Teams ship faster with trust.") {
			t.Error("Expected post body in prompt derivation input")
		}
		return "a minimalist office scene, soft light", nil
	}}
	generator := &capturingGenerator{}
	agent := NewAgent(provider, generator, "fake")

	artifact, err := agent.GenerateForContent(context.Background(), testContent(), "", models.PlatformConfig{})
	if err != nil {
		t.Fatalf("GenerateForContent failed: %v", err)
	}
	if artifact == nil {
		t.Fatal("Expected an artifact")
	}
	if generator.prompt != "a minimalist office scene, soft light" {
		t.Errorf("Expected derived prompt passed to generator, got %q", generator.prompt)
	}
}

func TestVideoKindSwitchesSystemPrompt(t *testing.T) {
	var sawSystem string
	provider := &fakeProvider{generate: func(system, user string) (string, error) {
		sawSystem = system
		return "slow pan over a city at dusk", nil
	}}
	agent := NewAgent(provider, &capturingGenerator{}, "fake")

	cfg := models.PlatformConfig{MediaParams: models.MediaParams{Kind: "video"}}
	if _, err := agent.GenerateForContent(context.Background(), testContent(), "", cfg); err != nil {
		t.Fatalf("GenerateForContent failed: %v", err)
	}
	if !strings.Contains(sawSystem, "video generation prompts") {
		t.Errorf("Expected video prompt system, got %q", sawSystem)
	}
}

func TestRefinementAndBasePromptAreThreaded(t *testing.T) {
	var sawUser string
	provider := &fakeProvider{generate: func(system, user string) (string, error) {
		sawUser = user
		return "refined prompt", nil
	}}
	agent := NewAgent(provider, &capturingGenerator{}, "fake")

	cfg := models.PlatformConfig{MediaPrompt: "blue color palette"}
	_, err := agent.GenerateForContent(context.Background(), testContent(), "add warmer tones", cfg)
	if err != nil {
		t.Fatalf("GenerateForContent failed: %v", err)
	}
	if !strings.Contains(sawUser, "blue color palette") {
		t.Error("Expected base media prompt in derivation input")
	}
	if !strings.Contains(sawUser, "add warmer tones") {
		t.Error("Expected refinement instruction in derivation input")
	}
}

func TestPromptDerivationFailureDegrades(t *testing.T) {
	provider := &fakeProvider{generate: func(system, user string) (string, error) {
		return "", errors.New("provider down")
	}}
	generator := &capturingGenerator{}
	agent := NewAgent(provider, generator, "fake")

	artifact, err := agent.GenerateForContent(context.Background(), testContent(), "", models.PlatformConfig{})
	if err != nil {
		t.Fatalf("Expected fallback prompt, got error: %v", err)
	}
	if artifact == nil {
		t.Fatal("Expected an artifact from the fallback prompt")
	}
	if !strings.Contains(generator.prompt, "Professional illustration representing") {
		t.Errorf("Expected fallback prompt, got %q", generator.prompt)
	}
}

func TestFillDefaults(t *testing.T) {
	p := fillDefaults(models.MediaParams{})
	if p.Width != 1024 || p.Height != 1024 || p.Steps != 30 {
		t.Errorf("Unexpected defaults: %+v", p)
	}

	custom := fillDefaults(models.MediaParams{Width: 512, Height: 768, Steps: 20})
	if custom.Width != 512 || custom.Height != 768 || custom.Steps != 20 {
		t.Errorf("Expected explicit values preserved, got %+v", custom)
	}
}
