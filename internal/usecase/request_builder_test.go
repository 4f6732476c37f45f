package usecase

import (
	"errors"
	"testing"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/models"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/config"
)

func testBuilder() *RequestBuilder {
	return NewRequestBuilder([]config.Provider{
		{Provider: "openai", Model: "gpt-4o"},
		{Provider: "anthropic", Model: "claude-3"},
		{Provider: "google", Model: "gemini-pro"},
	})
}

func TestBuildTickerNormalized(t *testing.T) {
	b := testBuilder()
	req, err := b.Build(RawRunInput{
		Mode:      ModeTicker,
		Ticker:    "  aapl ",
		Providers: []models.ProviderRef{{Provider: "openai", Model: "gpt-4o"}},
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if req.Ticker != "AAPL" {
		t.Fatalf("expected AAPL, got %q", req.Ticker)
	}
	if req.Prompt != "" {
		t.Fatalf("prompt must be empty in ticker mode")
	}
	if req.Template != models.TemplateCustom {
		t.Fatalf("expected default template, got %q", req.Template)
	}
}

func TestBuildPromptPreservesCase(t *testing.T) {
	b := testBuilder()
	req, err := b.Build(RawRunInput{
		Mode:      ModePrompt,
		Prompt:    "  Is NVDA overvalued at current levels?  ",
		Providers: []models.ProviderRef{{Provider: "openai", Model: "gpt-4o"}},
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if req.Prompt != "Is NVDA overvalued at current levels?" {
		t.Fatalf("unexpected prompt %q", req.Prompt)
	}
}

func TestBuildEmptyInputs(t *testing.T) {
	b := testBuilder()
	providers := []models.ProviderRef{{Provider: "openai", Model: "gpt-4o"}}

	if _, err := b.Build(RawRunInput{Mode: ModePrompt, Prompt: "   ", Providers: providers}); err == nil {
		t.Fatalf("expected error for blank prompt")
	}
	if _, err := b.Build(RawRunInput{Mode: ModeTicker, Ticker: "\t", Providers: providers}); err == nil {
		t.Fatalf("expected error for blank ticker")
	}
	if _, err := b.Build(RawRunInput{Mode: "chart", Ticker: "AAPL", Providers: providers}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestBuildTickerTooLong(t *testing.T) {
	b := testBuilder()
	_, err := b.Build(RawRunInput{
		Mode:      ModeTicker,
		Ticker:    "ABCDEFGHIJK",
		Providers: []models.ProviderRef{{Provider: "openai", Model: "gpt-4o"}},
	})
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("expected BuildError, got %v", err)
	}
	if be.Field != "ticker" {
		t.Fatalf("expected ticker field, got %q", be.Field)
	}
}

func TestBuildRejectsUnknownProvider(t *testing.T) {
	b := testBuilder()
	_, err := b.Build(RawRunInput{
		Mode:   ModeTicker,
		Ticker: "AAPL",
		Providers: []models.ProviderRef{
			{Provider: "openai", Model: "gpt-4o"},
			{Provider: "openai", Model: "gpt-3.5"},
		},
	})
	var be *BuildError
	if !errors.As(err, &be) || be.Field != "providers" {
		t.Fatalf("expected providers BuildError, got %v", err)
	}
}

func TestBuildRequiresProviders(t *testing.T) {
	b := testBuilder()
	_, err := b.Build(RawRunInput{Mode: ModeTicker, Ticker: "AAPL"})
	var be *BuildError
	if !errors.As(err, &be) || be.Field != "providers" {
		t.Fatalf("expected providers BuildError, got %v", err)
	}
}

func TestBuildDeduplicatesProviders(t *testing.T) {
	b := testBuilder()
	req, err := b.Build(RawRunInput{
		Mode:   ModeTicker,
		Ticker: "AAPL",
		Providers: []models.ProviderRef{
			{Provider: "openai", Model: "gpt-4o"},
			{Provider: "anthropic", Model: "claude-3"},
			{Provider: "openai", Model: "gpt-4o"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(req.Providers) != 2 {
		t.Fatalf("expected duplicates collapsed, got %v", req.Providers)
	}
}

func TestBuildUnknownTemplate(t *testing.T) {
	b := testBuilder()
	_, err := b.Build(RawRunInput{
		Mode:      ModeTicker,
		Ticker:    "AAPL",
		Providers: []models.ProviderRef{{Provider: "openai", Model: "gpt-4o"}},
		Template:  "momentum",
	})
	var be *BuildError
	if !errors.As(err, &be) || be.Field != "template" {
		t.Fatalf("expected template BuildError, got %v", err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := testBuilder()
	in := RawRunInput{
		Mode:      ModeTicker,
		Ticker:    " msft",
		Providers: []models.ProviderRef{{Provider: "google", Model: "gemini-pro"}},
		Template:  string(models.TemplateSentiment),
	}
	first, err := b.Build(in)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	second, err := b.Build(in)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if first.Ticker != second.Ticker || first.Template != second.Template || len(first.Providers) != len(second.Providers) {
		t.Fatalf("builds differ: %+v vs %+v", first, second)
	}
}
