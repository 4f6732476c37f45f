package usecase

import (
	"fmt"
	"strings"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/models"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/config"
)

// Input modes accepted by the builder.
const (
	ModePrompt = "prompt"
	ModeTicker = "ticker"
)

// BuildError is a field-level validation failure. It is recoverable
// locally and never reaches the network.
type BuildError struct {
	Field   string
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RawRunInput is unvalidated user input for one comparison run.
type RawRunInput struct {
	Mode      string
	Prompt    string
	Ticker    string
	Providers []models.ProviderRef
	Template  string
}

// RequestBuilder validates and normalizes raw input into a RunRequest.
// Pure and synchronous: the same input always yields the same output.
type RequestBuilder struct {
	catalog map[models.ProviderRef]struct{}
}

// NewRequestBuilder creates a builder bound to the configured provider catalog.
func NewRequestBuilder(providers []config.Provider) *RequestBuilder {
	catalog := make(map[models.ProviderRef]struct{}, len(providers))
	for _, p := range providers {
		catalog[models.ProviderRef{Provider: p.Provider, Model: p.Model}] = struct{}{}
	}
	return &RequestBuilder{catalog: catalog}
}

// Catalog returns the known provider pairs.
func (b *RequestBuilder) Catalog() []models.ProviderRef {
	out := make([]models.ProviderRef, 0, len(b.catalog))
	for ref := range b.catalog {
		out = append(out, ref)
	}
	return out
}

// Build turns raw input into a normalized RunRequest or a *BuildError.
// Prompt input is trimmed only (case-preserving); ticker input is trimmed
// and upper-cased. Prompt and ticker are mutually exclusive by mode.
func (b *RequestBuilder) Build(in RawRunInput) (models.RunRequest, error) {
	var req models.RunRequest

	switch in.Mode {
	case ModePrompt:
		prompt := strings.TrimSpace(in.Prompt)
		if prompt == "" {
			return req, &BuildError{Field: "prompt", Message: "prompt cannot be empty"}
		}
		req.Prompt = prompt
	case ModeTicker:
		ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
		if ticker == "" {
			return req, &BuildError{Field: "ticker", Message: "ticker cannot be empty"}
		}
		if len(ticker) > 10 {
			return req, &BuildError{Field: "ticker", Message: "ticker must be at most 10 characters"}
		}
		req.Ticker = ticker
	default:
		return req, &BuildError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", in.Mode)}
	}

	if len(in.Providers) == 0 {
		return req, &BuildError{Field: "providers", Message: "at least one provider must be selected"}
	}
	seen := make(map[models.ProviderRef]struct{}, len(in.Providers))
	for _, ref := range in.Providers {
		if _, ok := b.catalog[ref]; !ok {
			return req, &BuildError{
				Field:   "providers",
				Message: fmt.Sprintf("unknown provider %s/%s", ref.Provider, ref.Model),
			}
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		req.Providers = append(req.Providers, ref)
	}

	tmpl := models.Template(in.Template)
	if in.Template == "" {
		tmpl = models.TemplateCustom
	}
	if !tmpl.Valid() {
		return req, &BuildError{Field: "template", Message: fmt.Sprintf("unknown template %q", in.Template)}
	}
	req.Template = tmpl

	return req, nil
}
