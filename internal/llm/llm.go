package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/pestel/config"
	"github.com/mohammad-safakhou/pestel/internal/telemetry"
)

// Provider generates text using a configured LLM backend.
type Provider interface {
	// Generate runs a plain text completion for the given prompt.
	Generate(ctx context.Context, systemPrompt, userPrompt, model string) (string, error)

	// GenerateStructured runs a completion constrained to the given JSON
	// schema and returns the raw JSON payload.
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt, model, schemaName string, schema json.RawMessage) (json.RawMessage, error)

	// CalculateCost calculates the dollar cost for a given token usage.
	CalculateCost(inputTokens, outputTokens int64, model string) float64
}

// NewProvider creates an LLM provider based on configuration.
func NewProvider(cfg config.LLMConfig, tele *telemetry.Telemetry) (Provider, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no LLM providers configured")
	}

	for name, provider := range cfg.Providers {
		switch provider.Type {
		case "openai":
			return NewOpenAIProvider(provider, tele), nil
		default:
			return nil, fmt.Errorf("unsupported LLM provider type %q for %q", provider.Type, name)
		}
	}

	return nil, fmt.Errorf("no valid LLM providers found")
}

// StripFences removes a Markdown code fence wrapper from a model response.
// Models occasionally wrap JSON output in ```json fences even when asked not to.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
