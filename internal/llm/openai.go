package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/mohammad-safakhou/pestel/config"
	"github.com/mohammad-safakhou/pestel/internal/telemetry"
)

// OpenAIProvider implements Provider against the OpenAI chat completions API.
type OpenAIProvider struct {
	config    config.LLMProvider
	models    map[string]config.LLMModel
	client    *http.Client
	limiter   *rate.Limiter
	telemetry *telemetry.Telemetry
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg config.LLMProvider, tele *telemetry.Telemetry) *OpenAIProvider {
	var limiter *rate.Limiter
	if cfg.RPM > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RPM)/60.0), 1)
	}
	return &OpenAIProvider{
		config:    cfg,
		models:    cfg.Models,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   limiter,
		telemetry: tele,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate generates text using OpenAI.
func (p *OpenAIProvider) Generate(ctx context.Context, systemPrompt, userPrompt, model string) (string, error) {
	return p.send(ctx, systemPrompt, userPrompt, model, nil)
}

// GenerateStructured generates JSON output constrained by the given schema.
func (p *OpenAIProvider) GenerateStructured(ctx context.Context, systemPrompt, userPrompt, model, schemaName string, schema json.RawMessage) (json.RawMessage, error) {
	format := &responseFormat{
		Type:       "json_schema",
		JSONSchema: &jsonSchemaFormat{Name: schemaName, Strict: true, Schema: schema},
	}
	out, err := p.send(ctx, systemPrompt, userPrompt, model, format)
	if err != nil {
		return nil, err
	}
	raw := json.RawMessage(StripFences(out))
	if !json.Valid(raw) {
		return nil, fmt.Errorf("model %s returned invalid JSON for schema %s", model, schemaName)
	}
	return raw, nil
}

func (p *OpenAIProvider) send(ctx context.Context, systemPrompt, userPrompt, model string, format *responseFormat) (string, error) {
	apiKey := p.config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	m, ok := p.models[model]
	if !ok {
		return "", fmt.Errorf("model %s not configured", model)
	}
	apiModel := m.APIName
	if apiModel == "" {
		apiModel = m.Name
	}

	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	body, err := json.Marshal(chatRequest{
		Model:          apiModel,
		Messages:       messages,
		Temperature:    m.Temperature,
		MaxTokens:      m.MaxTokens,
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	baseURL := p.config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	retries := p.config.MaxRetries
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		content, inTok, outTok, err := p.doRequest(ctx, baseURL, apiKey, body)
		if p.telemetry != nil {
			p.telemetry.RecordLLMUsage(model, inTok, outTok, p.CalculateCost(inTok, outTok, model), err)
		}
		if err == nil {
			return content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt+1) * time.Second):
		}
	}
	return "", fmt.Errorf("OpenAI request failed after %d attempts: %w", retries+1, lastErr)
}

func (p *OpenAIProvider) doRequest(ctx context.Context, baseURL, apiKey string, body []byte) (string, int64, int64, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", 0, 0, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, 0, fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, 0, fmt.Errorf("OpenAI status %d: %s", resp.StatusCode, string(raw))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, 0, fmt.Errorf("decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", int64(out.Usage.PromptTokens), int64(out.Usage.CompletionTokens), fmt.Errorf("no choices in response")
	}
	return out.Choices[0].Message.Content, int64(out.Usage.PromptTokens), int64(out.Usage.CompletionTokens), nil
}

// CalculateCost calculates the cost for a given number of tokens.
func (p *OpenAIProvider) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	m, ok := p.models[model]
	if !ok {
		return 0.0
	}
	inputCost := float64(inputTokens) / 1000.0 * m.CostPer1K
	outputCost := float64(outputTokens) / 1000.0 * m.CostPer1KOutput
	return inputCost + outputCost
}
