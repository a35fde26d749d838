package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohammad-safakhou/pestel/config"
)

func testProvider(t *testing.T, handler http.HandlerFunc) (*OpenAIProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.LLMProvider{
		Type:    "openai",
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Models: map[string]config.LLMModel{
			"small": {Name: "gpt-4o-mini", MaxTokens: 512, CostPer1K: 0.00015, CostPer1KOutput: 0.0006},
		},
	}
	return NewOpenAIProvider(cfg, nil), srv
}

func TestGenerateSendsMessagesAndReturnsContent(t *testing.T) {
	var got chatRequest
	provider, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello"}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5},
		})
	})

	out, err := provider.Generate(context.Background(), "sys", "user question", "small")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "hello" {
		t.Errorf("content = %q, want hello", out)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("api model = %q, want gpt-4o-mini", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}

func TestGenerateStructuredSetsSchemaAndStripsFences(t *testing.T) {
	var got chatRequest
	provider, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "```json\n{\"ok\":true}\n```"}},
			},
		})
	})

	schema := json.RawMessage(`{"type":"object"}`)
	raw, err := provider.GenerateStructured(context.Background(), "", "prompt", "small", "result", schema)
	if err != nil {
		t.Fatalf("GenerateStructured: %v", err)
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || !parsed.OK {
		t.Errorf("payload = %s, want {\"ok\":true}", raw)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_schema" {
		t.Fatalf("response_format not set: %+v", got.ResponseFormat)
	}
	if got.ResponseFormat.JSONSchema.Name != "result" {
		t.Errorf("schema name = %q, want result", got.ResponseFormat.JSONSchema.Name)
	}
}

func TestGenerateStructuredRejectsInvalidJSON(t *testing.T) {
	provider, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "not json at all"}},
			},
		})
	})

	_, err := provider.GenerateStructured(context.Background(), "", "prompt", "small", "result", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected error for non-JSON content")
	}
}

func TestGenerateUnknownModel(t *testing.T) {
	provider, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent for unknown model")
	})
	if _, err := provider.Generate(context.Background(), "", "p", "missing"); err == nil {
		t.Fatal("expected error for unconfigured model")
	}
}

func TestCalculateCost(t *testing.T) {
	provider, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {})
	got := provider.CalculateCost(1000, 1000, "small")
	want := 0.00015 + 0.0006
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("cost = %v, want %v", got, want)
	}
	if provider.CalculateCost(1000, 1000, "missing") != 0 {
		t.Error("unknown model should cost 0")
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, c := range cases {
		if got := StripFences(c.in); got != c.want {
			t.Errorf("StripFences(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
