package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    form JSONB,
    reports JSONB,
    scores JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("pestel"),
		tcpostgres.WithUsername("pestel"),
		tcpostgres.WithPassword("pestel"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.ExecContext(ctx, runsSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	s := NewWithDB(db)

	run := Run{
		ID:      "11111111-1111-1111-1111-111111111111",
		Form:    json.RawMessage(`{"industry":"Retail"}`),
		Reports: json.RawMessage(`{"economic_report":{"executive_summary":"s"}}`),
		Scores:  json.RawMessage(`{"economic":{"similarity_score":70,"impact_score":60,"justification":"x"}}`),
	}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	// upsert replaces payloads
	run.Scores = json.RawMessage(`{"economic":{"similarity_score":75,"impact_score":60,"justification":"y"}}`)
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun upsert: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	var scores map[string]map[string]interface{}
	if err := json.Unmarshal(got.Scores, &scores); err != nil {
		t.Fatalf("scores payload: %v", err)
	}
	if scores["economic"]["similarity_score"].(float64) != 75 {
		t.Errorf("upsert did not replace scores: %s", got.Scores)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Errorf("ListRuns = %+v", runs)
	}
}
