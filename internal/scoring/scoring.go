package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/mohammad-safakhou/pestel/internal/analysis"
	"github.com/mohammad-safakhou/pestel/internal/llm"
)

// Score is the per-dimension scoring output.
type Score struct {
	SimilarityScore int    `json:"similarity_score"`
	ImpactScore     int    `json:"impact_score"`
	Justification   string `json:"justification"`
}

// Scorer asks the LLM to grade each generated report section against the
// user's factor priorities.
type Scorer struct {
	provider llm.Provider
	model    string
	logger   *log.Logger
}

// NewScorer creates a scorer using the given model.
func NewScorer(provider llm.Provider, model string) *Scorer {
	return &Scorer{
		provider: provider,
		model:    model,
		logger:   log.New(log.Writer(), "[SCORE] ", log.LstdFlags),
	}
}

// mapRaw converts a raw signed accumulator in [-50, +50] to the 0-100 scale.
// It is the same conversion the rubric prompt instructs the model to apply.
func mapRaw(raw int) int {
	return int(math.Round(((float64(raw) + 50) / 100) * 100))
}

// CalculateScores scores each dimension independently. A dimension is scored
// only when the user configured factors for it and a report was generated.
// API errors, unparseable responses, and out-of-range scores skip that
// dimension; they never fail the batch.
func (s *Scorer) CalculateScores(ctx context.Context, form *analysis.Form, reports map[string]json.RawMessage) map[string]Score {
	scores := make(map[string]Score)

	for _, d := range analysis.Dimensions {
		factors := form.Factors[d]
		if len(factors) == 0 {
			continue
		}
		report, ok := reports[d.ReportKey()]
		if !ok || len(report) == 0 {
			continue
		}

		out, err := s.provider.Generate(ctx, "You are an expert in PESTEL analysis and scoring.", buildPrompt(d, factors, string(report)), s.model)
		if err != nil {
			s.logger.Printf("scoring %s failed, skipping: %v", d, err)
			continue
		}

		var score Score
		if err := json.Unmarshal([]byte(llm.StripFences(out)), &score); err != nil {
			s.logger.Printf("unparseable %s score response, skipping: %v", d, err)
			continue
		}
		if score.SimilarityScore < 0 || score.SimilarityScore > 100 || score.ImpactScore < 0 || score.ImpactScore > 100 {
			s.logger.Printf("out-of-range %s scores (similarity=%d impact=%d), skipping", d, score.SimilarityScore, score.ImpactScore)
			continue
		}

		scores[string(d)] = score
		s.logger.Printf("scored %s: similarity=%d impact=%d", d, score.SimilarityScore, score.ImpactScore)
	}
	return scores
}

func buildPrompt(d analysis.Dimension, factors map[string]bool, reportText string) string {
	names := make([]string, 0, len(factors))
	for name := range factors {
		names = append(names, name)
	}
	sort.Strings(names)

	var subfactors strings.Builder
	for _, name := range names {
		importance := "NOT IMPORTANT"
		if factors[name] {
			importance = "IMPORTANT"
		}
		fmt.Fprintf(&subfactors, "- %s: %s\n", name, importance)
	}

	upper := strings.ToUpper(string(d))
	return fmt.Sprintf(`You are an expert in business analysis and PESTEL evaluation.

You will receive:
1. A user-defined configuration of sub-factors under the **%[1]s** category. Each sub-factor is marked as either IMPORTANT (true) or NOT IMPORTANT (false).
2. A detailed report for the same **%[1]s** category, generated from real-world, web-sourced content.

---

### Sub-Factor Importance:
%[2]s
---

### STEP 1: SIMILARITY SCORING (raw -50 to +50)

Evaluate how well the report content **aligns** with the user's marked sub-factors:

- If the sub-factor is **IMPORTANT (true)**:
  - **+10** points if the report provides clear, detailed, and explicit information on the sub-factor.
  - **+5** points if the report briefly or partially addresses it.
  - **-5** points if the report does not mention it at all.

- If the sub-factor is **NOT IMPORTANT (false)**:
  - **-10** points if the report provides clear, detailed coverage on it.
  - **-5** points if the report briefly or partially addresses it.
  - **+10** points if the report completely omits it.

---

### STEP 2: IMPACT SCORING (raw -50 to +50)

Now evaluate the **real-world significance** of the covered sub-factors for the user's context (industry, geography, etc):

- If the sub-factor is **IMPORTANT (true)**:
  - **+10** points if the insight has strong, actionable, short-term strategic implications.
  - **+5** points if it is moderately relevant or may influence mid/long-term decisions.
  - **-10** points if the insight is weak, speculative, or irrelevant.

- If the sub-factor is **NOT IMPORTANT (false)**:
  - **-10** points if the insight is highly impactful.
  - **-5** points if it is moderately relevant.
  - **+10** points if it is clearly low-impact, speculative, or a distraction.

Total raw score will range from -50 to +50.

### IMPORTANT INSTRUCTIONS:
- Carefully calculate the raw similarity and impact points based on the sub-factor scoring criteria.
- Convert each raw score to the 0-100 scale using: score = round(((raw + 50) / 100) * 100)
- Provide a clear, concise breakdown of your scoring rationale in the "justification" section.
- Ensure the final "similarity_score" and "impact_score" values in your JSON output exactly match the explanation you provide in the "justification" section.
- Return only the JSON object as the final output, with no additional commentary and no markdown formatting.

### STEP 3: Return Output as JSON
{"similarity_score": <integer between 0 and 100>, "impact_score": <integer between 0 and 100>, "justification": "<2-4 sentence breakdown: raw points summary and rationale>"}

### %[1]s Report:
%[3]s`, upper, subfactors.String(), strings.TrimSpace(reportText))
}
