package analysis

import (
	"sort"
	"strings"
)

// Dimension is one of the six PESTEL analysis dimensions.
type Dimension string

const (
	Political     Dimension = "political"
	Economic      Dimension = "economic"
	Social        Dimension = "social"
	Technological Dimension = "technological"
	Environmental Dimension = "environmental"
	Legal         Dimension = "legal"
)

// Dimensions lists all six dimensions in canonical order.
var Dimensions = []Dimension{Political, Economic, Social, Technological, Environmental, Legal}

// FactorKey is the form field holding this dimension's factor selections.
func (d Dimension) FactorKey() string { return string(d) + "_factors" }

// ReportKey is the reports-map key for this dimension's report section.
func (d Dimension) ReportKey() string { return string(d) + "_report" }

// NewsKey is the response key for this dimension's news items.
func (d Dimension) NewsKey() string { return string(d) + "_news" }

// Title returns the capitalized dimension name for prompts and schemas.
func (d Dimension) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d)[:1]) + string(d)[1:]
}

// FinalReportKey is the reports-map key for the synthesized report.
const FinalReportKey = "final_report"

// Stage is the lifecycle state of one dimension's pipeline.
type Stage string

const (
	StagePending    Stage = "PENDING"
	StageSkipped    Stage = "SKIPPED"
	StageQueried    Stage = "QUERIED"
	StageSearched   Stage = "SEARCHED"
	StageSummarized Stage = "SUMMARIZED"
	StageReported   Stage = "REPORTED"
)

// Terminal reports whether the stage is a completed state. Skipped and
// reported dimensions are treated identically by the join node.
func (s Stage) Terminal() bool { return s == StageSkipped || s == StageReported }

// Form is the validated user input. Immutable once a run starts.
type Form struct {
	Industry          string                       `json:"industry"`
	GeographicalFocus string                       `json:"geographical_focus"`
	BusinessName      string                       `json:"business_name"`
	TargetMarket      string                       `json:"target_market"`
	AdditionalNotes   string                       `json:"additional_notes"`
	Factors           map[Dimension]map[string]bool `json:"factors"`
}

// Selected returns the names of this dimension's selected factors, sorted
// for deterministic prompts.
func (f *Form) Selected(d Dimension) []string {
	factors := f.Factors[d]
	if len(factors) == 0 {
		return nil
	}
	var selected []string
	for name, on := range factors {
		if on {
			selected = append(selected, name)
		}
	}
	sort.Strings(selected)
	return selected
}

// Notes returns the user's free-text notes, with a stable placeholder when empty.
func (f *Form) Notes() string {
	if strings.TrimSpace(f.AdditionalNotes) == "" {
		return "No additional notes provided."
	}
	return f.AdditionalNotes
}

// FactorLabel converts a snake_case factor key into its human-readable form,
// e.g. "tax_regulations" -> "Tax Regulations".
func FactorLabel(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ReportSection is the structured per-dimension analytical output.
type ReportSection struct {
	ReportType         string              `json:"report_type"`
	ExecutiveSummary   string              `json:"executive_summary"`
	FactorsAnalysis    []FactorAnalysis    `json:"factors_analysis"`
	RisksOpportunities RisksOpportunities  `json:"risks_opportunities"`
	RegionalDynamics   []RegionalDynamic   `json:"regional_dynamics,omitempty"`
	ScenarioAnalysis   []Scenario          `json:"scenario_analysis"`
	Recommendations    []Recommendation    `json:"recommendations"`
}

type FactorAnalysis struct {
	FactorName    string   `json:"factor_name"`
	Analysis      string   `json:"analysis"`
	KeyIndicators []string `json:"key_indicators"`
}

type RisksOpportunities struct {
	Risks         []Risk        `json:"risks"`
	Opportunities []Opportunity `json:"opportunities"`
}

type Risk struct {
	RiskTitle   string `json:"risk_title"`
	Description string `json:"description"`
	ImpactLevel string `json:"impact_level"` // Low, Medium, High, Critical
}

type Opportunity struct {
	OpportunityTitle string `json:"opportunity_title"`
	Description      string `json:"description"`
	PotentialBenefit string `json:"potential_benefit"` // Low, Medium, High, Transformative
}

type RegionalDynamic struct {
	Region   string `json:"region"`
	Analysis string `json:"analysis"`
}

type Scenario struct {
	ScenarioName string `json:"scenario_name"`
	Drivers      string `json:"drivers"`
	Outcome      string `json:"outcome"`
	Probability  string `json:"probability"` // Low, Medium, High
}

type Recommendation struct {
	RecommendationTitle string   `json:"recommendation_title"`
	Description         string   `json:"description"`
	ImplementationSteps []string `json:"implementation_steps"`
	Priority            string   `json:"priority"` // Low, Medium, High, Immediate
}

// FinalReport is the cross-dimension synthesized narrative.
type FinalReport struct {
	ExecutiveSummary         string                    `json:"executive_summary"`
	Introduction             string                    `json:"introduction"`
	PestelAnalysis           PestelNarratives          `json:"pestel_analysis"`
	StrategicImplications    []StrategicImplication    `json:"strategic_implications"`
	OpportunitiesThreats     OpportunitiesThreatsMatrix `json:"opportunities_threats_matrix"`
	StrategicRecommendations []StrategicRecommendation `json:"strategic_recommendations"`
	Conclusion               string                    `json:"conclusion"`
}

// PestelNarratives holds one optional narrative per dimension; a field is
// empty when the user selected no factors for that dimension.
type PestelNarratives struct {
	PoliticalFactors     string `json:"political_factors,omitempty"`
	EconomicFactors      string `json:"economic_factors,omitempty"`
	SocialFactors        string `json:"social_factors,omitempty"`
	TechnologicalFactors string `json:"technological_factors,omitempty"`
	EnvironmentalFactors string `json:"environmental_factors,omitempty"`
	LegalFactors         string `json:"legal_factors,omitempty"`
}

type StrategicImplication struct {
	ImplicationTitle   string   `json:"implication_title"`
	Analysis           string   `json:"analysis"`
	AffectedDimensions []string `json:"affected_dimensions"`
}

type OpportunitiesThreatsMatrix struct {
	Dimensions []DimensionOutlook `json:"dimensions"`
}

type DimensionOutlook struct {
	Dimension     string   `json:"dimension"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

type StrategicRecommendation struct {
	RecommendationNumber   int      `json:"recommendation_number"`
	Recommendation         string   `json:"recommendation"`
	RelatedDimensions      []string `json:"related_dimensions"`
	ImplementationPriority string   `json:"implementation_priority"` // Immediate, Short-term, Medium-term, Long-term
}
