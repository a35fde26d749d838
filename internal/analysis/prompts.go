package analysis

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/pestel/internal/search"
)

func selectedFactorsText(selected []string) string {
	lines := make([]string, 0, len(selected))
	for _, f := range selected {
		lines = append(lines, "- "+FactorLabel(f))
	}
	return strings.Join(lines, "\n")
}

// queryPrompt builds the search-query-writer instruction for one dimension.
func queryPrompt(d Dimension, form *Form, selected []string) string {
	upper := strings.ToUpper(string(d))
	return fmt.Sprintf(`You are a search query writer specializing in %s factors for PESTEL analysis.

Write up to 5 search queries that will help retrieve articles focusing ONLY on the following %s factors
that the user has specifically selected as important:
%s

Each query must be tagged as either "general" (for broad context) or "news" (for recent developments).

Industry: %s
Geographical focus: %s

Additional notes from user:
%s

Include both the industry and geographical focus in each query for relevance.
Do not include any years in your queries.
Focus ONLY on the %s factors the user has selected as important.`,
		upper, upper, selectedFactorsText(selected),
		form.Industry, form.GeographicalFocus, form.Notes(), strings.ToLower(string(d)))
}

// contextText flattens the dimension's content items for the report prompt.
func contextText(items []search.ContentItem) string {
	if len(items) == 0 {
		return "No web context available."
	}
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "Source: %s (%s)\n%s\n\n", item.Title, item.URL, item.Content)
	}
	return b.String()
}

// reportPrompt builds the analyst instruction for one dimension's report.
func reportPrompt(d Dimension, form *Form, selected []string, items []search.ContentItem) string {
	upper := strings.ToUpper(string(d))
	title := d.Title()
	return fmt.Sprintf(`You are a %s analyst specializing in PESTEL framework analysis. Generate a comprehensive
%s Report (minimum 1,500 words) based on the user's industry and provided context.

Focus SPECIFICALLY ONLY on the following %s factors selected by the user:
%s

Industry: %s
Geographical focus: %s

Additional notes from user:
%s

FORMAT:
1. Executive Summary of %s Landscape
2. Key %s Factors Analysis (focusing ONLY on the factors selected by the user)
3. %s Risks and Opportunities
4. Regional/International %s Dynamics
5. %s Scenario Analysis (3-5 potential outcomes)
6. %s Action Recommendations

Context:
%s

Provide actionable %s intelligence with detailed examples from the provided context.
Only analyze the %s factors that the user has specifically selected as important.`,
		upper, title, upper, selectedFactorsText(selected),
		form.Industry, form.GeographicalFocus, form.Notes(),
		title, title, title, title, title, title,
		contextText(items),
		strings.ToLower(string(d)), strings.ToLower(string(d)))
}

// summarizePrompt builds the per-item content compression instruction.
func summarizePrompt(item search.ContentItem) string {
	return fmt.Sprintf(`Extract useful content from the webpage:
Webpage content = %s

Remember:
1. Focus on extracting key facts, data points, and important information.
2. Discard boilerplate text, navigation elements, footers, headers, and ads.
3. Preserve important numerical data and statistics.
4. Be concise but retain all substantive information.`, item.Content)
}

// missingReportMarker is substituted into the synthesis prompt for dimensions
// that produced no report. The synthesizer's instruction keys off it.
func missingReportMarker(d Dimension) string {
	return fmt.Sprintf("Not available - User did not select any %s factors for analysis", string(d))
}

// synthesisPrompt builds the final report instruction from the available
// dimension reports.
func synthesisPrompt(state *RunState) string {
	var sections strings.Builder
	for _, d := range Dimensions {
		text := missingReportMarker(d)
		if raw, ok := state.Report(d.ReportKey()); ok {
			text = string(raw)
		}
		fmt.Fprintf(&sections, "- %s Report: %s\n", d.Title(), text)
	}

	return fmt.Sprintf(`You are a strategic business consultant specializing in comprehensive PESTEL analysis.
Your task is to synthesize the individual PESTEL reports into one cohesive,
strategic final report (minimum 3,000 words).

You have been provided with specialized reports covering each dimension of PESTEL.

IMPORTANT: Focus only on the dimensions for which reports are available. Some dimensions
might not have reports if the user did not select any factors for those dimensions.

Additional notes from user:
%s

FORMAT YOUR ANALYSIS AS FOLLOWS:

# COMPREHENSIVE PESTEL ANALYSIS

## Executive Summary
[Provide a concise overview of all key findings across all dimensions]

## Introduction
[Brief context about the industry and geographical focus]

## PESTEL Analysis
[One section per dimension - include ONLY the dimensions whose report is available]

## Strategic Implications
[Analyze how these factors interact and their collective impact]

## Opportunities & Threats Matrix
[Present a structured matrix of opportunities and threats across all dimensions]

## Strategic Recommendations
[Provide 10-15 specific, actionable recommendations based on the complete analysis]

## Conclusion
[Final observations on the overall business environment]

INDIVIDUAL REPORTS:
%s
Create a seamless, non-repetitive report that efficiently synthesizes insights
from all dimensions while maintaining coherence and strategic focus.
Only include sections for dimensions where the user selected factors for analysis.`,
		state.Form().Notes(), sections.String())
}
