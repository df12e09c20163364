// ABOUTME: Retrieval metrics for context recall, citation precision and answer faithfulness
// ABOUTME: Deterministic evaluation against each scenario's ground truth

package retrieval

import (
	"fmt"
	"strings"

	"github.com/harper/health-copilot/internal/models"
)

// PassThreshold is the minimum score on every metric for a scenario to pass
const PassThreshold = 0.9

// MetricsCalculator computes retrieval scores
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateContextRecall computes the share of expected items found in the context (0.0-1.0)
func (m *MetricsCalculator) CalculateContextRecall(context string, expectedItems []string) (float64, string) {
	if len(expectedItems) == 0 {
		return 1.0, "No context retrieval required"
	}

	contextUpper := strings.ToUpper(context)

	foundCount := 0
	missingItems := []string{}
	for _, item := range expectedItems {
		if strings.Contains(contextUpper, strings.ToUpper(item)) {
			foundCount++
		} else {
			missingItems = append(missingItems, item)
		}
	}

	recall := float64(foundCount) / float64(len(expectedItems))
	if recall == 1.0 {
		return 1.0, "Perfect context recall - all expected items retrieved"
	}

	return recall, fmt.Sprintf("Partial context recall (%.2f) - missing items: %v", recall, missingItems)
}

// CalculateCitationScores returns citation precision (cited documents that
// were expected) and citation recall (expected documents that were cited)
func (m *MetricsCalculator) CalculateCitationScores(citations []models.Citation, expectedDocs []string) (precision, recall float64, detail string) {
	expected := make(map[string]bool, len(expectedDocs))
	for _, id := range expectedDocs {
		expected[id] = true
	}

	cited := map[string]bool{}
	for _, c := range citations {
		cited[c.DocumentID] = true
	}

	if len(cited) == 0 {
		if len(expected) == 0 {
			return 1.0, 1.0, "No citations expected"
		}
		return 0.0, 0.0, "No citations returned"
	}

	relevant := 0
	extra := []string{}
	for id := range cited {
		if expected[id] {
			relevant++
		} else {
			extra = append(extra, id)
		}
	}

	found := 0
	missing := []string{}
	for _, id := range expectedDocs {
		if cited[id] {
			found++
		} else {
			missing = append(missing, id)
		}
	}

	precision = float64(relevant) / float64(len(cited))
	recall = 1.0
	if len(expectedDocs) > 0 {
		recall = float64(found) / float64(len(expectedDocs))
	}

	detail = fmt.Sprintf("cited %d document(s), %d expected", len(cited), relevant)
	if len(extra) > 0 {
		detail += fmt.Sprintf(", unexpected: %v", extra)
	}
	if len(missing) > 0 {
		detail += fmt.Sprintf(", missing: %v", missing)
	}
	return precision, recall, detail
}

// CalculateFaithfulness checks the answer against expected and forbidden strings (0.0-1.0)
func (m *MetricsCalculator) CalculateFaithfulness(answer string, expected, forbidden []string) (float64, string) {
	answerUpper := strings.ToUpper(answer)

	missingItems := []string{}
	for _, item := range expected {
		if !strings.Contains(answerUpper, strings.ToUpper(item)) {
			missingItems = append(missingItems, item)
		}
	}

	forbiddenFound := []string{}
	for _, item := range forbidden {
		if strings.Contains(answerUpper, strings.ToUpper(item)) {
			forbiddenFound = append(forbiddenFound, item)
		}
	}

	switch {
	case len(missingItems) == 0 && len(forbiddenFound) == 0:
		return 1.0, "Perfect faithfulness - answer matches expected ground truth"
	case len(missingItems) > 0 && len(forbiddenFound) > 0:
		return 0.0, fmt.Sprintf("Faithfulness failure - missing expected items: %v, forbidden items found: %v", missingItems, forbiddenFound)
	case len(missingItems) > 0:
		return 0.5, fmt.Sprintf("Partial faithfulness - missing expected items: %v", missingItems)
	default:
		return 0.5, fmt.Sprintf("Partial faithfulness - forbidden items found: %v", forbiddenFound)
	}
}

// Evaluate scores one scenario run. answer is empty when no chat model ran.
func (m *MetricsCalculator) Evaluate(scenario Scenario, result models.ContextResult, answer string) Result {
	recall, recallDetail := m.CalculateContextRecall(result.Context, scenario.GroundTruth.ExpectedContextItems)
	precision, citationRecall, citationDetail := m.CalculateCitationScores(result.Citations, scenario.GroundTruth.ExpectedDocuments)

	scores := []float64{recall, precision, citationRecall}
	details := map[string]interface{}{
		"recall_detail":   recallDetail,
		"citation_detail": citationDetail,
		"context_tokens":  result.TokenCount,
		"citations":       len(result.Citations),
	}

	out := Result{
		ScenarioID:        scenario.ID,
		ScenarioName:      scenario.Name,
		ContextRecall:     recall,
		CitationPrecision: precision,
		CitationRecall:    citationRecall,
	}

	if answer != "" {
		faithfulness, faithfulnessDetail := m.CalculateFaithfulness(answer, scenario.GroundTruth.ExpectedInAnswer, scenario.GroundTruth.ForbiddenInAnswer)
		out.Faithfulness = faithfulness
		scores = append(scores, faithfulness)
		details["faithfulness_detail"] = faithfulnessDetail
		details["answer"] = truncate(answer, 200)
	}

	total := 0.0
	out.Status = "PASS"
	for _, s := range scores {
		total += s
		if s < PassThreshold {
			out.Status = "FAIL"
		}
	}
	out.OverallScore = total / float64(len(scores))
	out.Details = details

	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
