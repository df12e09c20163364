// ABOUTME: Runs retrieval benchmark scenarios against a context engine
// ABOUTME: Seeds each scenario's records, assembles context, optionally answers, then cleans up

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/harper/health-copilot/internal/core"
)

// Runner executes scenarios
type Runner struct {
	engine    *core.Engine
	copilot   *core.Copilot
	metrics   *MetricsCalculator
	maxTokens int
	verbose   bool
}

// NewRunner creates a Runner. copilot may be nil to skip answer generation.
func NewRunner(engine *core.Engine, copilot *core.Copilot, maxTokens int, verbose bool) *Runner {
	return &Runner{
		engine:    engine,
		copilot:   copilot,
		metrics:   NewMetricsCalculator(),
		maxTokens: maxTokens,
		verbose:   verbose,
	}
}

// RunScenario seeds, queries and scores one scenario
func (r *Runner) RunScenario(ctx context.Context, scenario Scenario) (Result, error) {
	if err := r.seed(ctx, scenario); err != nil {
		return Result{ScenarioID: scenario.ID, ScenarioName: scenario.Name, Status: "ERROR", ErrorMessage: err.Error()}, err
	}
	defer r.cleanup(ctx, scenario)

	result := r.engine.GetContext(ctx, scenario.Query, r.maxTokens)
	if r.verbose {
		log.Printf("[%s] context: %d citation(s), %d tokens", scenario.ID, len(result.Citations), result.TokenCount)
	}

	answer := ""
	if r.copilot != nil && r.copilot.CanComplete() {
		a, err := r.copilot.Ask(ctx, scenario.Query, r.maxTokens)
		if err != nil {
			return Result{ScenarioID: scenario.ID, ScenarioName: scenario.Name, Status: "ERROR", ErrorMessage: err.Error()}, err
		}
		answer = a.Text
	}

	return r.metrics.Evaluate(scenario, result, answer), nil
}

// RunAll runs every scenario, continuing past failures
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		result, err := r.RunScenario(ctx, s)
		if err != nil {
			log.Printf("[%s] scenario failed: %v", s.ID, err)
		}
		results = append(results, result)
	}
	return results
}

func (r *Runner) seed(ctx context.Context, scenario Scenario) error {
	for i := range scenario.Documents {
		doc := scenario.Documents[i]
		if _, err := r.engine.Ingest(ctx, &doc); err != nil {
			return fmt.Errorf("seeding %s: %w", doc.ID, err)
		}
	}
	return nil
}

func (r *Runner) cleanup(ctx context.Context, scenario Scenario) {
	for _, doc := range scenario.Documents {
		if _, err := r.engine.DeleteDocument(ctx, doc.ID); err != nil {
			log.Printf("[%s] cleanup of %s failed: %v", scenario.ID, doc.ID, err)
		}
	}
}

// Summary is the exported benchmark report
type Summary struct {
	Timestamp string   `json:"timestamp"`
	Total     int      `json:"total_scenarios"`
	Passed    int      `json:"passed"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

// Summarize counts passes and failures
func Summarize(results []Result) Summary {
	s := Summary{
		Timestamp: time.Now().Format(time.RFC3339),
		Total:     len(results),
		Results:   results,
	}
	for _, r := range results {
		if r.Status == "PASS" {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// ExportResults writes the summary as JSON to outputPath
func ExportResults(results []Result, outputPath string) error {
	jsonData, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
