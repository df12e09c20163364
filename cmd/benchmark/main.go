// ABOUTME: Command-line benchmark runner for retrieval quality
// ABOUTME: Runs scenarios against a throwaway in-memory knowledge base and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harper/health-copilot/benchmarks/retrieval"
	"github.com/harper/health-copilot/internal/app"
	"github.com/harper/health-copilot/internal/config"
	"github.com/harper/health-copilot/internal/storage/sqlite"
	"github.com/joho/godotenv"
)

func main() {
	scenarioID := flag.String("scenario", "", "Run a single scenario (allergy, cholesterol-trend, medications, sleep). If empty, runs all.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	answer := flag.Bool("answer", false, "Also generate and score answers with the chat model")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (continuing anyway): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.HasProviderCredential() {
		log.Println("Warning: no embedding provider credential set - fallback embeddings are not semantic and scores will be low")
	}

	// Never touch the real knowledge base
	store, err := sqlite.NewStorageInMemory()
	if err != nil {
		log.Fatalf("Failed to open benchmark store: %v", err)
	}

	a, err := app.NewWithStore(cfg, store)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() { _ = a.Close() }()

	if *answer && !a.Copilot.CanComplete() {
		log.Fatal("--answer requires OPENAI_API_KEY")
	}

	fmt.Println("========================================")
	fmt.Println("Health Copilot Retrieval Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	copilot := a.Copilot
	if !*answer {
		copilot = nil
	}
	runner := retrieval.NewRunner(a.Engine, copilot, cfg.ContextMaxTokens, *verbose)

	scenarios := retrieval.AllScenarios()
	if *scenarioID != "" {
		s, ok := retrieval.ScenarioByID(*scenarioID)
		if !ok {
			log.Fatalf("Unknown scenario: %s", *scenarioID)
		}
		scenarios = []retrieval.Scenario{s}
	}

	results := runner.RunAll(context.Background(), scenarios)
	summary := retrieval.Summarize(results)

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.ScenarioID, result.ScenarioName)
		fmt.Printf("  Context Recall:     %.2f\n", result.ContextRecall)
		fmt.Printf("  Citation Precision: %.2f\n", result.CitationPrecision)
		fmt.Printf("  Citation Recall:    %.2f\n", result.CitationRecall)
		if *answer {
			fmt.Printf("  Faithfulness:       %.2f\n", result.Faithfulness)
		}
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Scenarios: %d\n", summary.Total)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Println("========================================")

	if err := retrieval.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}
	fmt.Printf("✓ Results exported to: %s\n", *outputPath)

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
