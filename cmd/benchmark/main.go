// ABOUTME: Command-line benchmark runner for retrieval-quality scenarios
// ABOUTME: Executes ranking benchmarks and outputs JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mrbrandonmills/professor-carl-memory/benchmarks/ranking"
)

func main() {
	scenarioID := flag.String("scenario", "", "Run specific scenario (topical, distractor, emotional). If empty, runs all.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("Retrieval Ranking Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	runner := ranking.NewRunner(*verbose)
	ctx := context.Background()

	var results []ranking.Result
	var err error

	if *scenarioID == "" {
		fmt.Println("Running all ranking scenarios...")
		fmt.Println()
		results, err = runner.RunAll(ctx)
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
	} else {
		scenario, ok := ranking.ScenarioByID(*scenarioID)
		if !ok {
			log.Fatalf("Unknown scenario: %s (valid options: topical, distractor, emotional)", *scenarioID)
		}

		fmt.Printf("Running scenario: %s\n\n", scenario.Name)
		result, err := runner.Run(ctx, scenario)
		if err != nil {
			log.Fatalf("Scenario failed: %v", err)
		}
		results = []ranking.Result{result}
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	passed := 0
	failed := 0

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.ScenarioID, result.ScenarioName)
		fmt.Printf("  Precision: %.2f\n", result.Precision)
		fmt.Printf("  Recall:    %.2f\n", result.Recall)
		fmt.Printf("  MRR:       %.2f\n", result.MRR)
		fmt.Printf("  Overall:   %.2f\n", result.Overall)
		fmt.Printf("  Status:    %s\n", result.Status)

		if result.Status == "PASS" {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Scenarios: %d\n", len(results))
	fmt.Printf("Passed: %d\n", passed)
	fmt.Printf("Failed: %d\n", failed)
	fmt.Println("========================================")

	if err := ranking.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
