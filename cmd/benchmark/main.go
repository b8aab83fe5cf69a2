// Benchmark tool for replaying labeled expansion scenarios against Kestrel.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/scenarios.csv -url http://localhost:8080
//
// This tool:
//   1. Reads labeled scenario data (historical expansion decisions with outcomes)
//   2. Sends each scenario through the Kestrel decision pipeline
//   3. Compares Kestrel's verdict (flagged/cleared) with the recorded outcomes
//   4. Calculates precision, recall, F1-score, and confusion matrix
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Scenario represents a row from the labeled scenario dataset.
type Scenario struct {
	Organization      string
	Country           string
	Region            string
	Industry          []string
	ProblemStatement  string
	StrategicIntent   []string
	ExpansionTimeline string
	BudgetCapUSD      float64
	RiskTolerance     string
	Failed            bool
}

// DecisionRequest is the Kestrel intake format.
type DecisionRequest struct {
	OrganizationName  string   `json:"organizationName"`
	Country           string   `json:"country"`
	Region            string   `json:"region,omitempty"`
	Industry          []string `json:"industry,omitempty"`
	ProblemStatement  string   `json:"problemStatement"`
	StrategicIntent   []string `json:"strategicIntent,omitempty"`
	ExpansionTimeline string   `json:"expansionTimeline,omitempty"`
	BudgetCapUSD      float64  `json:"budgetCapUsd,omitempty"`
	RiskTolerance     string   `json:"riskTolerance,omitempty"`
}

// DecisionResponse is the Kestrel API response format.
type DecisionResponse struct {
	PacketID string `json:"packetId"`
	Blocked  bool   `json:"blocked"`
	Phase    string `json:"phase"`
	Scores   struct {
		OverallConfidence float64 `json:"overallConfidence"`
	} `json:"scores"`
	Blockers []string `json:"blockers"`
}

// Metrics tracks benchmark results.
type Metrics struct {
	TruePositives  int64 // Failed expansion flagged
	FalsePositives int64 // Successful expansion flagged
	TrueNegatives  int64 // Successful expansion cleared
	FalseNegatives int64 // Failed expansion cleared (missed risk!)

	TotalProcessed int64
	TotalFailed    int64
	TotalSucceeded int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to labeled scenario CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Kestrel base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	limit := flag.Int("limit", 10000, "Maximum scenarios to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	threshold := flag.Float64("threshold", 50, "Confidence below which a cleared run counts as flagged")
	verbose := flag.Bool("verbose", false, "Print each scenario result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/scenarios.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        KESTREL BENCHMARK - Labeled Scenario Replay            ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:    %s\n", *csvPath)
	fmt.Printf("Kestrel URL: %s\n", *baseURL)
	fmt.Printf("Tenant ID:   %s\n", *tenantID)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Limit:       %d\n", *limit)
	fmt.Printf("Threshold:   %.0f\n", *threshold)
	fmt.Println()

	// Check Kestrel is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kestrel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kestrel is running:")
		fmt.Println("  go run cmd/kestrel/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Kestrel is healthy")

	// Read scenario data
	fmt.Printf("\nReading scenarios from %s...\n", *csvPath)
	scenarios, err := readScenarioCSV(*csvPath, *limit)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d scenarios\n", len(scenarios))

	failedCount := 0
	for _, s := range scenarios {
		if s.Failed {
			failedCount++
		}
	}
	fmt.Printf("  - Failed:     %d (%.2f%%)\n", failedCount, 100*float64(failedCount)/float64(len(scenarios)))
	fmt.Printf("  - Succeeded:  %d (%.2f%%)\n", len(scenarios)-failedCount, 100*float64(len(scenarios)-failedCount)/float64(len(scenarios)))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(scenarios, *baseURL, *tenantID, *workers, *threshold, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readScenarioCSV(path string, limit int) ([]Scenario, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	required := []string{"organization", "country", "problem_statement", "outcome"}
	for _, col := range required {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := colIndex[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var scenarios []Scenario

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		budget, _ := strconv.ParseFloat(field(record, "budget_cap_usd"), 64)

		s := Scenario{
			Organization:      field(record, "organization"),
			Country:           field(record, "country"),
			Region:            field(record, "region"),
			Industry:          splitList(field(record, "industry")),
			ProblemStatement:  field(record, "problem_statement"),
			StrategicIntent:   splitList(field(record, "strategic_intent")),
			ExpansionTimeline: field(record, "expansion_timeline"),
			BudgetCapUSD:      budget,
			RiskTolerance:     field(record, "risk_tolerance"),
			Failed:            strings.EqualFold(field(record, "outcome"), "failure"),
		}

		scenarios = append(scenarios, s)

		if limit > 0 && len(scenarios) >= limit {
			break
		}
	}

	return scenarios, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func runBenchmark(scenarios []Scenario, baseURL, tenantID string, numWorkers int, threshold float64, verbose bool) *Metrics {
	metrics := &Metrics{}

	// Create work channel
	work := make(chan Scenario, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 30 * time.Second}

			for s := range work {
				start := time.Now()
				result, err := runDecision(client, baseURL, tenantID, s)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", s.Organization, err)
					}
					continue
				}

				// Track actual labels
				if s.Failed {
					atomic.AddInt64(&metrics.TotalFailed, 1)
				} else {
					atomic.AddInt64(&metrics.TotalSucceeded, 1)
				}

				// A blocked run, or a cleared run below the confidence
				// threshold, counts as flagged.
				predicted := result.Blocked || result.Scores.OverallConfidence < threshold
				actual := s.Failed

				if predicted && actual {
					atomic.AddInt64(&metrics.TruePositives, 1)
				} else if predicted && !actual {
					atomic.AddInt64(&metrics.FalsePositives, 1)
				} else if !predicted && !actual {
					atomic.AddInt64(&metrics.TrueNegatives, 1)
				} else { // !predicted && actual
					atomic.AddInt64(&metrics.FalseNegatives, 1)
				}

				if verbose {
					status := "✓"
					if (predicted && !actual) || (!predicted && actual) {
						status = "✗"
					}
					name := s.Organization
					if len(name) > 18 {
						name = name[:18]
					}
					verdict := "CLEAR"
					if result.Blocked {
						verdict = "BLOCK"
					} else if predicted {
						verdict = "FLAG"
					}
					fmt.Printf("%s %-18s | %-14s | Failed: %-5v | Kestrel: %-5s (%.0f) | Phase: %s\n",
						status,
						name,
						s.Country,
						s.Failed,
						verdict,
						result.Scores.OverallConfidence,
						result.Phase,
					)
				}
			}
		}()
	}

	// Send work
	for _, s := range scenarios {
		work <- s
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func runDecision(client *http.Client, baseURL, tenantID string, s Scenario) (*DecisionResponse, error) {
	req := DecisionRequest{
		OrganizationName:  s.Organization,
		Country:           s.Country,
		Region:            s.Region,
		Industry:          s.Industry,
		ProblemStatement:  s.ProblemStatement,
		StrategicIntent:   s.StrategicIntent,
		ExpansionTimeline: s.ExpansionTimeline,
		BudgetCapUSD:      s.BudgetCapUSD,
		RiskTolerance:     s.RiskTolerance,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/decisions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result DecisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Total Failed:     %d\n", m.TotalFailed)
	fmt.Printf("   Total Succeeded:  %d\n", m.TotalSucceeded)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\n📈 CONFUSION MATRIX\n")
	fmt.Println("                        Predicted")
	fmt.Println("                    FLAG        CLEAR")
	fmt.Println("              ┌──────────┬──────────┐")
	fmt.Printf("   Actual  F  │ %8d │ %8d │  (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Println("              ├──────────┼──────────┤")
	fmt.Printf("           S  │ %8d │ %8d │  (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Println("              └──────────┴──────────┘")

	// Calculate metrics
	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\n🎯 DETECTION METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of flags, how many expansions actually failed)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of failures, how many did we flag)\n", recall)
	fmt.Printf("   F1-Score:   %.4f  (harmonic mean of precision & recall)\n", f1)
	fmt.Printf("   Accuracy:   %.4f  (overall correct predictions)\n", accuracy)

	// Detection rate analysis
	fmt.Printf("\n🔍 DETECTION ANALYSIS\n")
	if m.TotalFailed > 0 {
		detectionRate := float64(m.TruePositives) / float64(m.TotalFailed) * 100
		missRate := float64(m.FalseNegatives) / float64(m.TotalFailed) * 100
		fmt.Printf("   Failures Flagged:  %d / %d (%.2f%%)\n", m.TruePositives, m.TotalFailed, detectionRate)
		fmt.Printf("   Failures Missed:   %d / %d (%.2f%%) ⚠️\n", m.FalseNegatives, m.TotalFailed, missRate)
	}
	if m.TotalSucceeded > 0 {
		falseAlarmRate := float64(m.FalsePositives) / float64(m.TotalSucceeded) * 100
		fmt.Printf("   False Alarms:      %d / %d (%.2f%%)\n", m.FalsePositives, m.TotalSucceeded, falseAlarmRate)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		rps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f runs/sec\n", rps)
	}

	// Interpretation
	fmt.Printf("\n💡 INTERPRETATION\n")
	if recall >= 0.9 {
		fmt.Println("   ✅ Excellent recall - catching most failed expansions")
	} else if recall >= 0.7 {
		fmt.Println("   ⚠️  Good recall - but missing some failures")
	} else if recall >= 0.5 {
		fmt.Println("   ⚠️  Moderate recall - significant failures being missed")
	} else {
		fmt.Println("   ❌ Poor recall - most failures are being missed!")
	}

	if precision >= 0.5 {
		fmt.Println("   ✅ Good precision - flags are meaningful")
	} else if precision >= 0.2 {
		fmt.Println("   ⚠️  Low precision - many false alarms")
	} else {
		fmt.Println("   ❌ Very low precision - mostly false alarms")
	}

	fmt.Println()
}
