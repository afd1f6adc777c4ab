// Command genmock reads field flow-test sheets exported as CSV (one row per
// flowing outlet) and generates the mock fixtures used by the pipeline,
// integration, and flowcalc checks. Results are produced by the actual domain
// engine so the golden file always matches real evaluation behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv data/mock/flow_tests.csv \
//	  -submissions-out data/mock/flow_test_submissions.json \
//	  -results-out data/mock/flow_test_results.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hydrant-flow-service/internal/domain"
)

// evaluatedTest is one entry of the golden results fixture.
type evaluatedTest struct {
	TestID string                `json:"test_id"`
	Result domain.FlowTestResult `json:"result"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "path to the field flow-test CSV")
	subsOut := flag.String("submissions-out", "", "output path for the submissions fixture")
	resultsOut := flag.String("results-out", "", "output path for the golden results fixture")
	flag.Parse()

	if *csvPath == "" || *subsOut == "" || *resultsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -submissions-out, -results-out")
	}

	subs, err := readSubmissions(*csvPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *csvPath, err)
	}
	log.Printf("submissions: %d", len(subs))

	params := domain.DefaultParams()
	results := make([]evaluatedTest, 0, len(subs))
	for _, sub := range subs {
		results = append(results, evaluatedTest{
			TestID: sub.TestID,
			Result: domain.Evaluate(sub.Input, params),
		})
	}

	if err := writeJSON(*subsOut, subs); err != nil {
		return fmt.Errorf("writing submissions fixture: %w", err)
	}
	log.Printf("wrote submissions fixture: %s", *subsOut)

	if err := writeJSON(*resultsOut, results); err != nil {
		return fmt.Errorf("writing results fixture: %w", err)
	}
	log.Printf("wrote results fixture: %s", *resultsOut)

	printStats(results)
	return nil
}

// readSubmissions groups outlet rows into submissions, keeping first-seen
// order for both tests and outlets.
func readSubmissions(path string) ([]domain.FlowTestSubmission, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}

	var subs []domain.FlowTestSubmission
	index := map[string]int{}

	for n, row := range rows[1:] {
		line := n + 2
		testID := get(row, colIdx, "test_id")
		if testID == "" {
			return nil, fmt.Errorf("line %d: missing test_id", line)
		}

		outlet, err := parseOutlet(row, colIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		i, ok := index[testID]
		if !ok {
			sub, err := parseSubmission(row, colIdx, testID)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			i = len(subs)
			index[testID] = i
			subs = append(subs, sub)
		}
		subs[i].Input.Outlets = append(subs[i].Input.Outlets, outlet)
	}
	return subs, nil
}

func parseSubmission(row []string, colIdx map[string]int, testID string) (domain.FlowTestSubmission, error) {
	testedAt, err := time.Parse(time.RFC3339, get(row, colIdx, "tested_at"))
	if err != nil {
		return domain.FlowTestSubmission{}, fmt.Errorf("tested_at: %w", err)
	}
	static, err := parseFloat(row, colIdx, "static_psi")
	if err != nil {
		return domain.FlowTestSubmission{}, err
	}
	residual, err := parseFloat(row, colIdx, "residual_psi")
	if err != nil {
		return domain.FlowTestSubmission{}, err
	}
	return domain.FlowTestSubmission{
		TestID:      testID,
		HydrantID:   get(row, colIdx, "hydrant_id"),
		SubmittedAt: testedAt.UTC(),
		Input: domain.FlowTestInput{
			StaticPressurePsi:   static,
			ResidualPressurePsi: residual,
		},
	}, nil
}

func parseOutlet(row []string, colIdx map[string]int) (domain.Outlet, error) {
	size, err := parseFloat(row, colIdx, "outlet_size_in")
	if err != nil {
		return domain.Outlet{}, err
	}
	pitot, err := parseFloat(row, colIdx, "pitot_psi")
	if err != nil {
		return domain.Outlet{}, err
	}
	o := domain.Outlet{
		ID:               get(row, colIdx, "outlet_id"),
		DiameterInches:   size,
		PitotPressurePsi: pitot,
	}
	if get(row, colIdx, "coefficient") != "" {
		c, err := parseFloat(row, colIdx, "coefficient")
		if err != nil {
			return domain.Outlet{}, err
		}
		o.Coefficient = &c
	}
	return o, nil
}

func parseFloat(row []string, colIdx map[string]int, col string) (float64, error) {
	v, err := strconv.ParseFloat(get(row, colIdx, col), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", col, err)
	}
	return v, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(results []evaluatedTest) {
	classCounts := map[domain.Class]int{}
	var rejected, withWarnings int
	for _, r := range results {
		if !r.Result.Usable() {
			rejected++
			continue
		}
		classCounts[r.Result.NFPAClass]++
		if len(r.Result.Warnings) > 0 {
			withWarnings++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(results))
	fmt.Printf("By class: AA=%d, A=%d, B=%d, C=%d\n",
		classCounts[domain.ClassAA], classCounts[domain.ClassA], classCounts[domain.ClassB], classCounts[domain.ClassC])
	fmt.Printf("Rejected: %d\n", rejected)
	fmt.Printf("With warnings: %d\n", withWarnings)

	fmt.Println("\nPer test:")
	for _, r := range results {
		if !r.Result.Usable() {
			fmt.Printf("  %s: rejected (%s)\n", r.TestID, strings.Join(r.Result.Errors, "; "))
			continue
		}
		fmt.Printf("  %s: total=%.2f available=%.2f class=%s curve=%d warnings=%d\n",
			r.TestID, r.Result.TotalFlowGPM, r.Result.AvailableFlowGPM, r.Result.NFPAClass,
			len(r.Result.SupplyCurve), len(r.Result.Warnings))
	}
}
