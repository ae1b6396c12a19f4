package harness

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario against a throwaway database and
// compares the result snapshot against testdata/golden/{scenario.Name}.golden.
//
// Golden files are the source of truth for expected intake behavior.
// To regenerate after an intentional change:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "attend.db")
	result, err := Run(scenario, dbPath)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	data = append(data, '\n')

	g := goldie.New(t, goldie.WithFixtureDir(filepath.Join("testdata", "golden")))
	g.Assert(t, scenario.Name, data)
}
