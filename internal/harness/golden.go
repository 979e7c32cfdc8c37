package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is what golden files capture for a scenario run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Guild        string       `json:"guild"`
	Trace        []StepResult `json:"trace"`
	Standings    []Standing   `json:"standings"`
	Watched      []string     `json:"watched"`
}

// MarshalSnapshot renders a result as indented JSON with a trailing newline.
// Field order is fixed by the struct layout, so output is deterministic.
func MarshalSnapshot(scenario *Scenario, result *Result) ([]byte, error) {
	guild := scenario.Guild
	if guild == "" {
		guild = DefaultGuild
	}
	data, err := json.MarshalIndent(TraceSnapshot{
		ScenarioName: scenario.Name,
		Guild:        guild,
		Trace:        result.Trace,
		Standings:    result.Standings,
		Watched:      result.Watched,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Test failure (via
// goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	data, err := MarshalSnapshot(scenario, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result, nil
}
