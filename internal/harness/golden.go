package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/legalgate/internal/canonical"
)

// MarshalTrace produces the canonical JSON golden form of a scenario trace.
// Zero-valued event fields are omitted.
func MarshalTrace(scenarioName string, trace []TraceEvent) ([]byte, error) {
	events := make([]any, len(trace))
	for i, event := range trace {
		m := map[string]any{
			"type": event.Type,
			"seq":  event.Seq,
		}
		if event.Step != 0 {
			m["step"] = event.Step
		}
		if event.Document != "" {
			m["document"] = event.Document
		}
		if event.Account != "" {
			m["account"] = event.Account
		}
		if event.Version != "" {
			m["version"] = event.Version
		}
		if event.Acceptance != "" {
			m["acceptance"] = event.Acceptance
		}
		if event.AcceptedAt != "" {
			m["accepted_at"] = event.AcceptedAt
		}
		if event.Code != "" {
			m["code"] = event.Code
		}
		if event.Count != 0 {
			m["count"] = event.Count
		}
		if event.Manual {
			m["manual"] = true
		}
		if event.Flags != nil {
			m["flags"] = map[string]any{
				"require_signup":   event.Flags.RequireSignup,
				"require_existing": event.Flags.RequireExisting,
			}
		}
		events[i] = m
	}

	return canonical.Marshal(map[string]any{
		"scenario_name": scenarioName,
		"trace":         events,
	})
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
