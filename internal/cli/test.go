package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/legalgate/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run acceptance fixture scenarios",
		Long: `Run acceptance fixture scenarios.

Each scenario runs against its own in-memory database with a fixed clock.
Enforced documents are suspended for the duration of the scenario unless it
carries the manual acceptance tag. Traces are compared against golden files
when they exist.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  legalgate test ./scenarios
  legalgate test ./scenarios --filter "terms-*"
  legalgate test ./scenarios --update
  legalgate test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	info, err := os.Stat(scenariosDir)
	if err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := harness.FindScenarios(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	out := opts.formatter(cmd)
	if len(files) == 0 {
		return out.Success(TestResult{Scenarios: []ScenarioResult{}}, func(w io.Writer) {
			fmt.Fprintln(w, "No scenarios found.")
		})
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenario(opts, file)
		if opts.Format != "json" {
			printScenario(cmd.OutOrStdout(), sr, opts.Update)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if err := out.Success(result, func(w io.Writer) {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if result.Failed == 0 {
			fmt.Fprintln(w, "✓ All scenarios passed")
		}
	}); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// runScenario executes one scenario file and checks it against its golden
// trace. Scenarios without a golden file are judged on assertions alone.
func runScenario(opts *TestOptions, file string) ScenarioResult {
	cfg := opts.settings()
	logger := opts.logger()
	sr := ScenarioResult{Name: scenarioName(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.Run(scenario, harness.WithManualTag(cfg.Harness.ManualTag))
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	logger.Debug("scenario executed", "scenario", scenario.Name, "events", len(result.Trace), "pass", result.Pass)

	trace, err := harness.MarshalTrace(scenario.Name, result.Trace)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to marshal trace: %v", err)}
		return sr
	}

	goldenPath := goldenFilePath(file, cfg.Harness.GoldenDir)
	if opts.Update {
		if err := writeGolden(goldenPath, trace); err != nil {
			sr.Errors = []string{fmt.Sprintf("failed to update golden file: %v", err)}
			return sr
		}
		logger.Info("golden updated", "scenario", scenario.Name, "path", goldenPath)
	} else {
		golden, err := os.ReadFile(goldenPath)
		switch {
		case os.IsNotExist(err):
			logger.Debug("no golden file", "scenario", scenario.Name)
		case err != nil:
			sr.Errors = []string{fmt.Sprintf("failed to read golden file: %v", err)}
			return sr
		case !bytes.Equal(golden, trace):
			sr.Errors = []string{"trace does not match golden file (run with --update to regenerate)"}
			return sr
		}
	}

	sr.Pass = result.Pass
	sr.Errors = result.Errors
	return sr
}

func printScenario(w io.Writer, sr ScenarioResult, updated bool) {
	if !sr.Pass {
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	if updated {
		fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
		return
	}
	fmt.Fprintf(w, "✓ %s\n", sr.Name)
}

func scenarioName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// goldenFilePath returns the golden file for a scenario file. A relative
// golden directory is resolved against the scenario's directory.
func goldenFilePath(scenarioFile, goldenDir string) string {
	name := scenarioName(scenarioFile) + ".golden"
	if filepath.IsAbs(goldenDir) {
		return filepath.Join(goldenDir, name)
	}
	return filepath.Join(filepath.Dir(scenarioFile), goldenDir, name)
}

func writeGolden(path string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	return os.WriteFile(path, trace, 0o644)
}
