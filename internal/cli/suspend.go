package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/legalgate/internal/fixture"
)

// DefaultStateFile holds the suspended enforcement state between
// suspend and restore.
const DefaultStateFile = ".legalgate-state.json"

// SuspendOptions holds flags for the suspend command.
type SuspendOptions struct {
	*RootOptions
	State string
	Tags  []string
}

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	State string
}

// SnapshotResult is the output of suspend and restore.
type SnapshotResult struct {
	State     string   `json:"state"`
	Manual    bool     `json:"manual"`
	Documents []string `json:"documents"`
	Skipped   []string `json:"skipped,omitempty"`
}

// NewSuspendCommand creates the suspend command.
func NewSuspendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SuspendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "suspend",
		Short: "Suspend agreement enforcement before a test run",
		Long: `Clear the agreement requirements of every enforced document and save
the previous values to a state file. Run "legalgate restore" afterwards.

Passing the manual acceptance tag leaves enforcement untouched.

Examples:
  legalgate suspend
  legalgate suspend --state /tmp/run-42.json
  legalgate suspend --tag entity_legal_accept_manually`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuspend(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", DefaultStateFile, "state file to write")
	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "scenario tag (repeatable)")

	return cmd
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore agreement enforcement after a test run",
		Long: `Restore the agreement requirements saved by "legalgate suspend" and
remove the state file. Documents deleted in the meantime are skipped.

Examples:
  legalgate restore
  legalgate restore --state /tmp/run-42.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", DefaultStateFile, "state file to read")

	return cmd
}

func runSuspend(opts *SuspendOptions, cmd *cobra.Command) error {
	if _, err := os.Stat(opts.State); err == nil {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("state file %s already exists: run restore first", opts.State))
	}

	svc, err := opts.openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	sc, err := svc.snapshots.Start(ctx, opts.Tags)
	if err != nil {
		// Undo whatever was suspended before the failure.
		if endErr := svc.snapshots.End(ctx, sc); endErr != nil {
			err = errors.Join(err, endErr)
		}
		return WrapExitError(ExitCommandError, "failed to suspend enforcement", err)
	}

	if err := writeState(opts.State, sc); err != nil {
		if endErr := svc.snapshots.End(ctx, sc); endErr != nil {
			err = errors.Join(err, endErr)
		}
		return WrapExitError(ExitCommandError, "failed to write state file", err)
	}

	result := SnapshotResult{State: opts.State, Manual: sc.Manual(), Documents: sc.DocumentIDs()}
	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		if result.Manual {
			fmt.Fprintln(w, "Manual acceptance: enforcement left untouched")
			return
		}
		fmt.Fprintf(w, "Suspended %d document(s), state saved to %s\n", len(result.Documents), result.State)
		for _, id := range result.Documents {
			fmt.Fprintf(w, "  %s\n", id)
		}
	})
}

func runRestore(opts *RestoreOptions, cmd *cobra.Command) error {
	sc, err := readState(opts.State)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read state file", err)
	}

	svc, err := opts.openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	ids := sc.DocumentIDs()
	skipped, err := svc.snapshots.Skipped(ctx, sc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load documents", err)
	}
	if err := svc.snapshots.End(ctx, sc); err != nil {
		return WrapExitError(ExitCommandError, "failed to restore enforcement", err)
	}
	if err := os.Remove(opts.State); err != nil {
		return WrapExitError(ExitCommandError, "failed to remove state file", err)
	}

	result := SnapshotResult{
		State:     opts.State,
		Manual:    sc.Manual(),
		Documents: without(ids, skipped),
		Skipped:   skipped,
	}
	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Restored %d document(s)\n", len(result.Documents))
		for _, id := range result.Skipped {
			fmt.Fprintf(w, "  skipped %s: document no longer exists\n", id)
		}
	})
}

func writeState(path string, sc *fixture.ScenarioContext) error {
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func readState(path string) (*fixture.ScenarioContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := fixture.NewScenarioContext()
	if err := json.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return sc, nil
}

func without(ids, drop []string) []string {
	out := []string{}
	for _, id := range ids {
		if !slices.Contains(drop, id) {
			out = append(out, id)
		}
	}
	return out
}
