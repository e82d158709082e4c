package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/legalgate/internal/legal"
)

// FixturesOptions holds flags for the fixtures command.
type FixturesOptions struct {
	*RootOptions
	DryRun bool
}

// FixtureRow is one resolved or created acceptance in command output.
type FixtureRow struct {
	Row        int               `json:"row"`
	ID         string            `json:"id,omitempty"`
	Version    string            `json:"version"`
	Account    string            `json:"account,omitempty"`
	AcceptedAt string            `json:"accepted_at"`
	Data       map[string]string `json:"data,omitempty"`
}

// FixturesResult is the output of the fixtures command.
type FixturesResult struct {
	Document string       `json:"document"`
	DryRun   bool         `json:"dry_run"`
	Rows     []FixtureRow `json:"rows"`
}

// NewFixturesCommand creates the fixtures command.
func NewFixturesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FixturesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fixtures <document-label> <table-file>",
		Short: "Create acceptances from a fixture table",
		Long: `Create acceptances of one legal document from a CSV or YAML table.

Recognized columns:
  uid                    account ID or name
  document_version_name  version ID or label (default: the published version)
  acceptance_date        absolute or relative time (default: now)

Other columns are stored with the acceptance. Rows are created in order and
the first failing row stops the batch.

Exit codes:
  0 - All rows created
  1 - Fixture error (unknown document, bad date, unknown version or account)
  2 - Command error (missing table, database not found, etc.)

Examples:
  legalgate fixtures my_terms acceptances.csv
  legalgate fixtures my_terms acceptances.yaml --dry-run`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixtures(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "resolve rows without creating acceptances")

	return cmd
}

func runFixtures(opts *FixturesOptions, label, tablePath string, cmd *cobra.Command) error {
	rows, err := readTable(tablePath)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read table %s", tablePath), err)
	}

	svc, err := opts.openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	out := opts.formatter(cmd)
	result := FixturesResult{Document: label, DryRun: opts.DryRun, Rows: []FixtureRow{}}

	if opts.DryRun {
		inputs, err := svc.builder.Build(ctx, label, rows)
		if err != nil {
			return out.Fail("fixture table rejected", err)
		}
		for i, in := range inputs {
			result.Rows = append(result.Rows, inputRow(i, in))
		}
	} else {
		created, err := svc.builder.Apply(ctx, label, rows)
		for i, acc := range created {
			result.Rows = append(result.Rows, acceptanceRow(i, acc))
		}
		if err != nil {
			svc.logger.Warn("fixture batch stopped", "document", label, "created", len(created))
			return out.Fail(fmt.Sprintf("fixture batch stopped after %d row(s)", len(created)), err)
		}
	}

	return out.Success(result, func(w io.Writer) {
		verb := "created"
		if result.DryRun {
			verb = "resolved"
		}
		for _, r := range result.Rows {
			fmt.Fprintf(w, "row %d: version=%s", r.Row, r.Version)
			if r.Account != "" {
				fmt.Fprintf(w, " account=%s", r.Account)
			}
			fmt.Fprintf(w, " accepted_at=%s", r.AcceptedAt)
			if r.ID != "" {
				fmt.Fprintf(w, " id=%s", r.ID)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%d acceptance(s) %s for %s\n", len(result.Rows), verb, label)
	})
}

func inputRow(i int, in legal.AcceptanceInput) FixtureRow {
	r := FixtureRow{
		Row:        i,
		AcceptedAt: in.AcceptedAt.UTC().Format(time.RFC3339),
		Data:       map[string]string{},
	}
	if in.VersionName != nil {
		r.Version = *in.VersionName
	}
	for _, name := range in.FieldNames() {
		v, _ := in.Field(name)
		if name == legal.ColumnAccount {
			r.Account = v
			continue
		}
		r.Data[name] = v
	}
	return r
}

func acceptanceRow(i int, acc *legal.Acceptance) FixtureRow {
	return FixtureRow{
		Row:        i,
		ID:         acc.ID,
		Version:    acc.VersionID,
		Account:    acc.AccountID,
		AcceptedAt: acc.AcceptedAt.UTC().Format(time.RFC3339),
		Data:       acc.Data,
	}
}
