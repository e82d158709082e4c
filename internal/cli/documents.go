package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// DocumentRow describes one document in command output.
type DocumentRow struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	RequireSignup   bool   `json:"require_signup"`
	RequireExisting bool   `json:"require_existing"`
	Published       string `json:"published,omitempty"`
}

// NewDocumentsCommand creates the documents command.
func NewDocumentsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List legal documents and their enforcement flags",
		Long: `List every legal document with its agreement requirements and the
label of its published version.

Examples:
  legalgate documents
  legalgate documents --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocuments(rootOpts, cmd)
		},
	}
	return cmd
}

func runDocuments(opts *RootOptions, cmd *cobra.Command) error {
	svc, err := opts.openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	docs := svc.store.Documents()
	all, err := docs.LoadAll(ctx, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list documents", err)
	}

	rows := make([]DocumentRow, 0, len(all))
	for _, doc := range all {
		v, err := docs.PublishedVersion(ctx, doc)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load published version of %s", doc.ID), err)
		}
		row := DocumentRow{
			ID:              doc.ID,
			Label:           doc.Label,
			RequireSignup:   doc.RequireSignup,
			RequireExisting: doc.RequireExisting,
		}
		if v != nil {
			row.Published = v.Label
		}
		rows = append(rows, row)
	}

	return opts.formatter(cmd).Success(rows, func(w io.Writer) {
		if len(rows) == 0 {
			fmt.Fprintln(w, "No documents.")
			return
		}
		fmt.Fprintln(w, documentsTable(rows))
	})
}

func documentsTable(rows []DocumentRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "LABEL", "SIGNUP", "EXISTING", "PUBLISHED")
	for _, r := range rows {
		published := r.Published
		if published == "" {
			published = "-"
		}
		t.Row(r.ID, r.Label, strconv.FormatBool(r.RequireSignup), strconv.FormatBool(r.RequireExisting), published)
	}
	return t.Render()
}
