package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/legalgate/internal/legal"
)

// AcceptOptions holds flags for the accept command.
type AcceptOptions struct {
	*RootOptions
	Documents []string // document labels; empty means all documents
}

// AcceptResult is the output of the accept command.
type AcceptResult struct {
	Account string `json:"account"`
	Created int    `json:"created"`
}

// NewAcceptCommand creates the accept command.
func NewAcceptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AcceptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "accept <account>",
		Short: "Accept required documents on behalf of an account",
		Long: `Accept the published version of every document the account is
required to agree to and has not agreed to yet. Running it again creates
nothing.

Examples:
  legalgate accept Admin
  legalgate accept 1 --document my_terms --document privacy_policy`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccept(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Documents, "document", nil, "document label to accept (repeatable)")

	return cmd
}

func runAccept(opts *AcceptOptions, account string, cmd *cobra.Command) error {
	svc, err := opts.openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	out := opts.formatter(cmd)

	var docs []*legal.Document
	for _, label := range opts.Documents {
		doc, err := svc.store.Documents().FindByLabel(ctx, label)
		if err != nil {
			return out.Fail("failed to find document", err)
		}
		if doc == nil {
			return out.Fail("auto accept rejected", legal.NewDocumentNotFoundError(label))
		}
		docs = append(docs, doc)
	}

	created, err := svc.acceptor.AcceptAll(ctx, account, docs)
	if err != nil {
		return out.Fail(fmt.Sprintf("auto accept stopped after %d acceptance(s)", created), err)
	}

	return out.Success(AcceptResult{Account: account, Created: created}, func(w io.Writer) {
		fmt.Fprintf(w, "%d acceptance(s) created for %s\n", created, account)
	})
}
