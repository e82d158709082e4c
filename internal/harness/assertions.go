package harness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/legalgate/internal/legal"
	"github.com/roach88/legalgate/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Phase    string
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s (%s)\n", e.Type, e.Phase)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// evaluate checks the assertions of one phase and records failures.
func (h *Harness) evaluate(ctx context.Context, assertions []Assertion, phase string, result *Result) {
	for _, errMsg := range EvaluateAssertions(ctx, h.store, assertions, phase) {
		result.AddError(errMsg)
	}
}

// EvaluateAssertions checks the assertions of the given phase against the
// store and returns the failure messages.
func EvaluateAssertions(ctx context.Context, st *store.Store, assertions []Assertion, phase string) []string {
	var errs []string
	for i, a := range assertions {
		if a.EffectivePhase() != phase {
			continue
		}
		if err := evaluateAssertion(ctx, st, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(ctx context.Context, st *store.Store, a Assertion) error {
	switch a.Type {
	case AssertAcceptanceCount:
		return assertAcceptanceCount(ctx, st, a)
	case AssertAcceptance:
		return assertAcceptance(ctx, st, a)
	case AssertDocumentFlags:
		return assertDocumentFlags(ctx, st, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertAcceptanceCount checks the number of acceptances matching the
// document, account and version filters.
func assertAcceptanceCount(ctx context.Context, st *store.Store, a Assertion) error {
	n, err := st.Acceptances().Count(ctx, store.AcceptanceFilter{
		DocumentID: a.Document,
		VersionID:  a.Version,
		AccountID:  a.Account,
	})
	if err != nil {
		return err
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertAcceptanceCount,
			Phase:    a.EffectivePhase(),
			Expected: fmt.Sprintf("%d acceptance(s) %s", a.Count, describeFilter(a)),
			Actual:   fmt.Sprintf("%d", n),
		}
	}
	return nil
}

// assertAcceptance checks the acceptance at a.Index in creation order.
// Only the fields set on the assertion are compared.
func assertAcceptance(ctx context.Context, st *store.Store, a Assertion) error {
	list, err := st.Acceptances().List(ctx, store.AcceptanceFilter{})
	if err != nil {
		return err
	}
	fail := func(expected, actual string) error {
		return &AssertionError{Type: AssertAcceptance, Phase: a.EffectivePhase(), Expected: expected, Actual: actual}
	}

	if a.Index >= len(list) {
		return fail(fmt.Sprintf("acceptance at index %d", a.Index), fmt.Sprintf("%d acceptance(s)", len(list)))
	}
	acc := list[a.Index]

	if a.Version != "" && acc.VersionID != a.Version {
		return fail(fmt.Sprintf("version %s", a.Version), fmt.Sprintf("version %s", acc.VersionID))
	}
	if a.Account != "" {
		acct, err := st.Accounts().Resolve(ctx, a.Account)
		if err != nil {
			return err
		}
		if acc.AccountID != acct.ID {
			return fail(fmt.Sprintf("account %s", acct.ID), fmt.Sprintf("account %s", acc.AccountID))
		}
	}
	if a.AcceptedAt != "" {
		want, err := time.Parse(time.RFC3339, a.AcceptedAt)
		if err != nil {
			return err
		}
		if !acc.AcceptedAt.Equal(want) {
			return fail(
				fmt.Sprintf("accepted at %s", want.UTC().Format(time.RFC3339)),
				fmt.Sprintf("accepted at %s", acc.AcceptedAt.UTC().Format(time.RFC3339)),
			)
		}
	}
	for k, want := range a.Data {
		if got, ok := acc.Data[k]; !ok || got != want {
			return fail(fmt.Sprintf("data %s=%q", k, want), fmt.Sprintf("data %v", acc.Data))
		}
	}
	return nil
}

// assertDocumentFlags checks both requirement flags of a document.
func assertDocumentFlags(ctx context.Context, st *store.Store, a Assertion) error {
	doc, err := st.Documents().Get(ctx, a.Document)
	if err != nil {
		return err
	}
	want := legal.FlagPair{RequireSignup: a.RequireSignup, RequireExisting: a.RequireExisting}
	if got := doc.Flags(); got != want {
		return &AssertionError{
			Type:     AssertDocumentFlags,
			Phase:    a.EffectivePhase(),
			Expected: fmt.Sprintf("%s %s", a.Document, describeFlags(want)),
			Actual:   describeFlags(got),
		}
	}
	return nil
}

func describeFilter(a Assertion) string {
	var parts []string
	if a.Document != "" {
		parts = append(parts, "document="+a.Document)
	}
	if a.Version != "" {
		parts = append(parts, "version="+a.Version)
	}
	if a.Account != "" {
		parts = append(parts, "account="+a.Account)
	}
	if len(parts) == 0 {
		return "in total"
	}
	return "with " + strings.Join(parts, " ")
}

func describeFlags(f legal.FlagPair) string {
	return fmt.Sprintf("require_signup=%t require_existing=%t", f.RequireSignup, f.RequireExisting)
}
