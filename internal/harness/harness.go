package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/legalgate/internal/fixture"
	"github.com/roach88/legalgate/internal/legal"
	"github.com/roach88/legalgate/internal/store"
	"github.com/roach88/legalgate/internal/testutil"
	"github.com/roach88/legalgate/internal/timeexpr"
)

// Harness runs one scenario against a private store.
type Harness struct {
	store     *store.Store
	clock     *testutil.FixedClock
	snapshots *fixture.SnapshotManager
	builder   *fixture.BatchBuilder
	acceptor  *fixture.AutoAcceptor
	logger    *slog.Logger
}

// Option configures a scenario run.
type Option func(*options)

type options struct {
	manualTag string
}

// WithManualTag overrides the tag that opts a scenario out of suppression.
func WithManualTag(tag string) Option {
	return func(o *options) {
		o.manualTag = tag
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// fixed clock and sequential acceptance IDs so that traces are reproducible.
//
// Execution flow:
// 1. Seed accounts, documents and versions
// 2. Run the start hook with the scenario's tags
// 3. Execute steps, stopping at the first unexpected failure
// 4. Evaluate "during" assertions
// 5. Run the end hook (always, via defer)
// 6. Evaluate "after" assertions
//
// An error is returned only when the scenario cannot be set up. Step and
// assertion failures are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	now := scenario.Now
	if now == "" {
		now = DefaultNow
	}
	start, err := time.Parse(time.RFC3339, now)
	if err != nil {
		return nil, fmt.Errorf("invalid now: %w", err)
	}
	tz := scenario.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := timeexpr.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewSequenceIDGenerator("acceptance")))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	clock := testutil.NewFixedClock(start.In(loc))
	times := timeexpr.NewResolver(clock, loc)

	h := &Harness{
		store:     st,
		clock:     clock,
		snapshots: fixture.NewSnapshotManager(st.Documents(), fixture.WithManualTag(o.manualTag), fixture.WithSnapshotLogger(logger)),
		builder:   fixture.NewBatchBuilder(st.Documents(), st.Acceptances(), clock, times, logger),
		acceptor:  fixture.NewAutoAcceptor(st.Documents(), st.Acceptances(), st.Acceptances(), clock, logger),
		logger:    logger,
	}

	ctx := context.Background()
	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed scenario: %w", err)
	}

	result := NewResult()
	h.execute(ctx, scenario, result)
	h.evaluate(ctx, scenario.Assertions, PhaseAfter, result)

	return result, nil
}

// seed creates the scenario's accounts, documents and versions.
func (h *Harness) seed(ctx context.Context, s *Scenario) error {
	for _, a := range s.Accounts {
		if err := h.store.Accounts().Create(ctx, legal.Account{ID: a.ID, Name: a.Name}); err != nil {
			return err
		}
	}
	for _, d := range s.Documents {
		doc := &legal.Document{
			ID:              d.ID,
			Label:           d.Label,
			RequireSignup:   d.RequireSignup,
			RequireExisting: d.RequireExisting,
		}
		if err := h.store.Documents().Create(ctx, doc); err != nil {
			return err
		}
		for _, v := range d.Versions {
			version := &legal.Version{ID: v.ID, Label: v.Label, DocumentID: d.ID, Published: v.Published}
			if err := h.store.Documents().CreateVersion(ctx, version); err != nil {
				return err
			}
		}
	}
	return nil
}

// execute runs the steps between the start and end hooks. The end hook runs
// even if a step fails.
func (h *Harness) execute(ctx context.Context, s *Scenario, result *Result) {
	sc, err := h.snapshots.Start(ctx, s.Tags)
	defer h.end(ctx, sc, result)

	result.AddEvent(TraceEvent{Type: EventScenarioStarted, Manual: sc.Manual(), Count: sc.Len()})
	for _, id := range sc.DocumentIDs() {
		flags, _ := sc.Flags(id)
		result.AddEvent(TraceEvent{Type: EventEnforcementSuspended, Document: id, Flags: &flags})
	}
	if err != nil {
		result.AddError(fmt.Sprintf("start hook failed: %v", err))
		return
	}

	for i, step := range s.Steps {
		if !h.executeStep(ctx, i+1, step, result) {
			break
		}
	}

	h.evaluate(ctx, s.Assertions, PhaseDuring, result)
}

// end runs the end hook and traces what it restored and skipped.
func (h *Harness) end(ctx context.Context, sc *fixture.ScenarioContext, result *Result) {
	ids := sc.DocumentIDs()
	skipped, err := h.snapshots.Skipped(ctx, sc)
	if err != nil {
		result.AddError(fmt.Sprintf("end hook failed: %v", err))
	}
	isSkipped := make(map[string]bool, len(skipped))
	for _, id := range skipped {
		isSkipped[id] = true
	}

	if err := h.snapshots.End(ctx, sc); err != nil {
		result.AddError(fmt.Sprintf("end hook failed: %v", err))
	}

	for _, id := range ids {
		if isSkipped[id] {
			result.AddEvent(TraceEvent{Type: EventRestoreSkipped, Document: id})
			continue
		}
		result.AddEvent(TraceEvent{Type: EventEnforcementRestored, Document: id})
	}
	result.AddEvent(TraceEvent{Type: EventScenarioEnded})
}

// executeStep runs one step and reports whether execution should continue.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) bool {
	err := h.runStep(ctx, n, step, result)

	switch {
	case err == nil && step.ExpectError == "":
		return true
	case err == nil:
		result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got success", n, step.Kind(), step.ExpectError))
		return false
	}

	code := errorCode(err)
	result.AddEvent(TraceEvent{Type: EventStepFailed, Step: n, Code: code})
	if code == step.ExpectError {
		return true
	}
	result.AddError(fmt.Sprintf("step %d (%s): %v", n, step.Kind(), err))
	return false
}

func (h *Harness) runStep(ctx context.Context, n int, step Step, result *Result) error {
	switch step.Kind() {
	case StepAcceptDocuments:
		return h.acceptDocuments(ctx, n, step.AcceptDocuments, result)
	case StepAutoAccept:
		return h.autoAccept(ctx, n, step.AutoAccept, result)
	case StepRemoveDocument:
		if err := h.store.Documents().Delete(ctx, step.RemoveDocument); err != nil {
			return err
		}
		result.AddEvent(TraceEvent{Type: EventDocumentRemoved, Step: n, Document: step.RemoveDocument})
		return nil
	default:
		return fmt.Errorf("step has no action")
	}
}

func (h *Harness) acceptDocuments(ctx context.Context, n int, step *AcceptDocumentsStep, result *Result) error {
	created, err := h.builder.Apply(ctx, step.Document, step.Rows)
	for _, acc := range created {
		result.AddEvent(TraceEvent{
			Type:       EventAcceptanceCreated,
			Step:       n,
			Document:   step.Document,
			Account:    acc.AccountID,
			Version:    acc.VersionID,
			Acceptance: acc.ID,
			AcceptedAt: acc.AcceptedAt.UTC().Format(time.RFC3339),
		})
	}
	return err
}

func (h *Harness) autoAccept(ctx context.Context, n int, step *AutoAcceptStep, result *Result) error {
	var docs []*legal.Document
	if len(step.Documents) > 0 {
		docs = make([]*legal.Document, 0, len(step.Documents))
		for _, label := range step.Documents {
			doc, err := h.store.Documents().FindByLabel(ctx, label)
			if err != nil {
				return err
			}
			if doc == nil {
				return legal.NewDocumentNotFoundError(label)
			}
			docs = append(docs, doc)
		}
	}

	count, err := h.acceptor.AcceptAll(ctx, step.Account, docs)
	if err != nil {
		return err
	}
	result.AddEvent(TraceEvent{Type: EventAutoAccepted, Step: n, Account: step.Account, Count: count})
	return nil
}

// errorCode returns the fixture error code of err, or "ERROR".
func errorCode(err error) string {
	var fe *legal.FixtureError
	if errors.As(err, &fe) {
		return string(fe.Code)
	}
	return "ERROR"
}
