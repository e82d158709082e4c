package harness

import "github.com/roach88/legalgate/internal/legal"

// Trace event types.
const (
	EventScenarioStarted      = "scenario_started"
	EventEnforcementSuspended = "enforcement_suspended"
	EventAcceptanceCreated    = "acceptance_created"
	EventAutoAccepted         = "auto_accepted"
	EventDocumentRemoved      = "document_removed"
	EventStepFailed           = "step_failed"
	EventEnforcementRestored  = "enforcement_restored"
	EventRestoreSkipped       = "restore_skipped"
	EventScenarioEnded        = "scenario_ended"
)

// TraceEvent records one observable effect of a scenario run.
// Unused fields are left zero and omitted from golden traces.
type TraceEvent struct {
	Type       string          `json:"type"`
	Seq        int64           `json:"seq"`
	Step       int             `json:"step,omitempty"` // one-based; zero outside steps
	Document   string          `json:"document,omitempty"`
	Account    string          `json:"account,omitempty"`
	Version    string          `json:"version,omitempty"`
	Acceptance string          `json:"acceptance,omitempty"`
	AcceptedAt string          `json:"accepted_at,omitempty"`
	Code       string          `json:"code,omitempty"`
	Count      int             `json:"count,omitempty"`
	Manual     bool            `json:"manual,omitempty"`
	Flags      *legal.FlagPair `json:"flags,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Trace contains every event in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an error message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends an event, stamping it with the next sequence number.
func (r *Result) AddEvent(e TraceEvent) {
	e.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, e)
}

// Events returns the events of the given type in order.
func (r *Result) Events(eventType string) []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
