package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/legalgate/internal/canonical"
	"github.com/roach88/legalgate/internal/legal"
)

// ManualTag opts a scenario out of enforcement suppression.
const ManualTag = "entity_legal_accept_manually"

// ScenarioContext carries the enforcement state suspended at scenario start
// until it is restored at scenario end.
//
// A context is owned by exactly one scenario run. It is not safe for
// concurrent use.
type ScenarioContext struct {
	manual   bool
	snapshot map[string]legal.FlagPair
}

// NewScenarioContext returns an empty, non-manual context.
func NewScenarioContext() *ScenarioContext {
	return &ScenarioContext{snapshot: map[string]legal.FlagPair{}}
}

// Manual reports whether the scenario manages acceptance itself.
func (sc *ScenarioContext) Manual() bool {
	return sc != nil && sc.manual
}

// Len returns the number of suspended documents.
func (sc *ScenarioContext) Len() int {
	if sc == nil {
		return 0
	}
	return len(sc.snapshot)
}

// Flags returns the suspended flags of a document.
func (sc *ScenarioContext) Flags(documentID string) (legal.FlagPair, bool) {
	if sc == nil {
		return legal.FlagPair{}, false
	}
	f, ok := sc.snapshot[documentID]
	return f, ok
}

// DocumentIDs returns the suspended document IDs in ascending order.
func (sc *ScenarioContext) DocumentIDs() []string {
	if sc == nil {
		return nil
	}
	return canonical.SortedKeys(sc.snapshot)
}

func (sc *ScenarioContext) record(doc *legal.Document) {
	if sc.snapshot == nil {
		sc.snapshot = map[string]legal.FlagPair{}
	}
	sc.snapshot[doc.ID] = doc.Flags()
}

func (sc *ScenarioContext) clear() {
	sc.snapshot = map[string]legal.FlagPair{}
}

type scenarioContextJSON struct {
	Manual    bool                      `json:"manual"`
	Documents map[string]legal.FlagPair `json:"documents"`
}

// MarshalJSON encodes the context so that it can be restored by another
// process.
func (sc *ScenarioContext) MarshalJSON() ([]byte, error) {
	docs := sc.snapshot
	if docs == nil {
		docs = map[string]legal.FlagPair{}
	}
	return json.Marshal(scenarioContextJSON{Manual: sc.manual, Documents: docs})
}

// UnmarshalJSON decodes a context written by MarshalJSON.
func (sc *ScenarioContext) UnmarshalJSON(data []byte) error {
	var raw scenarioContextJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode scenario context: %w", err)
	}
	sc.manual = raw.Manual
	sc.snapshot = raw.Documents
	if sc.snapshot == nil {
		sc.snapshot = map[string]legal.FlagPair{}
	}
	return nil
}

// SnapshotManager suspends and restores document enforcement around a
// scenario.
type SnapshotManager struct {
	docs      legal.DocumentRepository
	manualTag string
	logger    *slog.Logger
}

// SnapshotOption configures a SnapshotManager.
type SnapshotOption func(*SnapshotManager)

// WithManualTag overrides the opt-out tag. Empty keeps ManualTag.
func WithManualTag(tag string) SnapshotOption {
	return func(m *SnapshotManager) {
		if tag != "" {
			m.manualTag = tag
		}
	}
}

// WithSnapshotLogger sets the logger. Defaults to discarding.
func WithSnapshotLogger(logger *slog.Logger) SnapshotOption {
	return func(m *SnapshotManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewSnapshotManager creates a manager over the given repository.
func NewSnapshotManager(docs legal.DocumentRepository, opts ...SnapshotOption) *SnapshotManager {
	m := &SnapshotManager{
		docs:      docs,
		manualTag: ManualTag,
		logger:    discardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ManualTag returns the tag that opts a scenario out of suppression.
func (m *SnapshotManager) ManualTag() string {
	return m.manualTag
}

// Start suspends every enforced document unless tags carry the manual tag.
//
// Each enforced document's flags are recorded and then cleared. If saving a
// document fails, Start returns the context holding what was suspended so
// far along with the error; passing that context to End restores it.
func (m *SnapshotManager) Start(ctx context.Context, tags []string) (*ScenarioContext, error) {
	sc := NewScenarioContext()
	if slices.Contains(tags, m.manualTag) {
		sc.manual = true
		m.logger.Debug("manual acceptance scenario, enforcement untouched", "tag", m.manualTag)
		return sc, nil
	}

	docs, err := m.docs.LoadAll(ctx, nil)
	if err != nil {
		return sc, fmt.Errorf("suspend enforcement: %w", err)
	}

	for _, doc := range docs {
		if !doc.Enforced() {
			continue
		}
		flags := doc.Flags()
		sc.record(doc)
		doc.SetFlags(legal.FlagPair{})
		if err := m.docs.Save(ctx, doc); err != nil {
			return sc, fmt.Errorf("suspend enforcement of %q: %w", doc.ID, err)
		}
		m.logger.Debug("enforcement suspended",
			"document", doc.ID,
			"require_signup", flags.RequireSignup,
			"require_existing", flags.RequireExisting,
		)
	}

	m.logger.Info("scenario started", "suspended", sc.Len())
	return sc, nil
}

// End restores the flags recorded by Start.
//
// Documents deleted during the scenario are skipped with a warning. Save
// failures do not stop the restore; they are joined and returned. The
// context is always empty when End returns.
func (m *SnapshotManager) End(ctx context.Context, sc *ScenarioContext) error {
	if sc == nil || sc.manual || sc.Len() == 0 {
		return nil
	}
	defer sc.clear()

	ids := sc.DocumentIDs()
	docs, err := m.docs.LoadAll(ctx, ids)
	if err != nil {
		return fmt.Errorf("restore enforcement: %w", err)
	}

	found := make(map[string]*legal.Document, len(docs))
	for _, doc := range docs {
		found[doc.ID] = doc
	}

	var errs []error
	restored := 0
	for _, id := range ids {
		doc, ok := found[id]
		if !ok {
			m.logger.Warn("restore skipped", "document", id, "reason", "document no longer exists")
			continue
		}
		doc.SetFlags(sc.snapshot[id])
		if err := m.docs.Save(ctx, doc); err != nil {
			errs = append(errs, fmt.Errorf("restore enforcement of %q: %w", id, err))
			continue
		}
		restored++
	}

	m.logger.Info("scenario ended", "restored", restored, "skipped", len(ids)-len(docs))
	return errors.Join(errs...)
}

// Skipped returns the suspended document IDs that no longer exist in the
// repository. End would skip exactly these.
func (m *SnapshotManager) Skipped(ctx context.Context, sc *ScenarioContext) ([]string, error) {
	if sc.Len() == 0 {
		return nil, nil
	}
	ids := sc.DocumentIDs()
	docs, err := m.docs.LoadAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(docs))
	for _, doc := range docs {
		present[doc.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
