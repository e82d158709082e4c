package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines an acceptance fixture scenario.
// A scenario seeds documents and accounts, runs fixture steps between the
// start and end hooks, and asserts on the resulting records and flags.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tags are the scenario's tags. The manual acceptance tag opts out of
	// enforcement suppression.
	Tags []string `yaml:"tags,omitempty"`

	// Now is the fixed RFC 3339 time the scenario runs at.
	// If empty, defaults to DefaultNow.
	Now string `yaml:"now,omitempty"`

	// Timezone is the IANA location for time expressions. Defaults to UTC.
	Timezone string `yaml:"timezone,omitempty"`

	Accounts  []AccountSeed  `yaml:"accounts,omitempty"`
	Documents []DocumentSeed `yaml:"documents,omitempty"`

	// Steps run in order between the start and end hooks.
	Steps []Step `yaml:"steps"`

	// Assertions validate records and flags.
	// Supported types: acceptance_count, acceptance, document_flags
	Assertions []Assertion `yaml:"assertions"`
}

// DefaultNow is the scenario clock when a scenario does not set one.
const DefaultNow = "2024-01-01T00:00:00Z"

// AccountSeed is an account that exists before the scenario starts.
type AccountSeed struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name,omitempty"`
}

// DocumentSeed is a document that exists before the scenario starts.
type DocumentSeed struct {
	ID              string        `yaml:"id"`
	Label           string        `yaml:"label"`
	RequireSignup   bool          `yaml:"require_signup,omitempty"`
	RequireExisting bool          `yaml:"require_existing,omitempty"`
	Versions        []VersionSeed `yaml:"versions,omitempty"`
}

// VersionSeed is a version of a seeded document.
type VersionSeed struct {
	ID        string `yaml:"id"`
	Label     string `yaml:"label"`
	Published bool   `yaml:"published,omitempty"`
}

// Step is a single scenario step. Exactly one action field is set.
type Step struct {
	// AcceptDocuments applies an acceptance table to one document.
	AcceptDocuments *AcceptDocumentsStep `yaml:"accept_documents,omitempty"`

	// AutoAccept accepts required documents on behalf of an account.
	AutoAccept *AutoAcceptStep `yaml:"auto_accept,omitempty"`

	// RemoveDocument deletes the document with this ID.
	RemoveDocument string `yaml:"remove_document,omitempty"`

	// ExpectError is the fixture error code the step must fail with.
	// If empty, the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// AcceptDocumentsStep is an acceptance table for one document.
type AcceptDocumentsStep struct {
	// Document is the document label.
	Document string `yaml:"document"`

	// Rows are the table rows. Empty or missing cells use the defaults.
	Rows []map[string]string `yaml:"rows"`
}

// AutoAcceptStep auto-accepts documents for an account.
type AutoAcceptStep struct {
	// Account is the account ID or name.
	Account string `yaml:"account"`

	// Documents are document labels. If empty, every document is considered.
	Documents []string `yaml:"documents,omitempty"`
}

// Kind returns the step's action name.
func (s Step) Kind() string {
	switch {
	case s.AcceptDocuments != nil:
		return StepAcceptDocuments
	case s.AutoAccept != nil:
		return StepAutoAccept
	case s.RemoveDocument != "":
		return StepRemoveDocument
	default:
		return ""
	}
}

// Step kind constants.
const (
	StepAcceptDocuments = "accept_documents"
	StepAutoAccept      = "auto_accept"
	StepRemoveDocument  = "remove_document"
)

// Assertion validates acceptances or document flags.
type Assertion struct {
	// Type specifies the assertion type:
	// - "acceptance_count": Count acceptances matching the filters
	// - "acceptance": Check the acceptance at Index in creation order
	// - "document_flags": Check a document's requirement flags
	Type string `yaml:"type"`

	// Phase is "during" (before the end hook) or "after" (the default).
	Phase string `yaml:"phase,omitempty"`

	// Document is a document ID (acceptance_count, document_flags).
	Document string `yaml:"document,omitempty"`

	// Account is an account ID or name (acceptance_count, acceptance).
	Account string `yaml:"account,omitempty"`

	// Version is a version ID (acceptance_count, acceptance).
	Version string `yaml:"version,omitempty"`

	// Count is the expected number of acceptances (acceptance_count).
	Count int `yaml:"count,omitempty"`

	// Index is the zero-based acceptance position (acceptance).
	Index int `yaml:"index,omitempty"`

	// AcceptedAt is the expected RFC 3339 acceptance time (acceptance).
	AcceptedAt string `yaml:"accepted_at,omitempty"`

	// Data contains expected pass-through columns (acceptance).
	// Subset match - only specified fields are validated.
	Data map[string]string `yaml:"data,omitempty"`

	// RequireSignup and RequireExisting are the expected flags
	// (document_flags).
	RequireSignup   bool `yaml:"require_signup,omitempty"`
	RequireExisting bool `yaml:"require_existing,omitempty"`
}

// Assertion type constants.
const (
	AssertAcceptanceCount = "acceptance_count"
	AssertAcceptance      = "acceptance"
	AssertDocumentFlags   = "document_flags"
)

// Assertion phase constants.
const (
	PhaseDuring = "during"
	PhaseAfter  = "after"
)

// EffectivePhase returns the assertion's phase, defaulting to after.
func (a Assertion) EffectivePhase() string {
	if a.Phase == "" {
		return PhaseAfter
	}
	return a.Phase
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or violates the scenario schema.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(filepath.Base(path), data)
}

// ParseScenario parses scenario YAML. The name is used in error messages.
func ParseScenario(name string, data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSchema(name, data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the YAML files under dir in lexical order. A
// non-empty filter is a glob matched against the file name without its
// extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// validateScenario checks the cross-field rules the schema cannot express.
func validateScenario(s *Scenario) error {
	if s.Now != "" {
		if _, err := time.Parse(time.RFC3339, s.Now); err != nil {
			return fmt.Errorf("now: %w", err)
		}
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}

	accounts := map[string]bool{}
	for i, a := range s.Accounts {
		if accounts[a.ID] {
			return fmt.Errorf("accounts[%d]: duplicate id %q", i, a.ID)
		}
		accounts[a.ID] = true
	}

	documents := map[string]bool{}
	for i, d := range s.Documents {
		if documents[d.ID] {
			return fmt.Errorf("documents[%d]: duplicate id %q", i, d.ID)
		}
		documents[d.ID] = true

		published := 0
		for _, v := range d.Versions {
			if v.Published {
				published++
			}
		}
		if published > 1 {
			return fmt.Errorf("documents[%d]: at most one version may be published", i)
		}
	}

	for i, step := range s.Steps {
		if step.Kind() == "" {
			return fmt.Errorf("steps[%d]: no action", i)
		}
	}

	for i, a := range s.Assertions {
		if a.Type == AssertAcceptance && a.AcceptedAt != "" {
			if _, err := time.Parse(time.RFC3339, a.AcceptedAt); err != nil {
				return fmt.Errorf("assertions[%d].accepted_at: %w", i, err)
			}
		}
	}

	return nil
}
