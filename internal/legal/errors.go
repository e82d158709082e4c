package legal

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repository lookups that match nothing.
var ErrNotFound = errors.New("not found")

// FixtureError represents a fixture authoring error.
//
// Fixture errors are deterministic: retrying the same input fails the same
// way, so they are surfaced to the step that declared the fixture.
type FixtureError struct {
	// Code identifies the error category.
	Code FixtureErrorCode

	// Message is a human-readable description.
	Message string

	// Label is the document label involved, if any.
	Label string

	// Expression is the offending time expression, if any.
	Expression string

	// Row is the zero-based fixture row index, or -1 when not row-specific.
	Row int

	// Err is the underlying cause, if any.
	Err error
}

// FixtureErrorCode categorizes fixture errors.
type FixtureErrorCode string

const (
	// ErrCodeDocumentNotFound indicates no document has the requested label.
	ErrCodeDocumentNotFound FixtureErrorCode = "DOCUMENT_NOT_FOUND"

	// ErrCodeInvalidTime indicates an acceptance_date could not be parsed.
	ErrCodeInvalidTime FixtureErrorCode = "INVALID_TIME_EXPRESSION"

	// ErrCodeVersionUnresolved indicates a row names no version, or one
	// that does not exist.
	ErrCodeVersionUnresolved FixtureErrorCode = "VERSION_UNRESOLVED"

	// ErrCodeAccountNotFound indicates the row's account does not exist.
	ErrCodeAccountNotFound FixtureErrorCode = "ACCOUNT_NOT_FOUND"
)

// Error implements the error interface.
func (e *FixtureError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Row >= 0 {
		msg = fmt.Sprintf("%s (row=%d)", msg, e.Row)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *FixtureError) Unwrap() error {
	return e.Err
}

// AtRow returns a copy of e attributed to the given row.
func (e *FixtureError) AtRow(row int) *FixtureError {
	cp := *e
	cp.Row = row
	return &cp
}

// NewDocumentNotFoundError creates a FixtureError for an unknown label.
func NewDocumentNotFoundError(label string) *FixtureError {
	return &FixtureError{
		Code:    ErrCodeDocumentNotFound,
		Message: fmt.Sprintf("There is no Entity Legal Document with label: %q", label),
		Label:   label,
		Row:     -1,
	}
}

// NewInvalidTimeError creates a FixtureError for an unparsable expression.
func NewInvalidTimeError(expr string, cause error) *FixtureError {
	return &FixtureError{
		Code:       ErrCodeInvalidTime,
		Message:    fmt.Sprintf("cannot parse time expression %q", expr),
		Expression: expr,
		Row:        -1,
		Err:        cause,
	}
}

// NewVersionUnresolvedError creates a FixtureError for a missing version.
// An empty name means the row named no version at all.
func NewVersionUnresolvedError(name string) *FixtureError {
	msg := "no document version given and the document has no published version"
	if name != "" {
		msg = fmt.Sprintf("no document version with id or label %q", name)
	}
	return &FixtureError{
		Code:    ErrCodeVersionUnresolved,
		Message: msg,
		Row:     -1,
	}
}

// NewAccountNotFoundError creates a FixtureError for an unknown account.
func NewAccountNotFoundError(account string) *FixtureError {
	msg := fmt.Sprintf("no account with id or name %q", account)
	if account == "" {
		msg = fmt.Sprintf("row has no %q column", ColumnAccount)
	}
	return &FixtureError{
		Code:    ErrCodeAccountNotFound,
		Message: msg,
		Row:     -1,
	}
}

func hasCode(err error, code FixtureErrorCode) bool {
	var fe *FixtureError
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// IsDocumentNotFound returns true if err is a DOCUMENT_NOT_FOUND fixture error.
// Uses errors.As to handle wrapped errors.
func IsDocumentNotFound(err error) bool {
	return hasCode(err, ErrCodeDocumentNotFound)
}

// IsInvalidTime returns true if err is an INVALID_TIME_EXPRESSION fixture error.
func IsInvalidTime(err error) bool {
	return hasCode(err, ErrCodeInvalidTime)
}

// IsVersionUnresolved returns true if err is a VERSION_UNRESOLVED fixture error.
func IsVersionUnresolved(err error) bool {
	return hasCode(err, ErrCodeVersionUnresolved)
}

// IsAccountNotFound returns true if err is an ACCOUNT_NOT_FOUND fixture error.
func IsAccountNotFound(err error) bool {
	return hasCode(err, ErrCodeAccountNotFound)
}
