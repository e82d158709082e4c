package legal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixtureError_Error(t *testing.T) {
	err := NewDocumentNotFoundError("my_terms")
	assert.Equal(t, `DOCUMENT_NOT_FOUND: There is no Entity Legal Document with label: "my_terms"`, err.Error())
	assert.Equal(t, "my_terms", err.Label)
	assert.Equal(t, -1, err.Row)
}

func TestFixtureError_AtRow(t *testing.T) {
	base := NewVersionUnresolvedError("my_terms_999")
	atRow := base.AtRow(2)

	assert.Equal(t, -1, base.Row, "original is not modified")
	assert.Equal(t, 2, atRow.Row)
	assert.Contains(t, atRow.Error(), "(row=2)")
}

func TestFixtureError_Unwrap(t *testing.T) {
	cause := errors.New("bad month")
	err := NewInvalidTimeError("2020-13-01", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "2020-13-01", err.Expression)
	assert.Contains(t, err.Error(), "bad month")
}

func TestFixtureError_Predicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"document not found", NewDocumentNotFoundError("x"), IsDocumentNotFound},
		{"invalid time", NewInvalidTimeError("x", nil), IsInvalidTime},
		{"version unresolved", NewVersionUnresolvedError(""), IsVersionUnresolved},
		{"account not found", NewAccountNotFoundError("x"), IsAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)), "predicates see through wrapping")
		})
	}

	assert.False(t, IsDocumentNotFound(NewAccountNotFoundError("x")))
	assert.False(t, IsInvalidTime(errors.New("plain")))
	assert.False(t, IsVersionUnresolved(nil))
}

func TestNewVersionUnresolvedError_Messages(t *testing.T) {
	assert.Contains(t, NewVersionUnresolvedError("").Message, "no published version")
	assert.Contains(t, NewVersionUnresolvedError("v9").Message, `"v9"`)
}

func TestNewAccountNotFoundError_Messages(t *testing.T) {
	assert.Contains(t, NewAccountNotFoundError("").Message, `"uid"`)
	assert.Contains(t, NewAccountNotFoundError("Admin").Message, `"Admin"`)
}

func TestDocument_Flags(t *testing.T) {
	doc := &Document{ID: "terms", RequireSignup: true}
	assert.True(t, doc.Enforced())
	assert.Equal(t, FlagPair{RequireSignup: true}, doc.Flags())

	doc.SetFlags(FlagPair{})
	assert.False(t, doc.Enforced())

	doc.SetFlags(FlagPair{RequireExisting: true})
	assert.True(t, doc.RequireExisting)
	assert.False(t, doc.RequireSignup)
}

func TestAcceptanceInput_FieldNames(t *testing.T) {
	in := AcceptanceInput{Fields: map[string]string{"uid": "1", "b": "x", "a": "y"}}
	assert.Equal(t, []string{"a", "b", "uid"}, in.FieldNames())

	v, ok := in.Field("uid")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = in.Field("missing")
	assert.False(t, ok)
}
