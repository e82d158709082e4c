package timeexpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/legalgate/internal/legal"
	"github.com/roach88/legalgate/internal/testutil"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestResolver() *Resolver {
	return NewResolver(testutil.NewFixedClock(now), time.UTC)
}

func TestResolve_EmptyUsesDefault(t *testing.T) {
	r := newTestResolver()
	def := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	got, err := r.Resolve("", def)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	got, err = r.Resolve("   ", def)
	require.NoError(t, err)
	assert.Equal(t, def, got)
}

func TestResolve_EmptyWithoutDefaultUsesNow(t *testing.T) {
	r := newTestResolver()

	got, err := r.Resolve("", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, now, got)
}

func TestResolve_AbsoluteDate(t *testing.T) {
	r := newTestResolver()

	got, err := r.Resolve("2020-01-01", now)
	require.NoError(t, err)
	assert.True(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Equal(got), "got %s", got)
}

func TestResolve_AbsoluteDateTime(t *testing.T) {
	r := newTestResolver()

	got, err := r.Resolve("2021-07-04 15:30:00", time.Time{})
	require.NoError(t, err)
	assert.True(t, time.Date(2021, 7, 4, 15, 30, 0, 0, time.UTC).Equal(got), "got %s", got)
}

func TestResolve_AbsoluteUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	r := NewResolver(testutil.NewFixedClock(now), loc)

	got, err := r.Resolve("2020-01-01", time.Time{})
	require.NoError(t, err)
	assert.True(t, time.Date(2020, 1, 1, 0, 0, 0, 0, loc).Equal(got), "got %s", got)
	assert.True(t, time.Date(2019, 12, 31, 22, 0, 0, 0, time.UTC).Equal(got))
}

func TestResolve_RelativeYesterday(t *testing.T) {
	r := newTestResolver()

	got, err := r.Resolve("yesterday", time.Time{})
	require.NoError(t, err)
	assert.True(t, got.Before(now), "yesterday should be before now, got %s", got)
	assert.LessOrEqual(t, now.Sub(got), 48*time.Hour)
}

func TestResolve_RelativeDaysAgo(t *testing.T) {
	r := newTestResolver()

	got, err := r.Resolve("3 days ago", time.Time{})
	require.NoError(t, err)
	assert.True(t, got.After(now.Add(-4*24*time.Hour)), "got %s", got)
	assert.True(t, got.Before(now.Add(-2*24*time.Hour)), "got %s", got)
}

func TestResolve_RelativeIgnoresDefault(t *testing.T) {
	r := newTestResolver()
	def := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := r.Resolve("yesterday", def)
	require.NoError(t, err)
	assert.NotEqual(t, def, got)
}

func TestResolve_InvalidExpression(t *testing.T) {
	r := newTestResolver()

	_, err := r.Resolve("no such time ###", now)
	require.Error(t, err)
	assert.True(t, legal.IsInvalidTime(err))

	var fe *legal.FixtureError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "no such time ###", fe.Expression)
}

func TestResolve_UnknownWordIsInvalid(t *testing.T) {
	r := newTestResolver()

	for _, expr := range []string{"banana", "yesterdy", "foo yesterday", "last", "a", "3", "12345"} {
		t.Run(expr, func(t *testing.T) {
			_, err := r.Resolve(expr, now)
			require.Error(t, err)
			assert.True(t, legal.IsInvalidTime(err), "got %v", err)
		})
	}
}

func TestResolve_Now(t *testing.T) {
	r := newTestResolver()

	got, err := r.Resolve("now", time.Time{})
	require.NoError(t, err)
	assert.True(t, now.Equal(got), "got %s", got)

	got, err = r.Resolve("Last Week", time.Time{})
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 2, 23, 0, 0, 0, 0, time.UTC).Equal(got), "got %s", got)
}

func TestNewResolver_Defaults(t *testing.T) {
	r := NewResolver(nil, nil)
	assert.Equal(t, time.Local, r.Location())

	got, err := r.Resolve("", time.Time{})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), got, time.Minute)
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = LoadLocation("Local")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = LoadLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = LoadLocation("Not/AZone")
	assert.Error(t, err)
}
