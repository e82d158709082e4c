// Package timeexpr resolves human-written time expressions such as
// "yesterday", "3 days ago" or "2020-01-01" to timestamps.
package timeexpr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	naturaldate "github.com/tj/go-naturaldate"

	"github.com/roach88/legalgate/internal/legal"
)

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Resolver parses absolute and relative time expressions in a fixed
// location. Relative expressions are anchored at the clock's now.
type Resolver struct {
	clock legal.Clock
	loc   *time.Location
}

// NewResolver creates a resolver. A nil clock reads the wall clock and a nil
// location means time.Local.
func NewResolver(clock legal.Clock, loc *time.Location) *Resolver {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{clock: clock, loc: loc}
}

// Location returns the location expressions are interpreted in.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve implements legal.TimeResolver.
//
// An empty expression yields def, or the clock's now when def is zero. A
// non-empty expression never falls back to a default: if it is neither an
// absolute nor a relative time the result is an INVALID_TIME_EXPRESSION error.
func (r *Resolver) Resolve(expr string, def time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		if !def.IsZero() {
			return def, nil
		}
		return r.clock.Now(), nil
	}

	if t, err := dateparse.ParseIn(expr, r.loc); err == nil {
		return t, nil
	}

	if err := checkWords(expr); err != nil {
		return time.Time{}, legal.NewInvalidTimeError(expr, err)
	}

	ref := r.clock.Now().In(r.loc)
	t, err := naturaldate.Parse(expr, ref, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, legal.NewInvalidTimeError(expr, err)
	}
	// naturaldate hands back ref for input it could not interpret.
	if t.Equal(ref) && !anchoredAtNow(expr) {
		return time.Time{}, legal.NewInvalidTimeError(expr, errUnresolved)
	}
	return t, nil
}

var (
	errNoWords    = errors.New("not a date and no relative words")
	errUnresolved = errors.New("expression does not move the reference time")
	wordPattern   = regexp.MustCompile(`[a-z]+`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
)

// relativeWords is the vocabulary naturaldate understands. Any other word is
// silently skipped by its grammar, so it is rejected up front.
var relativeWords = map[string]bool{
	"now": true, "today": true, "yesterday": true, "tomorrow": true,
	"ago": true, "from": true, "in": true, "a": true, "an": true,
	"last": true, "past": true, "previous": true, "next": true,
	"am": true, "pm": true, "st": true, "nd": true, "rd": true, "th": true,
	"year": true, "years": true, "month": true, "months": true,
	"week": true, "weeks": true, "day": true, "days": true,
	"hour": true, "hours": true, "minute": true, "minutes": true,
	"one": true, "two": true, "three": true, "four": true, "five": true,
	"six": true, "seven": true, "eight": true, "nine": true, "ten": true,
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
}

// checkWords requires at least one word and only words from relativeWords.
// Bare numbers such as "3" or "12345" are not times.
func checkWords(expr string) error {
	words := wordPattern.FindAllString(strings.ToLower(expr), -1)
	if len(words) == 0 {
		return errNoWords
	}
	for _, w := range words {
		if !relativeWords[w] {
			return fmt.Errorf("unknown word %q", w)
		}
	}
	return nil
}

// anchoredAtNow reports whether an expression may legitimately resolve to the
// reference time itself, e.g. "now" or "0 minutes ago".
func anchoredAtNow(expr string) bool {
	lower := strings.ToLower(expr)
	for _, w := range wordPattern.FindAllString(lower, -1) {
		if w == "now" || w == "today" {
			return true
		}
	}
	return digitPattern.MatchString(lower)
}

// LoadLocation resolves a location name. Empty and "Local" mean time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
