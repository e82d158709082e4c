// Package testutil provides deterministic clocks and ID generators for tests.
//
// Scenarios run against a FixedClock so that every fixture default, every
// relative time expression and every golden trace is reproducible, and
// against a SequenceIDGenerator so that stored acceptance IDs are stable.
package testutil
