// Package fixture builds deterministic legal acceptance state for test
// scenarios.
//
// It has three entry points:
//
//   - SnapshotManager suspends document enforcement for the duration of a
//     scenario and restores it afterwards.
//   - BatchBuilder turns a sparse acceptance table into acceptance records,
//     filling empty cells from per-document defaults.
//   - AutoAcceptor makes an account agree to every document it is required
//     to agree to.
//
// All persistence goes through the interfaces in package legal. Time is read
// from an injected legal.Clock so that results are reproducible.
package fixture

import (
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
