package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/legalgate/internal/fixture"
	"github.com/roach88/legalgate/internal/store"
	"github.com/roach88/legalgate/internal/timeexpr"
)

// services wires the fixture components to an on-disk store.
type services struct {
	store     *store.Store
	snapshots *fixture.SnapshotManager
	builder   *fixture.BatchBuilder
	acceptor  *fixture.AutoAcceptor
	logger    *slog.Logger
}

// openServices opens the configured database. The database must already
// exist: legalgate seeds acceptances into an application's store, it does
// not create one.
func (o *RootOptions) openServices() (*services, error) {
	cfg := o.settings()
	logger := o.logger()

	if _, err := os.Stat(cfg.Database.Path); err != nil {
		return nil, WrapExitError(ExitCommandError,
			fmt.Sprintf("database not found: %s", cfg.Database.Path), err)
	}
	loc, err := timeexpr.LoadLocation(cfg.Time.Location)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid time location", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	clock := timeexpr.SystemClock{}
	docs := st.Documents()
	acceptances := st.Acceptances()

	logger.Debug("database opened", "path", cfg.Database.Path)
	return &services{
		store: st,
		snapshots: fixture.NewSnapshotManager(docs,
			fixture.WithManualTag(cfg.Harness.ManualTag),
			fixture.WithSnapshotLogger(logger),
		),
		builder:  fixture.NewBatchBuilder(docs, acceptances, clock, timeexpr.NewResolver(clock, loc), logger),
		acceptor: fixture.NewAutoAcceptor(docs, acceptances, acceptances, clock, logger),
		logger:   logger,
	}, nil
}

func (s *services) Close() error {
	return s.store.Close()
}
