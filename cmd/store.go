package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/samadpls/archdata/internal/store"
)

// initStore opens the configured run store. It returns nil when the store is
// disabled.
func initStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.Driver == "" {
		return nil, nil
	}
	dsn := cfg.Store.DatabaseURL
	if dsn == "" && cfg.Store.Driver == store.DriverSQLite {
		dsn = "archdata.db"
	}
	st, err := store.Open(ctx, cfg.Store.Driver, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// requireStore is initStore for commands that cannot run without a store.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("no run store configured (set store.driver to sqlite or postgres)")
	}
	return st, nil
}
