package cmd

import (
	"context"
	"time"

	"trade-journal-linker/cmd/linker/config"
	"trade-journal-linker/internal/linker"
	"trade-journal-linker/internal/matcher"
	"trade-journal-linker/internal/store"
	"trade-journal-linker/internal/store/gormstore"
	"trade-journal-linker/internal/store/memory"
	"trade-journal-linker/pkg/errors"
	"trade-journal-linker/pkg/logger"
)

const connectTimeout = 5 * time.Second

// app is the wired service graph shared by the subcommands
type app struct {
	cfg    *config.Config
	log    logger.Logger
	store  store.Store
	linker *linker.Linker
	db     *gormstore.DB
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	a := &app{cfg: opts.cfg, log: opts.log}

	st, db, err := openStore(ctx, opts.cfg, opts.log)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.db = db

	engine, err := matcher.NewEngine(st, &opts.cfg.Linking, opts.log)
	if err != nil {
		a.Close()
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "linking", "", err)
	}

	a.linker, err = linker.New(st, engine, opts.log)
	if err != nil {
		a.Close()
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "linking", "", err)
	}

	return a, nil
}

// Close releases the database pool, if any. A close failure is logged as
// well as returned because most callers defer it.
func (a *app) Close() error {
	return closeDB(a.db, a.log)
}

func closeDB(db *gormstore.DB, log logger.Logger) error {
	if err := gormstore.Close(db); err != nil {
		if log == nil {
			log = logger.GetGlobalLogger()
		}
		log.WithError(err).Warn("Failed to close database pool")
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, *gormstore.DB, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		if cfg.Store.Fixture == "" {
			log.Warn("Memory store started without a fixture, every lookup will be empty")
			return memory.New(), nil, nil
		}
		st, err := memory.LoadFixtureFile(cfg.Store.Fixture)
		if err != nil {
			return nil, nil, errors.WrapIfNeeded(err, errors.CategoryFixture, errors.CodeFixtureMalformed,
				"failed to load fixture "+cfg.Store.Fixture)
		}
		stats := st.Stats()
		log.WithFields(logger.Fields{
			"fixture": cfg.Store.Fixture,
			"trades":  stats.TotalTrades,
			"tickers": stats.UniqueTickers,
		}).Info("Loaded fixture into memory store")
		return st, nil, nil

	default:
		db, err := openDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return gormstore.New(db.Gorm), db, nil
	}
}

func openDB(ctx context.Context, cfg *config.Config) (*gormstore.DB, error) {
	db, err := gormstore.Open(cfg.DB)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreConnect, "open", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.SQL.PingContext(pingCtx); err != nil {
		closeDB(db, nil)
		return nil, errors.StoreError(errors.CodeStoreConnect, "ping", err)
	}
	return db, nil
}
