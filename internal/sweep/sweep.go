// Package sweep periodically auto-links recent unlinked journal entries for
// every owner, using the same confidence gate as an explicit bulk-link call.
package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trade-journal-linker/internal/linker"
	"trade-journal-linker/internal/store"
	"trade-journal-linker/pkg/logger"
)

// Config controls the scheduled sweep
type Config struct {
	Enabled bool `mapstructure:"enabled"`
	// Schedule is a six-field cron expression (with seconds) or a descriptor
	// such as "@every 15m".
	Schedule string `mapstructure:"schedule"`
	// Lookback limits the sweep to entries created within this duration.
	// Zero sweeps every unlinked entry.
	Lookback  time.Duration `mapstructure:"lookback"`
	BatchSize int           `mapstructure:"batch_size"`
	// MaxEntries caps how many entries one run processes per owner. The next
	// run resumes where the cap stopped. Zero means no cap.
	MaxEntries int `mapstructure:"max_entries"`
}

// DefaultConfig returns a disabled sweep running every 15 minutes over the last week
func DefaultConfig() Config {
	return Config{
		Enabled:   false,
		Schedule:  "@every 15m",
		Lookback:   7 * 24 * time.Hour,
		BatchSize:  100,
		MaxEntries: 1000,
	}
}

// Validate checks if the sweep configuration is valid
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Schedule == "" {
		return fmt.Errorf("sweep schedule is required when the sweep is enabled")
	}
	if c.Lookback < 0 {
		return fmt.Errorf("sweep lookback cannot be negative: %s", c.Lookback)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("sweep batch size must be positive: %d", c.BatchSize)
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("sweep max entries cannot be negative: %d", c.MaxEntries)
	}
	return nil
}

// Sweeper pages through each owner's unlinked entries in bulk-link batches
type Sweeper struct {
	store  store.Store
	linker *linker.Linker
	config Config
	logger logger.Logger
	now    func() time.Time

	mu     sync.Mutex
	resume map[string]*store.EntryCursor
}

// New creates a sweeper. The batch size is capped at the linker's maximum.
func New(st store.Store, l *linker.Linker, config Config, log logger.Logger) *Sweeper {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if max := l.Config().MaxBatchSize; config.BatchSize <= 0 || config.BatchSize > max {
		config.BatchSize = max
	}
	return &Sweeper{
		store:  st,
		linker: l,
		config: config,
		logger: log.WithComponent("sweep"),
		now:    time.Now,
		resume: make(map[string]*store.EntryCursor),
	}
}

// Run performs one sweep and returns the combined result over all owners.
// A failure to list one owner's entries is logged and the sweep moves on.
func (s *Sweeper) Run(ctx context.Context) (*linker.BatchLinkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owners, err := s.store.ListOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}

	var createdAfter time.Time
	if s.config.Lookback > 0 {
		createdAfter = s.now().Add(-s.config.Lookback)
	}

	total := linker.NewBatchLinkResult()
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		if err := s.sweepOwner(ctx, owner, createdAfter, total); err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			s.logger.WithError(err).WithField("owner_id", owner).Warn("Skipping owner, unlinked entries unavailable")
		}
	}

	s.logger.WithFields(logger.Fields{
		"owners":  len(owners),
		"linked":  total.Linked,
		"skipped": total.Skipped,
		"errors":  len(total.Errors),
	}).Info("Sweep completed")
	return total, nil
}

// sweepOwner advances a cursor past every batch so entries that stay
// unlinked never hide newer ones. Hitting the entry cap saves the cursor for
// the next run; reaching the end clears it.
func (s *Sweeper) sweepOwner(ctx context.Context, owner string, createdAfter time.Time, total *linker.BatchLinkResult) error {
	query := store.UnlinkedQuery{OwnerID: owner, CreatedAfter: createdAfter, After: s.resume[owner]}
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		query.Limit = s.config.BatchSize
		if s.config.MaxEntries > 0 {
			remaining := s.config.MaxEntries - processed
			if remaining <= 0 {
				s.logger.WithFields(logger.Fields{
					"owner_id":    owner,
					"max_entries": s.config.MaxEntries,
				}).Warn("Sweep entry cap reached, remaining entries wait for the next run")
				s.resume[owner] = query.After
				return nil
			}
			if remaining < query.Limit {
				query.Limit = remaining
			}
		}

		entries, err := s.store.ListUnlinkedEntries(ctx, query)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			delete(s.resume, owner)
			return nil
		}

		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		total.Merge(s.linker.BulkLink(ctx, owner, ids, ""))
		processed += len(entries)

		if len(entries) < query.Limit {
			delete(s.resume, owner)
			return nil
		}
		query.After = store.CursorAfter(entries[len(entries)-1])
	}
}

// Register adds the sweep to r when enabled
func (s *Sweeper) Register(r *Runner) error {
	if !s.config.Enabled {
		s.logger.Debug("Sweep disabled")
		return nil
	}
	_, err := r.Add(s.config.Schedule, func(ctx context.Context) {
		if _, err := s.Run(ctx); err != nil {
			s.logger.WithError(err).Error("Sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule '%s': %w", s.config.Schedule, err)
	}
	s.logger.WithField("schedule", s.config.Schedule).Info("Sweep scheduled")
	return nil
}
