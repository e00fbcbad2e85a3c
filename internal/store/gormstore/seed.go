package gormstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trade-journal-linker/internal/store/memory"
)

// SeedResult counts the rows written by Seed.
type SeedResult struct {
	Theses  int64
	Trades  int64
	Entries int64
}

// Seed copies a fixture snapshot into the database in one transaction.
// Rows whose id already exists are left untouched, so seeding twice is a no-op.
func (s *Store) Seed(ctx context.Context, snap memory.Snapshot) (SeedResult, error) {
	var result SeedResult
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		skipExisting := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}

		for _, th := range snap.Theses {
			res := tx.Clauses(skipExisting).Create(th)
			if res.Error != nil {
				return res.Error
			}
			result.Theses += res.RowsAffected
		}
		for _, t := range snap.Trades {
			t.Thesis = nil
			res := tx.Clauses(skipExisting).Create(t)
			if res.Error != nil {
				return res.Error
			}
			result.Trades += res.RowsAffected
		}
		for _, e := range snap.Entries {
			res := tx.Clauses(skipExisting).Create(e)
			if res.Error != nil {
				return res.Error
			}
			result.Entries += res.RowsAffected
		}
		return nil
	})
	return result, err
}
