package catalog

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/andhika/furnistore/internal/models"
)

// SearchSession serializes the results of overlapping searches so that only
// the most recently issued query wins. Rapid keystrokes issue concurrent
// requests whose responses can arrive out of order; without a guard, a slow
// stale response would overwrite fresher results.
type SearchSession struct {
	seq atomic.Uint64
	run func(ctx context.Context, query string) ([]models.Furniture, error)
}

func NewSearchSession(db *sql.DB) *SearchSession {
	return &SearchSession{
		run: func(ctx context.Context, query string) ([]models.Furniture, error) {
			return Search(ctx, db, query)
		},
	}
}

// Search runs the query and reports whether the results are still current.
// When ok is false a newer search was issued while this one was in flight
// and the results must be discarded.
func (s *SearchSession) Search(ctx context.Context, query string) (results []models.Furniture, ok bool, err error) {
	tag := s.seq.Add(1)

	results, err = s.run(ctx, query)
	if err != nil {
		return nil, false, err
	}

	return results, s.seq.Load() == tag, nil
}
