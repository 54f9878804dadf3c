// Package catalog provides read-only access to the furniture catalog. All
// queries are idempotent and retried on transient database failures.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andhika/furnistore/internal/database"
	"github.com/andhika/furnistore/internal/models"
)

const (
	readMaxRetries  = 3
	readBaseBackoff = 50 * time.Millisecond
)

// withReadRetry runs fn, retrying with exponential backoff when the failure
// classifies as retryable. Only used for reads; writes go through the
// transaction helpers instead.
func withReadRetry(ctx context.Context, fn func() error) error {
	backoff := readBaseBackoff
	var lastErr error

	for attempt := 0; attempt <= readMaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !database.IsRetryable(err) {
			return err
		}
		if attempt == readMaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", readMaxRetries, err)
		}

		lastErr = err
		jitter := time.Duration(rand.Int63n(int64(backoff / 4)))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}

	return lastErr
}

const furnitureColumns = "id, name, category, price, description, image, stock, created_at, updated_at"

func scanFurniture(row interface{ Scan(...any) error }) (models.Furniture, error) {
	var f models.Furniture
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Category,
		&f.Price,
		&f.Description,
		&f.Image,
		&f.Stock,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	return f, err
}

// FetchAll returns the whole catalog ordered by name ascending.
func FetchAll(ctx context.Context, db *sql.DB) ([]models.Furniture, error) {
	query := `
		SELECT ` + furnitureColumns + `
		FROM furniture
		ORDER BY name ASC`

	var out []models.Furniture
	err := withReadRetry(ctx, func() error {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("list furniture: %w", err)
		}
		defer rows.Close()

		var items []models.Furniture
		for rows.Next() {
			f, err := scanFurniture(rows)
			if err != nil {
				return fmt.Errorf("scan furniture: %w", err)
			}
			items = append(items, f)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		out = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// FetchByID returns a single catalog entry, or ErrFurnitureNotFound. Callers
// treat absence as "not found"; transient failures are retried here rather
// than surfaced separately.
func FetchByID(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Furniture, error) {
	query := `
		SELECT ` + furnitureColumns + `
		FROM furniture
		WHERE id = $1`

	var out *models.Furniture
	err := withReadRetry(ctx, func() error {
		f, err := scanFurniture(db.QueryRowContext(ctx, query, id))
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrFurnitureNotFound
			}
			return fmt.Errorf("get furniture: %w", err)
		}
		out = &f
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// escapeLike makes the query text match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// Search returns entries whose name, category or description contains the
// query as a case-insensitive substring, ordered by name. An empty or
// whitespace query returns the full catalog, same rows as FetchAll.
func Search(ctx context.Context, db *sql.DB, query string) ([]models.Furniture, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return FetchAll(ctx, db)
	}

	pattern := "%" + escapeLike(trimmed) + "%"
	stmt := `
		SELECT ` + furnitureColumns + `
		FROM furniture
		WHERE name ILIKE $1 OR category ILIKE $1 OR description ILIKE $1
		ORDER BY name ASC`

	var out []models.Furniture
	err := withReadRetry(ctx, func() error {
		rows, err := db.QueryContext(ctx, stmt, pattern)
		if err != nil {
			return fmt.Errorf("search furniture: %w", err)
		}
		defer rows.Close()

		var items []models.Furniture
		for rows.Next() {
			f, err := scanFurniture(rows)
			if err != nil {
				return fmt.Errorf("scan furniture: %w", err)
			}
			items = append(items, f)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		out = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
