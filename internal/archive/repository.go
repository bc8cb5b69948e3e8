// Package archive persists analysis snapshots to PostgreSQL. The
// archive is optional; the pipeline runs fully without it.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/pkg/database"
	"github.com/dmarks/debasement/pkg/logger"
)

// ErrNotFound is returned when no archived row matches.
var ErrNotFound = errors.New("archive: not found")

// Repository stores and loads analysis snapshots.
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates an archive repository.
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithField("component", "archive"),
	}
}

// Init creates the archive tables when they do not exist.
func (r *Repository) Init(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS returns_results (
			symbol      TEXT        NOT NULL,
			start_date  DATE        NOT NULL,
			end_date    DATE        NOT NULL,
			result      JSONB       NOT NULL,
			archived_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (symbol, start_date, end_date)
		);

		CREATE TABLE IF NOT EXISTS composite_signals (
			id           BIGSERIAL   PRIMARY KEY,
			generated_at TIMESTAMPTZ NOT NULL,
			signal       JSONB       NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create archive tables failed: %w", err)
	}
	return nil
}

// SaveReturns upserts one asset result keyed by symbol and window.
func (r *Repository) SaveReturns(ctx context.Context, result contracts.ReturnsResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result failed: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO returns_results (symbol, start_date, end_date, result, archived_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (symbol, start_date, end_date)
		DO UPDATE SET result = EXCLUDED.result, archived_at = now()
	`, result.Symbol, result.StartDate, result.EndDate, payload)
	if err != nil {
		return fmt.Errorf("save returns result failed: %w", err)
	}

	r.logger.WithField("symbol", result.Symbol).Debug("Archived returns result")
	return nil
}

// GetReturns loads an archived result for a symbol and window.
func (r *Repository) GetReturns(ctx context.Context, symbol string, start, end time.Time) (contracts.ReturnsResult, error) {
	var payload []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT result FROM returns_results
		WHERE symbol = $1 AND start_date = $2 AND end_date = $3
	`, symbol, start, end).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.ReturnsResult{}, ErrNotFound
	}
	if err != nil {
		return contracts.ReturnsResult{}, fmt.Errorf("load returns result failed: %w", err)
	}

	var result contracts.ReturnsResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return contracts.ReturnsResult{}, fmt.Errorf("unmarshal result failed: %w", err)
	}
	return result, nil
}

// SaveComposite appends a composite signal snapshot.
func (r *Repository) SaveComposite(ctx context.Context, signal contracts.CompositeSignal) error {
	payload, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("marshal signal failed: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO composite_signals (generated_at, signal)
		VALUES ($1, $2)
	`, signal.GeneratedAt, payload)
	if err != nil {
		return fmt.Errorf("save composite signal failed: %w", err)
	}
	return nil
}

// LatestComposite loads the most recent composite signal.
func (r *Repository) LatestComposite(ctx context.Context) (contracts.CompositeSignal, error) {
	var payload []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT signal FROM composite_signals
		ORDER BY generated_at DESC
		LIMIT 1
	`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.CompositeSignal{}, ErrNotFound
	}
	if err != nil {
		return contracts.CompositeSignal{}, fmt.Errorf("load composite signal failed: %w", err)
	}

	var signal contracts.CompositeSignal
	if err := json.Unmarshal(payload, &signal); err != nil {
		return contracts.CompositeSignal{}, fmt.Errorf("unmarshal signal failed: %w", err)
	}
	return signal, nil
}
