package empire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"empires-server/internal/shared/database"
	apperrors "empires-server/internal/shared/errors"
)

// Repository persists encoded snapshots to Postgres.
type Repository struct {
	db     *database.DB
	keep   int
	logger *slog.Logger
}

// NewRepository returns a repository that retains the newest keep snapshots
// per empire. keep < 1 disables pruning.
func NewRepository(db *database.DB, keep int, logger *slog.Logger) *Repository {
	logger.Debug("Initializing empire snapshot repository", "keep", keep)

	return &Repository{
		db:     db,
		keep:   keep,
		logger: logger,
	}
}

func (r *Repository) SaveSnapshot(ctx context.Context, tick int64, catalogDigest string, enc EncodedSnapshot) error {
	logger := r.logger.With(
		"component", "empire_repository",
		"operation", "save_snapshot",
		"empire_id", enc.EmpireID,
		"tick", tick,
	)

	query := `
		INSERT INTO empire_snapshots (empire_id, tick, catalog_digest, content_hash, raw_size, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	tx, err := r.db.BeginTxContext(ctx)
	if err != nil {
		logger.Error("Failed to begin snapshot transaction", "error", err)
		return apperrors.WrapExternal("failed to save snapshot", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Error("Failed to roll back snapshot transaction", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, query, enc.EmpireID, tick, catalogDigest, enc.Hash, enc.RawSize, enc.Blob); err != nil {
		logger.Error("Failed to save snapshot", "error", err)
		return apperrors.WrapExternal("failed to save snapshot", err)
	}

	if r.keep > 0 {
		if _, err := r.prune(ctx, tx, enc.EmpireID, r.keep); err != nil {
			return apperrors.WrapExternal("failed to save snapshot", err)
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit snapshot", "error", err)
		return apperrors.WrapExternal("failed to save snapshot", err)
	}

	logger.Debug("Snapshot saved", "compressed_bytes", len(enc.Blob), "raw_bytes", enc.RawSize)
	return nil
}

// LatestSnapshot returns the most recent snapshot of an empire and its tick.
func (r *Repository) LatestSnapshot(ctx context.Context, empireID int) (EncodedSnapshot, int64, error) {
	logger := r.logger.With(
		"component", "empire_repository",
		"operation", "latest_snapshot",
		"empire_id", empireID,
	)

	query := `
		SELECT tick, content_hash, raw_size, payload
		FROM empire_snapshots
		WHERE empire_id = $1
		ORDER BY tick DESC, id DESC
		LIMIT 1
	`

	enc := EncodedSnapshot{EmpireID: empireID}
	var tick int64
	err := r.db.QueryRowContext(ctx, query, empireID).Scan(&tick, &enc.Hash, &enc.RawSize, &enc.Blob)
	if errors.Is(err, sql.ErrNoRows) {
		return EncodedSnapshot{}, 0, apperrors.NotFoundf("no snapshot for empire %d", empireID)
	}
	if err != nil {
		logger.Error("Failed to load snapshot", "error", err)
		return EncodedSnapshot{}, 0, apperrors.WrapExternal("failed to load snapshot", err)
	}

	logger.Debug("Snapshot loaded", "tick", tick)
	return enc, tick, nil
}

// prune keeps the newest keep snapshots of an empire.
func (r *Repository) prune(ctx context.Context, exec database.Executor, empireID, keep int) (int64, error) {
	logger := r.logger.With(
		"component", "empire_repository",
		"operation", "prune_snapshots",
		"empire_id", empireID,
		"keep", keep,
	)

	query := `
		DELETE FROM empire_snapshots
		WHERE empire_id = $1 AND id NOT IN (
			SELECT id FROM empire_snapshots
			WHERE empire_id = $1
			ORDER BY tick DESC, id DESC
			LIMIT $2
		)
	`

	res, err := exec.ExecContext(ctx, query, empireID, keep)
	if err != nil {
		logger.Error("Failed to prune snapshots", "error", err)
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logger.Debug("Snapshots pruned", "deleted", n)
	}
	return n, nil
}
