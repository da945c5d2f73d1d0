package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JustinTDCT/CineSweep/internal/models"
)

const retentionColumns = `id, library_id, enabled, granularity, exclude_favorites, time_basis,
	leaving_soon_days, deletion_days, leaving_soon_name, automated_deletion, created_at, updated_at`

type RetentionConfigRepository struct {
	db *sql.DB
}

func NewRetentionConfigRepository(db *sql.DB) *RetentionConfigRepository {
	return &RetentionConfigRepository{db: db}
}

func scanRetentionConfig(row rowScanner) (*models.RetentionConfig, error) {
	c := &models.RetentionConfig{}
	err := row.Scan(&c.ID, &c.LibraryID, &c.Enabled, &c.Granularity, &c.ExcludeFavorites, &c.TimeBasis,
		&c.LeavingSoonDays, &c.DeletionDays, &c.LeavingSoonName, &c.AutomatedDeletion, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// List returns every config ordered by library name, the order runs
// process them in.
func (r *RetentionConfigRepository) List(ctx context.Context) ([]*models.RetentionConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rc.id, rc.library_id, rc.enabled, rc.granularity, rc.exclude_favorites, rc.time_basis,
		       rc.leaving_soon_days, rc.deletion_days, rc.leaving_soon_name, rc.automated_deletion,
		       rc.created_at, rc.updated_at
		FROM retention_configs rc
		JOIN libraries l ON l.id = rc.library_id
		ORDER BY l.name`)
	if err != nil {
		return nil, fmt.Errorf("list retention configs: %w", err)
	}
	defer rows.Close()

	var out []*models.RetentionConfig
	for rows.Next() {
		c, err := scanRetentionConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *RetentionConfigRepository) GetByLibrary(ctx context.Context, libraryID uuid.UUID) (*models.RetentionConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+retentionColumns+` FROM retention_configs WHERE library_id = $1`, libraryID)
	c, err := scanRetentionConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Upsert stores the config keyed by library; an existing row keeps its id.
func (r *RetentionConfigRepository) Upsert(ctx context.Context, c *models.RetentionConfig) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO retention_configs (id, library_id, enabled, granularity, exclude_favorites, time_basis,
		                               leaving_soon_days, deletion_days, leaving_soon_name, automated_deletion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (library_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			granularity = EXCLUDED.granularity,
			exclude_favorites = EXCLUDED.exclude_favorites,
			time_basis = EXCLUDED.time_basis,
			leaving_soon_days = EXCLUDED.leaving_soon_days,
			deletion_days = EXCLUDED.deletion_days,
			leaving_soon_name = EXCLUDED.leaving_soon_name,
			automated_deletion = EXCLUDED.automated_deletion,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		c.ID, c.LibraryID, c.Enabled, c.Granularity, c.ExcludeFavorites, c.TimeBasis,
		c.LeavingSoonDays, c.DeletionDays, c.LeavingSoonName, c.AutomatedDeletion).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *RetentionConfigRepository) Delete(ctx context.Context, libraryID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM retention_configs WHERE library_id = $1`, libraryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConfigNotFound
	}
	return nil
}
