package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JustinTDCT/CineSweep/internal/models"
	"github.com/JustinTDCT/CineSweep/internal/retention"
)

type LibraryRepository struct {
	db *sql.DB
}

func NewLibraryRepository(db *sql.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

func (r *LibraryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Library, error) {
	lib := &models.Library{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, path, is_enabled, created_at, updated_at
		FROM libraries WHERE id = $1`, id).
		Scan(&lib.ID, &lib.Name, &lib.Path, &lib.IsEnabled, &lib.CreatedAt, &lib.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, retention.ErrLibraryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get library %s: %w", id, err)
	}
	return lib, nil
}

func (r *LibraryRepository) List(ctx context.Context) ([]*models.Library, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, path, is_enabled, created_at, updated_at
		FROM libraries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var libs []*models.Library
	for rows.Next() {
		lib := &models.Library{}
		if err := rows.Scan(&lib.ID, &lib.Name, &lib.Path, &lib.IsEnabled, &lib.CreatedAt, &lib.UpdatedAt); err != nil {
			return nil, err
		}
		libs = append(libs, lib)
	}
	return libs, rows.Err()
}
