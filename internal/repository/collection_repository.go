package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/JustinTDCT/CineSweep/internal/models"
	"github.com/JustinTDCT/CineSweep/internal/retention"
)

var _ retention.CollectionStore = (*CollectionRepository)(nil)

type CollectionRepository struct {
	db        *sql.DB
	removeAll func(path string) error
}

func NewCollectionRepository(db *sql.DB) *CollectionRepository {
	return &CollectionRepository{db: db, removeAll: os.RemoveAll}
}

// ──────────────────── Collections ────────────────────

func (r *CollectionRepository) ListCollections(ctx context.Context, kind models.CollectionKind) ([]*models.Collection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.collection_type, c.locked, c.path, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM collection_items ci WHERE ci.collection_id = c.id) AS item_count
		FROM collections c
		WHERE c.collection_type = $1
		ORDER BY c.name`, kind)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []*models.Collection
	for rows.Next() {
		c := &models.Collection{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.Locked, &c.Path,
			&c.CreatedAt, &c.UpdatedAt, &c.ItemCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CollectionRepository) CreateCollection(ctx context.Context, c *models.Collection) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO collections (id, name, collection_type, locked, path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Kind, c.Locked, c.Path).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// AddItems inserts all members in one statement, keeping the given order.
func (r *CollectionRepository) AddItems(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	ids := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		ids[i] = id.String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO collection_items (collection_id, media_item_id, sort_order)
		SELECT $1::uuid, t.id, t.ord
		FROM unnest($2::uuid[]) WITH ORDINALITY AS t(id, ord)
		ON CONFLICT (collection_id, media_item_id) DO NOTHING`,
		collectionID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("add items to collection %s: %w", collectionID, err)
	}
	return nil
}

// DeleteCollection drops the collection and its memberships. Member items
// are untouched; deleteLocation also removes the collection's own folder.
func (r *CollectionRepository) DeleteCollection(ctx context.Context, id uuid.UUID, deleteLocation bool) error {
	var path sql.NullString
	err := r.db.QueryRowContext(ctx, `DELETE FROM collections WHERE id = $1 RETURNING path`, id).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("collection %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", id, err)
	}
	if deleteLocation && path.Valid && path.String != "" {
		if err := r.removeAll(path.String); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove collection folder %s: %w", path.String, err)
		}
	}
	return nil
}

func (r *CollectionRepository) ListCollectionItems(ctx context.Context, collectionID uuid.UUID) ([]*models.MediaItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+mediaColumns+`
		FROM collection_items ci
		JOIN media_items m ON m.id = ci.media_item_id
		WHERE ci.collection_id = $1
		ORDER BY ci.sort_order, m.name`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list collection items: %w", err)
	}
	defer rows.Close()

	var items []*models.MediaItem
	for rows.Next() {
		m, err := scanMediaItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
