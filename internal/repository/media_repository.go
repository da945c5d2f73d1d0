package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/JustinTDCT/CineSweep/internal/models"
	"github.com/JustinTDCT/CineSweep/internal/retention"
)

// Items never watched report their added date as the last watch.
const mediaColumns = `m.id, m.library_id, m.name, m.kind, m.path, m.is_virtual,
	m.series_id, m.season_id, m.added_at, m.modified_at,
	COALESCE((SELECT MAX(w.watched_at) FROM watch_history w WHERE w.media_item_id = m.id), m.added_at),
	m.updated_at`

var _ retention.Catalog = (*MediaRepository)(nil)

// MediaRepository is the catalog the retention engine reads from and deletes
// through.
type MediaRepository struct {
	db        *sql.DB
	libraries *LibraryRepository
	removeAll func(path string) error
}

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{
		db:        db,
		libraries: NewLibraryRepository(db),
		removeAll: os.RemoveAll,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMediaItem(row rowScanner) (*models.MediaItem, error) {
	m := &models.MediaItem{}
	var seriesID, seasonID uuid.NullUUID
	if err := row.Scan(&m.ID, &m.LibraryID, &m.Name, &m.Kind, &m.Path, &m.IsVirtual,
		&seriesID, &seasonID, &m.AddedAt, &m.ModifiedAt, &m.LastWatchedAt, &m.LastSavedAt); err != nil {
		return nil, err
	}
	if seriesID.Valid {
		m.SeriesID = &seriesID.UUID
	}
	if seasonID.Valid {
		m.SeasonID = &seasonID.UUID
	}
	return m, nil
}

func (r *MediaRepository) GetLibrary(ctx context.Context, id uuid.UUID) (*models.Library, error) {
	return r.libraries.GetByID(ctx, id)
}

func (r *MediaRepository) GetItem(ctx context.Context, id uuid.UUID) (*models.MediaItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media_items m WHERE m.id = $1`, id)
	m, err := scanMediaItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, retention.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media item %s: %w", id, err)
	}
	return m, nil
}

// ListItems lists a library's items. Without Recursive only top-level
// entries (movies and series) are returned.
func (r *MediaRepository) ListItems(ctx context.Context, libraryID uuid.UUID, q retention.ItemQuery) ([]*models.MediaItem, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + mediaColumns + ` FROM media_items m WHERE m.library_id = $1`)
	args := []interface{}{libraryID}

	if len(q.Kinds) > 0 {
		kinds := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			kinds[i] = string(k)
		}
		args = append(args, pq.Array(kinds))
		fmt.Fprintf(&b, " AND m.kind = ANY($%d)", len(args))
	}
	if q.ExcludeVirtual {
		b.WriteString(" AND NOT m.is_virtual")
	}
	if !q.Recursive {
		b.WriteString(" AND m.series_id IS NULL AND m.season_id IS NULL")
	}
	b.WriteString(" ORDER BY m.added_at, m.name")

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list media items: %w", err)
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

// DeleteItem removes the item row; children, favorites, watch history and
// collection memberships go with it through cascading keys. With
// deleteFiles the backing location is removed first, and a failure there
// keeps the row.
func (r *MediaRepository) DeleteItem(ctx context.Context, id uuid.UUID, deleteFiles bool) error {
	var path string
	err := r.db.QueryRowContext(ctx, `SELECT path FROM media_items WHERE id = $1`, id).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return retention.ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("look up media item %s: %w", id, err)
	}

	if deleteFiles && path != "" {
		if err := r.removeAll(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM media_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete media item %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return retention.ErrItemNotFound
	}
	return nil
}
