package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/CineSweep/internal/models"
)

func TestCollectionRepository_ListCollections(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery("FROM collections c\\s+WHERE c.collection_type = \\$1").
		WithArgs("retention").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "collection_type", "locked", "path", "created_at", "updated_at", "item_count"}).
			AddRow(id.String(), "Movies - To Delete", "retention", false, nil, now, now, 3))

	cols, err := NewCollectionRepository(db).ListCollections(context.Background(), models.CollectionKindRetention)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, id, cols[0].ID)
	assert.Equal(t, models.CollectionKindRetention, cols[0].Kind)
	assert.Nil(t, cols[0].Path)
	assert.Equal(t, 3, cols[0].ItemCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepository_CreateAndAdd(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCollectionRepository(db)

	now := time.Now().UTC()
	col := &models.Collection{Name: "Movies - Leaving Soon", Kind: models.CollectionKindRetention}
	mock.ExpectQuery("INSERT INTO collections").
		WithArgs(sqlmock.AnyArg(), "Movies - Leaving Soon", "retention", false, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO collection_items \(collection_id, media_item_id, sort_order\)\s+SELECT \$1::uuid, t\.id, t\.ord`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.CreateCollection(context.Background(), col))
	assert.NotEqual(t, uuid.Nil, col.ID)
	assert.Equal(t, now, col.CreatedAt)

	require.NoError(t, repo.AddItems(context.Background(), col.ID, []uuid.UUID{uuid.New(), uuid.New()}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepository_AddItems_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewCollectionRepository(db).AddItems(context.Background(), uuid.New(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepository_DeleteCollection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCollectionRepository(db)
	var removed []string
	repo.removeAll = func(p string) error { removed = append(removed, p); return nil }

	withPath, bare := uuid.New(), uuid.New()
	mock.ExpectQuery("DELETE FROM collections WHERE id = \\$1 RETURNING path").WithArgs(withPath).
		WillReturnRows(sqlmock.NewRows([]string{"path"}).AddRow("/collections/movies-to-delete"))
	mock.ExpectQuery("DELETE FROM collections").WithArgs(bare).
		WillReturnRows(sqlmock.NewRows([]string{"path"}).AddRow(nil))
	mock.ExpectQuery("DELETE FROM collections").
		WillReturnRows(sqlmock.NewRows([]string{"path"}))

	require.NoError(t, repo.DeleteCollection(context.Background(), withPath, true))
	require.NoError(t, repo.DeleteCollection(context.Background(), bare, true))
	assert.Error(t, repo.DeleteCollection(context.Background(), uuid.New(), true))

	assert.Equal(t, []string{"/collections/movies-to-delete"}, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepository_ListCollectionItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	col, lib, item := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectQuery("JOIN media_items m ON m.id = ci.media_item_id").WithArgs(col).
		WillReturnRows(sqlmock.NewRows(mediaRowColumns).
			AddRow(mediaRow(item, lib, "Heat", models.KindMovie, nil, nil, time.Now().UTC())...))

	items, err := NewCollectionRepository(db).ListCollectionItems(context.Background(), col)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item, items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
