// Package retention classifies library items into leaving-soon and to-delete
// sets, keeps the matching managed collections in sync and performs or stages
// the deletions.
//
// The package never talks to storage directly. Everything it needs from the
// catalog, the collection store and the user store comes through the
// interfaces below, and it only keeps identifiers and snapshot values between
// calls.
package retention

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/JustinTDCT/CineSweep/internal/models"
)

var (
	ErrLibraryNotFound = errors.New("library not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrNoItemIDs       = errors.New("no item ids supplied")
)

// ItemQuery filters the items listed under a library root.
type ItemQuery struct {
	Kinds          []models.ItemKind
	Recursive      bool
	ExcludeVirtual bool
}

type Catalog interface {
	GetLibrary(ctx context.Context, id uuid.UUID) (*models.Library, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.MediaItem, error)
	ListItems(ctx context.Context, libraryID uuid.UUID, q ItemQuery) ([]*models.MediaItem, error)
	// DeleteItem removes the item from the catalog; deleteFiles also removes
	// its backing location.
	DeleteItem(ctx context.Context, id uuid.UUID, deleteFiles bool) error
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListFavoriteIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type CollectionStore interface {
	ListCollections(ctx context.Context, kind models.CollectionKind) ([]*models.Collection, error)
	CreateCollection(ctx context.Context, c *models.Collection) error
	AddItems(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) error
	DeleteCollection(ctx context.Context, id uuid.UUID, deleteLocation bool) error
	ListCollectionItems(ctx context.Context, collectionID uuid.UUID) ([]*models.MediaItem, error)
}

// ProgressFunc receives run progress in [0,100].
type ProgressFunc func(percent int)
