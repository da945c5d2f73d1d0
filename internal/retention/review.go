package retention

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JustinTDCT/CineSweep/internal/metrics"
	"github.com/JustinTDCT/CineSweep/internal/models"
)

type PendingItem struct {
	Name          string    `json:"name"`
	ItemID        uuid.UUID `json:"itemId"`
	Path          string    `json:"path"`
	DateCreated   time.Time `json:"dateCreated"`
	DateModified  time.Time `json:"dateModified"`
	DateLastSaved time.Time `json:"dateLastSaved"`
}

// PendingDeletion is the content of one library's "To Delete" collection.
type PendingDeletion struct {
	LibraryID    uuid.UUID     `json:"libraryId"`
	LibraryName  string        `json:"libraryName"`
	CollectionID uuid.UUID     `json:"collectionId"`
	Items        []PendingItem `json:"items"`
}

type DeleteFailure struct {
	ItemID string `json:"itemId"`
	Error  string `json:"error"`
}

type DeleteResult struct {
	Deleted []uuid.UUID     `json:"deleted"`
	Skipped []string        `json:"skipped"`
	Failed  []DeleteFailure `json:"failed"`
}

// Reviewer backs the manual review surface: listing staged deletions and
// deleting the items an operator confirms.
type Reviewer struct {
	catalog    Catalog
	reconciler *Reconciler
	log        *zap.Logger
}

func NewReviewer(catalog Catalog, collections CollectionStore, log *zap.Logger) *Reviewer {
	return &Reviewer{
		catalog:    catalog,
		reconciler: NewReconciler(collections, log),
		log:        log,
	}
}

// PendingDeletions lists the non-empty "To Delete" collections of every
// enabled, manually reviewed library. Lookup failures are logged and the
// library is left out; the result is never nil.
func (rv *Reviewer) PendingDeletions(ctx context.Context, configs []*models.RetentionConfig) []PendingDeletion {
	out := []PendingDeletion{}
	for _, cfg := range configs {
		if cfg == nil || !cfg.Enabled || cfg.AutomatedDeletion {
			continue
		}
		lib, err := rv.catalog.GetLibrary(ctx, cfg.LibraryID)
		if err != nil {
			rv.log.Warn("pending deletions: library not resolved",
				zap.Stringer("library_id", cfg.LibraryID), zap.Error(err))
			continue
		}
		name := CollectionName(lib.Name, ToDeletePurpose)
		col, err := rv.reconciler.Find(ctx, name)
		if err != nil {
			rv.log.Warn("pending deletions: collection lookup failed",
				zap.String("collection", name), zap.Error(err))
			continue
		}
		if col == nil {
			continue
		}
		items, err := rv.reconciler.store.ListCollectionItems(ctx, col.ID)
		if err != nil {
			rv.log.Warn("pending deletions: listing items failed",
				zap.String("collection", name), zap.Error(err))
			continue
		}
		if len(items) == 0 {
			continue
		}

		pd := PendingDeletion{
			LibraryID:    lib.ID,
			LibraryName:  lib.Name,
			CollectionID: col.ID,
			Items:        make([]PendingItem, 0, len(items)),
		}
		for _, it := range items {
			pd.Items = append(pd.Items, PendingItem{
				Name:          it.Name,
				ItemID:        it.ID,
				Path:          it.Path,
				DateCreated:   it.AddedAt,
				DateModified:  it.ModifiedAt,
				DateLastSaved: it.LastSavedAt,
			})
		}
		out = append(out, pd)
	}
	return out
}

// DeleteItems deletes each confirmed item together with its backing
// location. Malformed or unknown ids are skipped; a failing lookup or
// delete is reported for that id alone.
func (rv *Reviewer) DeleteItems(ctx context.Context, rawIDs []string) (*DeleteResult, error) {
	if len(rawIDs) == 0 {
		return nil, ErrNoItemIDs
	}
	res := &DeleteResult{Deleted: []uuid.UUID{}, Skipped: []string{}, Failed: []DeleteFailure{}}

	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			rv.log.Warn("delete: malformed item id", zap.String("item_id", raw))
			res.Skipped = append(res.Skipped, raw)
			continue
		}
		item, err := rv.catalog.GetItem(ctx, id)
		if err != nil && !errors.Is(err, ErrItemNotFound) {
			rv.log.Error("delete: item lookup failed", zap.String("item_id", raw), zap.Error(err))
			res.Failed = append(res.Failed, DeleteFailure{ItemID: raw, Error: "lookup failed"})
			continue
		}
		if item == nil {
			rv.log.Warn("delete: unknown item", zap.String("item_id", raw))
			res.Skipped = append(res.Skipped, raw)
			continue
		}
		if err := rv.catalog.DeleteItem(ctx, id, true); err != nil {
			rv.log.Error("delete: item delete failed",
				zap.String("item_id", raw), zap.String("name", item.Name), zap.Error(err))
			res.Failed = append(res.Failed, DeleteFailure{ItemID: raw, Error: "delete failed"})
			continue
		}
		metrics.ItemsDeleted.WithLabelValues("manual").Inc()
		rv.log.Info("deleted item on review", zap.String("name", item.Name), zap.String("path", item.Path))
		res.Deleted = append(res.Deleted, id)
	}
	return res, nil
}
