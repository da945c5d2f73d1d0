package retention

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JustinTDCT/CineSweep/internal/metrics"
	"github.com/JustinTDCT/CineSweep/internal/models"
)

const ToDeletePurpose = "To Delete"

// CollectionName derives the managed collection name for a library and purpose.
func CollectionName(libraryName, purpose string) string {
	return libraryName + " - " + purpose
}

// Reconciler converges a managed collection to a target membership by
// deleting any existing match and recreating it.
type Reconciler struct {
	store CollectionStore
	log   *zap.Logger
}

func NewReconciler(store CollectionStore, log *zap.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// Find returns the managed collection with the given name (case-insensitive),
// or nil when none exists.
func (r *Reconciler) Find(ctx context.Context, name string) (*models.Collection, error) {
	cols, err := r.store.ListCollections(ctx, models.CollectionKindRetention)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, nil
}

// Reconcile leaves the collection "<libraryName> - <purpose>" containing
// exactly targetIDs, or absent when targetIDs is empty. Safe to repeat.
func (r *Reconciler) Reconcile(ctx context.Context, libraryName, purpose string, targetIDs []uuid.UUID) error {
	name := CollectionName(libraryName, purpose)
	log := r.log.With(zap.String("collection", name))

	cols, err := r.store.ListCollections(ctx, models.CollectionKindRetention)
	if err != nil {
		metrics.CollectionReconciles.WithLabelValues("failed").Inc()
		return fmt.Errorf("list collections for %q: %w", name, err)
	}
	for _, c := range cols {
		if !strings.EqualFold(c.Name, name) {
			continue
		}
		if err := r.store.DeleteCollection(ctx, c.ID, true); err != nil {
			metrics.CollectionReconciles.WithLabelValues("failed").Inc()
			return fmt.Errorf("delete collection %q: %w", c.Name, err)
		}
		log.Debug("removed existing collection", zap.Stringer("collection_id", c.ID))
	}

	ids := dedupe(targetIDs)
	if len(ids) == 0 {
		metrics.CollectionReconciles.WithLabelValues("removed").Inc()
		log.Debug("no members, collection left absent")
		return nil
	}

	col := &models.Collection{
		ID:     uuid.New(),
		Name:   name,
		Kind:   models.CollectionKindRetention,
		Locked: false,
	}
	if err := r.store.CreateCollection(ctx, col); err != nil {
		metrics.CollectionReconciles.WithLabelValues("failed").Inc()
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	if err := r.store.AddItems(ctx, col.ID, ids); err != nil {
		metrics.CollectionReconciles.WithLabelValues("failed").Inc()
		return fmt.Errorf("add %d items to %q: %w", len(ids), name, err)
	}

	metrics.CollectionReconciles.WithLabelValues("created").Inc()
	log.Info("collection reconciled", zap.Int("items", len(ids)))
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
