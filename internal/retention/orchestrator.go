package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JustinTDCT/CineSweep/internal/metrics"
	"github.com/JustinTDCT/CineSweep/internal/models"
)

// Orchestrator runs the retention rules over every enabled library config.
//
// Runs are assumed not to overlap: the caller (the job queue) guarantees a
// single active run, the orchestrator takes no lock of its own.
type Orchestrator struct {
	catalog    Catalog
	users      UserStore
	reconciler *Reconciler
	log        *zap.Logger
	now        func() time.Time
}

func NewOrchestrator(catalog Catalog, users UserStore, collections CollectionStore, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		catalog:    catalog,
		users:      users,
		reconciler: NewReconciler(collections, log),
		log:        log,
		now:        time.Now,
	}
}

// Run processes the enabled configs in order. Progress is reported before
// each library as 100*done/total; the caller reports the final 100.
// Per-library failures are logged and recorded in the report; only
// cancellation is returned as an error.
func (o *Orchestrator) Run(ctx context.Context, configs []*models.RetentionConfig, progress ProgressFunc) (*Report, error) {
	report := &Report{StartedAt: o.now().UTC()}
	defer func() { report.FinishedAt = o.now().UTC() }()

	var enabled []*models.RetentionConfig
	for _, c := range configs {
		if c != nil && c.Enabled {
			enabled = append(enabled, c)
		}
	}
	if len(enabled) == 0 {
		o.log.Info("no enabled retention configs, nothing to do")
		return report, nil
	}

	for i, cfg := range enabled {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			o.log.Info("retention run cancelled", zap.Int("processed", i), zap.Int("total", len(enabled)))
			return report, err
		}
		if progress != nil {
			progress(100 * i / len(enabled))
		}

		lr := &LibraryReport{LibraryID: cfg.LibraryID}
		report.Libraries = append(report.Libraries, lr)

		err := o.processLibrary(ctx, cfg, lr)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				report.Cancelled = true
				return report, err
			}
			lr.Error = err.Error()
			o.log.Error("retention failed for library",
				zap.Stringer("library_id", cfg.LibraryID),
				zap.String("library", lr.LibraryName),
				zap.Error(err))
		}
		if lr.failed() {
			metrics.LibraryFailures.WithLabelValues(libraryLabel(lr)).Inc()
		}
	}
	return report, nil
}

func (o *Orchestrator) processLibrary(ctx context.Context, cfg *models.RetentionConfig, lr *LibraryReport) error {
	lib, err := o.catalog.GetLibrary(ctx, cfg.LibraryID)
	if err != nil {
		return fmt.Errorf("resolve library: %w", err)
	}
	lr.LibraryName = lib.Name
	log := o.log.With(zap.String("library", lib.Name))

	// Virtual items still take part in favorite propagation, so the listing
	// keeps them and they are dropped before classification.
	all, err := o.catalog.ListItems(ctx, lib.ID, ItemQuery{
		Kinds:     models.AllItemKinds,
		Recursive: true,
	})
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	items := make([]*models.MediaItem, 0, len(all))
	for _, it := range all {
		if !it.IsVirtual {
			items = append(items, it)
		}
	}
	lr.Scanned = len(items)

	var favs FavoriteSet
	if cfg.ExcludeFavorites {
		favs, err = LoadFavorites(ctx, o.users, log)
		if err != nil {
			return err
		}
	}
	hierarchy := NewHierarchy(all)
	now := o.now().UTC()

	var leavingSoon []uuid.UUID
	var toDelete []*models.MediaItem
	for _, it := range items {
		if !Admit(it, cfg, favs, hierarchy) {
			continue
		}
		lr.Eligible++
		switch Classify(it, cfg, now) {
		case OutcomeLeavingSoon:
			leavingSoon = append(leavingSoon, it.ID)
		case OutcomeToDelete:
			toDelete = append(toDelete, it)
		}
	}
	lr.LeavingSoon = len(leavingSoon)
	lr.ToDelete = len(toDelete)
	metrics.ItemsClassified.WithLabelValues(lib.Name, OutcomeLeavingSoon.String()).Set(float64(lr.LeavingSoon))
	metrics.ItemsClassified.WithLabelValues(lib.Name, OutcomeToDelete.String()).Set(float64(lr.ToDelete))
	log.Info("library classified",
		zap.Int("scanned", lr.Scanned),
		zap.Int("eligible", lr.Eligible),
		zap.Int("leaving_soon", lr.LeavingSoon),
		zap.Int("to_delete", lr.ToDelete))

	// A cancelled delete-then-recreate would leave the collection absent;
	// reconciliation runs to completion once started.
	rctx := context.WithoutCancel(ctx)
	if err := o.reconciler.Reconcile(rctx, lib.Name, cfg.CollectionPurpose(), leavingSoon); err != nil {
		lr.ReconcileErrors = append(lr.ReconcileErrors, err.Error())
		log.Error("leaving soon collection not reconciled", zap.Error(err))
	}

	if !cfg.AutomatedDeletion {
		ids := make([]uuid.UUID, len(toDelete))
		for i, it := range toDelete {
			ids[i] = it.ID
		}
		if err := o.reconciler.Reconcile(rctx, lib.Name, ToDeletePurpose, ids); err != nil {
			lr.ReconcileErrors = append(lr.ReconcileErrors, err.Error())
			log.Error("to delete collection not reconciled", zap.Error(err))
			return nil
		}
		lr.Staged = len(ids) > 0
		return nil
	}

	// A library switched from manual to automated must not keep a stale
	// review collection around.
	if err := o.reconciler.Reconcile(rctx, lib.Name, ToDeletePurpose, nil); err != nil {
		lr.ReconcileErrors = append(lr.ReconcileErrors, err.Error())
		log.Warn("stale to delete collection not removed", zap.Error(err))
	}
	return o.deleteItems(ctx, toDelete, lr, log)
}

func (o *Orchestrator) deleteItems(ctx context.Context, items []*models.MediaItem, lr *LibraryReport, log *zap.Logger) error {
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if it.Path == "" {
			lr.Skipped++
			log.Warn("item has no backing path, skipping delete",
				zap.Stringer("item_id", it.ID), zap.String("name", it.Name))
			continue
		}
		if err := o.catalog.DeleteItem(context.WithoutCancel(ctx), it.ID, true); err != nil {
			lr.Skipped++
			log.Error("delete failed",
				zap.Stringer("item_id", it.ID), zap.String("name", it.Name), zap.Error(err))
			continue
		}
		lr.Deleted++
		metrics.ItemsDeleted.WithLabelValues("automated").Inc()
		log.Info("deleted item", zap.String("name", it.Name), zap.String("path", it.Path))
	}
	return nil
}

func libraryLabel(lr *LibraryReport) string {
	if lr.LibraryName != "" {
		return lr.LibraryName
	}
	return lr.LibraryID.String()
}
