package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JustinTDCT/CineSweep/internal/auth"
	"github.com/JustinTDCT/CineSweep/internal/httputil"
	"github.com/JustinTDCT/CineSweep/internal/logger"
	"github.com/JustinTDCT/CineSweep/internal/models"
	"github.com/JustinTDCT/CineSweep/internal/repository"
	"github.com/JustinTDCT/CineSweep/internal/retention"
	"github.com/JustinTDCT/CineSweep/internal/status"
)

// ──────────────────── Review ────────────────────

// handlePending lists staged deletions. A failing config source is logged
// and answered with an empty list.
func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	configs, err := s.Configs.List(r.Context())
	if err != nil {
		logger.FromCtx(r.Context()).Warn("pending: retention configs unavailable", zap.Error(err))
		configs = nil
	}
	httputil.WriteJSON(w, http.StatusOK, s.Reviewer.PendingDeletions(r.Context(), configs))
}

type deleteRequest struct {
	ItemIDs []string `json:"itemIds"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	res, err := s.Reviewer.DeleteItems(r.Context(), req.ItemIDs)
	if errors.Is(err, retention.ErrNoItemIDs) {
		httputil.WriteError(w, http.StatusBadRequest, "NO_ITEM_IDS", "itemIds must not be empty")
		return
	}
	if err != nil {
		httputil.WriteInternal(w, logger.FromCtx(r.Context()), "delete: unexpected failure", err)
		return
	}

	user := auth.UserFromContext(r.Context())
	if user != nil {
		logger.FromCtx(r.Context()).Info("review deletion",
			zap.String("by", user.Subject),
			zap.Int("deleted", len(res.Deleted)),
			zap.Int("skipped", len(res.Skipped)),
			zap.Int("failed", len(res.Failed)))
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// ──────────────────── Runs ────────────────────

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	queued, err := s.Queue.EnqueueRetention("manual")
	if err != nil {
		httputil.WriteInternal(w, logger.FromCtx(r.Context()), "run: enqueue failed", err)
		return
	}
	if !queued {
		httputil.WriteError(w, http.StatusConflict, "ALREADY_RUNNING", "a retention run is already pending or active")
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]interface{}{"queued": true})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	cancelled, err := s.Queue.CancelActive()
	if err != nil {
		httputil.WriteInternal(w, logger.FromCtx(r.Context()), "cancel: inspector failed", err)
		return
	}
	if !cancelled {
		httputil.WriteError(w, http.StatusNotFound, "NOT_RUNNING", "no retention run is active")
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]interface{}{"cancelling": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	current, err := s.Status.Current(r.Context())
	if err != nil {
		httputil.WriteInternal(w, logger.FromCtx(r.Context()), "status: read failed", err)
		return
	}
	n, _ := strconv.Atoi(r.URL.Query().Get("history"))
	var history []*status.RunStatus
	if n > 0 {
		history, err = s.Status.History(r.Context(), n)
		if err != nil {
			httputil.WriteInternal(w, logger.FromCtx(r.Context()), "status: history read failed", err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"current": current,
		"history": history,
	})
}

// ──────────────────── Configs ────────────────────

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.Configs.List(r.Context())
	if err != nil {
		httputil.WriteInternal(w, logger.FromCtx(r.Context()), "configs: list failed", err)
		return
	}
	if configs == nil {
		configs = []*models.RetentionConfig{}
	}
	httputil.WriteJSON(w, http.StatusOK, configs)
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	libID, err := uuid.Parse(chi.URLParam(r, "libraryId"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid library id")
		return
	}

	var cfg models.RetentionConfig
	if err := httputil.ReadJSON(r, &cfg); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	cfg.LibraryID = libID
	if cfg.Granularity == "" {
		cfg.Granularity = models.GranularityEpisode
	}
	if cfg.TimeBasis == "" {
		cfg.TimeBasis = models.BasisAdded
	}
	warnings, err := cfg.Validate()
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	if _, err := s.Libraries.GetByID(r.Context(), libID); err != nil {
		if errors.Is(err, retention.ErrLibraryNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "library not found")
			return
		}
		httputil.WriteInternal(w, logger.FromCtx(r.Context()), "configs: library lookup failed", err)
		return
	}

	if err := s.Configs.Upsert(r.Context(), &cfg); err != nil {
		httputil.WriteInternal(w, logger.FromCtx(r.Context()), "configs: upsert failed", err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"config":   cfg,
		"warnings": warnings,
	})
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	libID, err := uuid.Parse(chi.URLParam(r, "libraryId"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid library id")
		return
	}
	err = s.Configs.Delete(r.Context(), libID)
	if errors.Is(err, repository.ErrConfigNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no retention config for library")
		return
	}
	if err != nil {
		httputil.WriteInternal(w, logger.FromCtx(r.Context()), "configs: delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
