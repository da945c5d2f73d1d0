package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/JustinTDCT/CineSweep/internal/config"
	"github.com/JustinTDCT/CineSweep/internal/httputil"
	"github.com/JustinTDCT/CineSweep/internal/logger"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.Health))
	healthy := true
	for name, ping := range s.Health {
		if err := ping(ctx); err != nil {
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "up"
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, map[string]interface{}{
		"healthy": healthy,
		"checks":  checks,
		"version": s.Version,
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	all, err := s.Settings.GetAll(r.Context())
	if err != nil {
		httputil.WriteInternal(w, logger.FromCtx(r.Context()), "settings: load failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, all)
}

// handlePutSettings stores known keys; they take effect on the next start.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	keys := make([]string, 0, len(req))
	for k := range req {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Nothing is stored unless every value is valid.
	for _, k := range keys {
		if err := config.ValidateSetting(k, req[k]); err != nil {
			if errors.Is(err, config.ErrUnknownSetting) {
				httputil.WriteError(w, http.StatusBadRequest, "UNKNOWN_SETTING", "unknown setting: "+k)
				return
			}
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_SETTING", err.Error())
			return
		}
	}

	for _, k := range keys {
		if err := s.Settings.Set(r.Context(), k, req[k]); err != nil {
			httputil.WriteInternal(w, logger.FromCtx(r.Context()), "settings: save failed", err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"updated": keys})
}
