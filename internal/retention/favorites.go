package retention

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JustinTDCT/CineSweep/internal/models"
)

// FavoriteSet holds every item id any user has marked as favorite.
type FavoriteSet map[uuid.UUID]struct{}

func NewFavoriteSet(ids ...uuid.UUID) FavoriteSet {
	s := make(FavoriteSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s FavoriteSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

func (s FavoriteSet) hasPtr(id *uuid.UUID) bool {
	return id != nil && s.Has(*id)
}

// LoadFavorites unions the favorites of every known user, one store round
// trip per user.
func LoadFavorites(ctx context.Context, users UserStore, log *zap.Logger) (FavoriteSet, error) {
	list, err := users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	favs := make(FavoriteSet)
	for _, u := range list {
		ids, err := users.ListFavoriteIDs(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("list favorites for %s: %w", u.Username, err)
		}
		for _, id := range ids {
			favs[id] = struct{}{}
		}
	}
	log.Debug("loaded favorites", zap.Int("users", len(list)), zap.Int("items", len(favs)))
	return favs, nil
}

// Hierarchy answers descendant lookups over a snapshot of catalog items.
type Hierarchy struct {
	seasonsBySeries  map[uuid.UUID][]uuid.UUID
	episodesBySeries map[uuid.UUID][]uuid.UUID
	episodesBySeason map[uuid.UUID][]uuid.UUID
}

func NewHierarchy(items []*models.MediaItem) *Hierarchy {
	h := &Hierarchy{
		seasonsBySeries:  make(map[uuid.UUID][]uuid.UUID),
		episodesBySeries: make(map[uuid.UUID][]uuid.UUID),
		episodesBySeason: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, it := range items {
		switch it.Kind {
		case models.KindSeason:
			if it.SeriesID != nil {
				h.seasonsBySeries[*it.SeriesID] = append(h.seasonsBySeries[*it.SeriesID], it.ID)
			}
		case models.KindEpisode:
			if it.SeriesID != nil {
				h.episodesBySeries[*it.SeriesID] = append(h.episodesBySeries[*it.SeriesID], it.ID)
			}
			if it.SeasonID != nil {
				h.episodesBySeason[*it.SeasonID] = append(h.episodesBySeason[*it.SeasonID], it.ID)
			}
		}
	}
	return h
}

// Descendants returns the seasons and episodes below a series, or the
// episodes below a season. Other kinds have none.
func (h *Hierarchy) Descendants(item *models.MediaItem) []uuid.UUID {
	switch item.Kind {
	case models.KindSeason:
		return h.episodesBySeason[item.ID]
	case models.KindSeries:
		out := make([]uuid.UUID, 0, len(h.seasonsBySeries[item.ID])+len(h.episodesBySeries[item.ID]))
		out = append(out, h.seasonsBySeries[item.ID]...)
		return append(out, h.episodesBySeries[item.ID]...)
	}
	return nil
}

// IsFavorite reports whether the item is shielded by a favorite on itself,
// on its series, or on anything below it.
func IsFavorite(item *models.MediaItem, favs FavoriteSet, h *Hierarchy) bool {
	if len(favs) == 0 {
		return false
	}
	if favs.Has(item.ID) {
		return true
	}
	switch item.Kind {
	case models.KindEpisode:
		return favs.hasPtr(item.SeriesID)
	case models.KindSeason:
		if favs.hasPtr(item.SeriesID) {
			return true
		}
		return anyFavorite(h.Descendants(item), favs)
	case models.KindSeries:
		return anyFavorite(h.Descendants(item), favs)
	}
	return false
}

func anyFavorite(ids []uuid.UUID, favs FavoriteSet) bool {
	for _, id := range ids {
		if favs.Has(id) {
			return true
		}
	}
	return false
}
