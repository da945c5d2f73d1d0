package retention

import "github.com/JustinTDCT/CineSweep/internal/models"

// IsEligible reports whether the item is a unit of action for the library's
// granularity. Movies always are; TV content only at the configured level so
// the same episodes are never counted twice.
func IsEligible(item *models.MediaItem, g models.Granularity) bool {
	switch item.Kind {
	case models.KindMovie:
		return true
	case models.KindEpisode:
		return g == models.GranularityEpisode
	case models.KindSeason:
		return g == models.GranularitySeason
	case models.KindSeries:
		return g == models.GranularitySeries
	}
	return false
}

func Admit(item *models.MediaItem, cfg *models.RetentionConfig, favs FavoriteSet, h *Hierarchy) bool {
	if !IsEligible(item, cfg.Granularity) {
		return false
	}
	return !cfg.ExcludeFavorites || !IsFavorite(item, favs, h)
}
