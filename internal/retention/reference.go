package retention

import (
	"time"

	"github.com/JustinTDCT/CineSweep/internal/models"
)

// ReferenceDate returns the timestamp an item's age is measured against.
// Unknown bases fall back to the added date.
func ReferenceDate(item *models.MediaItem, basis models.TimeBasis) time.Time {
	switch basis {
	case models.BasisFileUpdated:
		return item.ModifiedAt
	case models.BasisWatched:
		return item.LastWatchedAt
	default:
		return item.AddedAt
	}
}
