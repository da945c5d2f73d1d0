package retention

import (
	"time"

	"github.com/JustinTDCT/CineSweep/internal/models"
)

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeLeavingSoon
	OutcomeToDelete
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLeavingSoon:
		return "leaving_soon"
	case OutcomeToDelete:
		return "to_delete"
	default:
		return "none"
	}
}

// AgeDays is the fractional number of days between ref and now.
func AgeDays(now, ref time.Time) float64 {
	return now.UTC().Sub(ref.UTC()).Hours() / 24
}

// Classify assigns an admitted item to at most one outcome. Deletion wins
// over leaving soon; the leaving-soon window is [LeavingSoonDays, DeletionDays).
func Classify(item *models.MediaItem, cfg *models.RetentionConfig, now time.Time) Outcome {
	d := AgeDays(now, ReferenceDate(item, cfg.TimeBasis))
	del := float64(cfg.DeletionDays)
	soon := float64(cfg.LeavingSoonDays)

	if cfg.DeletionDays > 0 && d >= del {
		return OutcomeToDelete
	}
	if cfg.LeavingSoonDays > 0 && d >= soon && d < del {
		return OutcomeLeavingSoon
	}
	return OutcomeNone
}
