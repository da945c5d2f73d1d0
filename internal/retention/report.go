package retention

import (
	"time"

	"github.com/google/uuid"
)

// LibraryReport summarises one library's pass through a run.
type LibraryReport struct {
	LibraryID   uuid.UUID `json:"library_id"`
	LibraryName string    `json:"library_name,omitempty"`
	Scanned     int       `json:"scanned"`
	Eligible    int       `json:"eligible"`
	LeavingSoon int       `json:"leaving_soon"`
	ToDelete    int       `json:"to_delete"`
	Deleted     int       `json:"deleted"`
	Skipped     int       `json:"skipped"`
	Staged      bool      `json:"staged"`
	Error       string    `json:"error,omitempty"`

	// ReconcileErrors lists collections that could not be brought in line.
	ReconcileErrors []string `json:"reconcile_errors,omitempty"`
}

func (l *LibraryReport) failed() bool {
	return l.Error != "" || len(l.ReconcileErrors) > 0
}

type Report struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Cancelled  bool             `json:"cancelled"`
	Libraries  []*LibraryReport `json:"libraries"`
}

// Failed counts libraries whose processing ended with an error or left a
// managed collection unreconciled.
func (r *Report) Failed() int {
	n := 0
	for _, l := range r.Libraries {
		if l.failed() {
			n++
		}
	}
	return n
}
