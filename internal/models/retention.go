package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const DefaultLeavingSoonName = "Leaving Soon"

// RetentionConfig holds the cleanup rules for one library. A zero threshold
// disables the corresponding rule.
type RetentionConfig struct {
	ID                uuid.UUID   `json:"id" yaml:"id" db:"id"`
	LibraryID         uuid.UUID   `json:"library_id" yaml:"library_id" db:"library_id"`
	Enabled           bool        `json:"enabled" yaml:"enabled" db:"enabled"`
	Granularity       Granularity `json:"granularity" yaml:"granularity" db:"granularity"`
	ExcludeFavorites  bool        `json:"exclude_favorites" yaml:"exclude_favorites" db:"exclude_favorites"`
	TimeBasis         TimeBasis   `json:"time_basis" yaml:"time_basis" db:"time_basis"`
	LeavingSoonDays   int         `json:"leaving_soon_days" yaml:"leaving_soon_days" db:"leaving_soon_days"`
	DeletionDays      int         `json:"deletion_days" yaml:"deletion_days" db:"deletion_days"`
	LeavingSoonName   string      `json:"leaving_soon_name" yaml:"leaving_soon_name" db:"leaving_soon_name"`
	AutomatedDeletion bool        `json:"automated_deletion" yaml:"automated_deletion" db:"automated_deletion"`
	CreatedAt         time.Time   `json:"created_at" yaml:"-" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" yaml:"-" db:"updated_at"`
}

// CollectionPurpose returns the display name used for the leaving-soon collection.
func (c *RetentionConfig) CollectionPurpose() string {
	if c.LeavingSoonName == "" {
		return DefaultLeavingSoonName
	}
	return c.LeavingSoonName
}

// Validate reports hard errors first; warnings describe settings that are
// accepted but probably not what the operator meant.
func (c *RetentionConfig) Validate() (warnings []string, err error) {
	if c.LibraryID == uuid.Nil {
		return nil, fmt.Errorf("library_id is required")
	}
	if c.LeavingSoonDays < 0 || c.DeletionDays < 0 {
		return nil, fmt.Errorf("thresholds must be non-negative")
	}
	if !c.Granularity.Valid() {
		return nil, fmt.Errorf("invalid granularity %q", c.Granularity)
	}
	if !c.TimeBasis.Valid() {
		return nil, fmt.Errorf("invalid time_basis %q", c.TimeBasis)
	}
	if c.LeavingSoonDays > 0 && c.LeavingSoonDays >= c.DeletionDays {
		warnings = append(warnings, fmt.Sprintf(
			"leaving_soon_days (%d) is not below deletion_days (%d): items will never be reported as leaving soon",
			c.LeavingSoonDays, c.DeletionDays))
	}
	return warnings, nil
}
