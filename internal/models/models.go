package models

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────── Enums ────────────────────

type ItemKind string

const (
	KindMovie   ItemKind = "movie"
	KindEpisode ItemKind = "episode"
	KindSeason  ItemKind = "season"
	KindSeries  ItemKind = "series"
)

var AllItemKinds = []ItemKind{KindMovie, KindEpisode, KindSeason, KindSeries}

func (k ItemKind) Valid() bool {
	switch k {
	case KindMovie, KindEpisode, KindSeason, KindSeries:
		return true
	}
	return false
}

// Granularity is the unit of action for TV content.
type Granularity string

const (
	GranularityEpisode Granularity = "episode"
	GranularitySeason  Granularity = "season"
	GranularitySeries  Granularity = "series"
)

func (g Granularity) Valid() bool {
	switch g {
	case GranularityEpisode, GranularitySeason, GranularitySeries:
		return true
	}
	return false
}

// TimeBasis selects which item timestamp a retention rule measures age against.
type TimeBasis string

const (
	BasisAdded       TimeBasis = "added"
	BasisFileUpdated TimeBasis = "file_updated"
	BasisWatched     TimeBasis = "watched"
)

func (b TimeBasis) Valid() bool {
	switch b {
	case BasisAdded, BasisFileUpdated, BasisWatched:
		return true
	}
	return false
}

type CollectionKind string

const (
	CollectionKindManual    CollectionKind = "manual"
	CollectionKindRetention CollectionKind = "retention"
)

// ──────────────────── Library ────────────────────

type Library struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Path      string    `json:"path" db:"path"`
	IsEnabled bool      `json:"is_enabled" db:"is_enabled"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ──────────────────── MediaItem ────────────────────

// MediaItem is a read-only snapshot of a catalog entry. Path is empty when the
// item has no deletable backing file.
type MediaItem struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	LibraryID     uuid.UUID  `json:"library_id" db:"library_id"`
	Name          string     `json:"name" db:"name"`
	Kind          ItemKind   `json:"kind" db:"kind"`
	Path          string     `json:"path" db:"path"`
	IsVirtual     bool       `json:"is_virtual" db:"is_virtual"`
	SeriesID      *uuid.UUID `json:"series_id,omitempty" db:"series_id"`
	SeasonID      *uuid.UUID `json:"season_id,omitempty" db:"season_id"`
	AddedAt       time.Time  `json:"added_at" db:"added_at"`
	ModifiedAt    time.Time  `json:"modified_at" db:"modified_at"`
	LastWatchedAt time.Time  `json:"last_watched_at" db:"last_watched_at"`
	LastSavedAt   time.Time  `json:"last_saved_at" db:"updated_at"`
}

// ──────────────────── Collections ────────────────────

type Collection struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Kind      CollectionKind `json:"kind" db:"collection_type"`
	Locked    bool           `json:"locked" db:"locked"`
	Path      *string        `json:"path,omitempty" db:"path"`
	ItemCount int            `json:"item_count" db:"-"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Users ────────────────────

type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
