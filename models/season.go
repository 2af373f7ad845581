package models

import (
	"time"
)

// Season represents one competition year. At most one season is current;
// the flow layer enforces that when creating or updating.
type Season struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Year int    `gorm:"not null;uniqueIndex:uk_seasons_year" json:"year"`
	Name string `gorm:"size:255;not null" json:"name"`

	Theme    *string `gorm:"size:255" json:"theme,omitempty"`
	Location *string `gorm:"size:255" json:"location,omitempty"`
	Format   *string `gorm:"size:255" json:"format,omitempty"`

	RegistrationOpen  *bool      `gorm:"default:false;index:idx_seasons_registration_open" json:"registration_open"`
	RegistrationStart *time.Time `json:"registration_start,omitempty"`
	RegistrationEnd   *time.Time `json:"registration_end,omitempty"`

	CompetitionDateStart *time.Time `json:"competition_date_start,omitempty"`
	CompetitionDateEnd   *time.Time `json:"competition_date_end,omitempty"`

	IsCurrent  *bool `gorm:"default:false;index:idx_seasons_is_current" json:"is_current"`
	IsArchived *bool `gorm:"default:false;index:idx_seasons_is_archived" json:"is_archived"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_seasons_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Season) TableName() string {
	return "seasons"
}

// AcceptsRegistrations reports whether new teams may register into this
// season right now.
func (s *Season) AcceptsRegistrations() bool {
	if s.RegistrationOpen == nil || !*s.RegistrationOpen {
		return false
	}
	now := time.Now().UTC()
	if s.RegistrationStart != nil && now.Before(*s.RegistrationStart) {
		return false
	}
	if s.RegistrationEnd != nil && now.After(*s.RegistrationEnd) {
		return false
	}
	return true
}

// SeasonFilter represents filter criteria for season queries
type SeasonFilter struct {
	ID               *uint
	Year             *int
	RegistrationOpen *bool
	IsCurrent        *bool
	IsArchived       *bool
	CreatedAfter     *time.Time
	CreatedBefore    *time.Time
}
