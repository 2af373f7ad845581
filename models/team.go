package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamStatus represents the review state of a registered team
type TeamStatus string

const (
	TeamStatusPending   TeamStatus = "pending"
	TeamStatusApproved  TeamStatus = "approved"
	TeamStatusRejected  TeamStatus = "rejected"
	TeamStatusWithdrawn TeamStatus = "withdrawn"
)

// String returns the string representation of the status
func (s TeamStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s TeamStatus) Valid() bool {
	switch s {
	case TeamStatusPending, TeamStatusApproved, TeamStatusRejected, TeamStatusWithdrawn:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for TeamStatus
func (s *TeamStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = TeamStatus(v)
	case []byte:
		*s = TeamStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into TeamStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for TeamStatus
func (s TeamStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid TeamStatus: %s", s)
	}
	return string(s), nil
}

// TeamLeague represents the age bracket a team competes in
type TeamLeague string

const (
	TeamLeagueJunior TeamLeague = "junior"
	TeamLeagueSenior TeamLeague = "senior"
)

func (l TeamLeague) Valid() bool {
	return l == TeamLeagueJunior || l == TeamLeagueSenior
}

// Team represents a registered competition team. The contact email is the
// address the mailing pipeline resolves team-targeted campaigns to.
type Team struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	UUID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_teams_uuid" json:"uuid"`
	SeasonID uint       `gorm:"not null;index:idx_teams_season_id;uniqueIndex:uk_teams_season_name" json:"season_id"`
	Season   *Season    `gorm:"foreignKey:SeasonID;references:ID" json:"season,omitempty"`
	Name     string     `gorm:"size:255;not null;uniqueIndex:uk_teams_season_name" json:"name"`
	Status   TeamStatus `gorm:"type:team_status;not null;default:'pending';index:idx_teams_status" json:"status"`
	League   TeamLeague `gorm:"type:team_league;not null;default:'senior'" json:"league"`

	City        *string `gorm:"size:255" json:"city,omitempty"`
	Institution *string `gorm:"size:255" json:"institution,omitempty"`

	CaptainName  string  `gorm:"size:255;not null" json:"captain_name"`
	Email        string  `gorm:"size:255;not null;index:idx_teams_email" json:"email"`
	Phone        *string `gorm:"size:32" json:"phone,omitempty"`
	MembersCount int     `gorm:"not null;default:1" json:"members_count"`
	Comment      *string `gorm:"type:text" json:"comment,omitempty"`

	RulesAccepted *bool `gorm:"not null;default:false" json:"rules_accepted"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_teams_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Team) TableName() string { return "teams" }

// BeforeCreate ensures the UUID and default status are set
func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TeamStatusPending
	}
	return nil
}

// CanTransitionTo checks if the team can move to the given review status
func (t *Team) CanTransitionTo(newStatus TeamStatus) bool {
	if !newStatus.Valid() || newStatus == t.Status {
		return false
	}
	switch t.Status {
	case TeamStatusPending:
		return newStatus == TeamStatusApproved || newStatus == TeamStatusRejected || newStatus == TeamStatusWithdrawn
	case TeamStatusApproved:
		return newStatus == TeamStatusWithdrawn || newStatus == TeamStatusRejected
	case TeamStatusRejected:
		return newStatus == TeamStatusApproved
	default:
		return false
	}
}

// TeamFilter represents filter criteria for team queries
type TeamFilter struct {
	ID            *uint       `json:"id,omitempty"`
	UUID          *uuid.UUID  `json:"uuid,omitempty"`
	SeasonID      *uint       `json:"season_id,omitempty"`
	Name          *string     `json:"name,omitempty"`
	Status        *TeamStatus `json:"status,omitempty"`
	League        *TeamLeague `json:"league,omitempty"`
	Email         *string     `json:"email,omitempty"`
	Search        *string     `json:"search,omitempty"` // matches name, city, institution
	CreatedAfter  *time.Time  `json:"created_after,omitempty"`
	CreatedBefore *time.Time  `json:"created_before,omitempty"`
}
