package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MailingTargetType represents the recipient group a campaign is addressed to
type MailingTargetType string

const (
	MailingTargetAllTeams      MailingTargetType = "all_teams"
	MailingTargetApprovedTeams MailingTargetType = "approved_teams"
	MailingTargetPendingTeams  MailingTargetType = "pending_teams"
	MailingTargetCustomEmails  MailingTargetType = "custom_emails"
)

// String returns the string representation of the target type
func (t MailingTargetType) String() string {
	return string(t)
}

// Valid checks if the target type is valid
func (t MailingTargetType) Valid() bool {
	switch t {
	case MailingTargetAllTeams, MailingTargetApprovedTeams, MailingTargetPendingTeams, MailingTargetCustomEmails:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for MailingTargetType
func (t *MailingTargetType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = MailingTargetType(v)
	case []byte:
		*t = MailingTargetType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into MailingTargetType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for MailingTargetType
func (t MailingTargetType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid MailingTargetType: %s", t)
	}
	return string(t), nil
}

// MailingCampaign represents a mass mailing to a targeted recipient group.
// Counters and is_sent are written once by the dispatcher when the run
// finishes; a campaign with is_sent=true is immutable.
type MailingCampaign struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_mailing_campaigns_uuid" json:"uuid"`

	Name    string  `gorm:"size:255;not null" json:"name"`
	Subject string  `gorm:"size:500;not null" json:"subject"`
	Body    string  `gorm:"type:text;not null" json:"body"`
	HTML    *string `gorm:"type:text;column:html" json:"html,omitempty"`

	TargetType      MailingTargetType `gorm:"type:mailing_target_type;not null;index:idx_mailing_campaigns_target_type" json:"target_type"`
	TargetSeasonID  *uint             `gorm:"index:idx_mailing_campaigns_target_season_id" json:"target_season_id,omitempty"`
	TargetSeason    *Season           `gorm:"foreignKey:TargetSeasonID;references:ID" json:"target_season,omitempty"`
	CustomEmails    pq.StringArray    `gorm:"type:text[]" json:"custom_emails,omitempty"`
	RecipientsLimit *int              `json:"recipients_limit,omitempty"`

	ScheduledAt *time.Time `gorm:"index:idx_mailing_campaigns_scheduled_at" json:"scheduled_at,omitempty"`
	IsScheduled *bool      `gorm:"not null;default:false" json:"is_scheduled"`

	TotalRecipients int        `gorm:"not null;default:0" json:"total_recipients"`
	SentCount       int        `gorm:"not null;default:0" json:"sent_count"`
	FailedCount     int        `gorm:"not null;default:0" json:"failed_count"`
	IsSent          *bool      `gorm:"not null;default:false;index:idx_mailing_campaigns_is_sent" json:"is_sent"`
	SentAt          *time.Time `json:"sent_at,omitempty"`

	CreatedBy *uint  `json:"created_by,omitempty"`
	Creator   *Admin `gorm:"foreignKey:CreatedBy;references:ID" json:"creator,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_mailing_campaigns_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (MailingCampaign) TableName() string { return "mailing_campaigns" }

// BeforeCreate ensures the UUID is set
func (c *MailingCampaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}

// IsEditable checks if the campaign can still be modified
func (c *MailingCampaign) IsEditable() bool {
	return c.IsSent == nil || !*c.IsSent
}

// IsDeletable checks if the campaign can be deleted
func (c *MailingCampaign) IsDeletable() bool {
	return c.IsSent == nil || !*c.IsSent
}

// IsDue reports whether a scheduled campaign should be dispatched at now
func (c *MailingCampaign) IsDue(now time.Time) bool {
	if c.IsScheduled == nil || !*c.IsScheduled || c.ScheduledAt == nil {
		return false
	}
	if c.IsSent != nil && *c.IsSent {
		return false
	}
	return !c.ScheduledAt.After(now)
}

// MailingCampaignFilter represents filter criteria for campaign queries
type MailingCampaignFilter struct {
	ID             *uint              `json:"id,omitempty"`
	UUID           *uuid.UUID         `json:"uuid,omitempty"`
	Name           *string            `json:"name,omitempty"`
	TargetType     *MailingTargetType `json:"target_type,omitempty"`
	TargetSeasonID *uint              `json:"target_season_id,omitempty"`
	IsScheduled    *bool              `json:"is_scheduled,omitempty"`
	IsSent         *bool              `json:"is_sent,omitempty"`
	CreatedBy      *uint              `json:"created_by,omitempty"`
	CreatedAfter   *time.Time         `json:"created_after,omitempty"`
	CreatedBefore  *time.Time         `json:"created_before,omitempty"`
}
