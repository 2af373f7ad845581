package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// EmailType represents the kind of email a delivery record belongs to
type EmailType string

const (
	EmailTypeRegistrationConfirmation EmailType = "registration_confirmation"
	EmailTypeContactNotification      EmailType = "contact_notification"
	EmailTypeMassMailing              EmailType = "mass_mailing"
	EmailTypeTeamStatusUpdate         EmailType = "team_status_update"
	EmailTypeCustom                   EmailType = "custom"
)

// String returns the string representation of the email type
func (t EmailType) String() string {
	return string(t)
}

// Valid checks if the email type is valid
func (t EmailType) Valid() bool {
	switch t {
	case EmailTypeRegistrationConfirmation, EmailTypeContactNotification,
		EmailTypeMassMailing, EmailTypeTeamStatusUpdate, EmailTypeCustom:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for EmailType
func (t *EmailType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = EmailType(v)
	case []byte:
		*t = EmailType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into EmailType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for EmailType
func (t EmailType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid EmailType: %s", t)
	}
	return string(t), nil
}

// EmailStatus represents the delivery state of a single email
type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
)

// String returns the string representation of the status
func (s EmailStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s EmailStatus) Valid() bool {
	switch s {
	case EmailStatusPending, EmailStatusSent, EmailStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status is a final delivery outcome
func (s EmailStatus) IsTerminal() bool {
	return s == EmailStatusSent || s == EmailStatusFailed
}

// Scan implements the sql.Scanner interface for EmailStatus
func (s *EmailStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = EmailStatus(v)
	case []byte:
		*s = EmailStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into EmailStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for EmailStatus
func (s EmailStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid EmailStatus: %s", s)
	}
	return string(s), nil
}

// EmailLog represents one delivery attempt to one recipient. Records are
// append-only; a row only ever moves from pending to sent or failed.
type EmailLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ToEmail string  `gorm:"size:255;not null;index:idx_email_logs_to_email" json:"to_email"`
	ToName  *string `gorm:"size:255" json:"to_name,omitempty"`
	Subject string  `gorm:"size:500;not null" json:"subject"`

	EmailType EmailType   `gorm:"type:email_type;not null;index:idx_email_logs_email_type" json:"email_type"`
	Status    EmailStatus `gorm:"type:email_status;not null;default:'pending';index:idx_email_logs_status" json:"status"`

	BodyPreview  *string `gorm:"size:500" json:"body_preview,omitempty"`
	ErrorMessage *string `gorm:"type:text" json:"error_message,omitempty"`
	RetryCount   int     `gorm:"not null;default:0" json:"retry_count"`

	TeamID     *uint            `gorm:"index:idx_email_logs_team_id" json:"team_id,omitempty"`
	Team       *Team            `gorm:"foreignKey:TeamID;references:ID" json:"team,omitempty"`
	ContactID  *uint            `json:"contact_id,omitempty"`
	Contact    *ContactMessage  `gorm:"foreignKey:ContactID;references:ID" json:"contact,omitempty"`
	CampaignID *uint            `gorm:"index:idx_email_logs_campaign_id" json:"campaign_id,omitempty"`
	Campaign   *MailingCampaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	SentBy     *uint            `json:"sent_by,omitempty"`
	Sender     *Admin           `gorm:"foreignKey:SentBy;references:ID" json:"sender,omitempty"`

	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_email_logs_created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (EmailLog) TableName() string { return "email_logs" }

// IsSent checks if the email was delivered successfully
func (l *EmailLog) IsSent() bool {
	return l.Status == EmailStatusSent
}

// IsFailed checks if the delivery attempt failed
func (l *EmailLog) IsFailed() bool {
	return l.Status == EmailStatusFailed
}

// EmailLogFilter represents filter criteria for delivery record queries
type EmailLogFilter struct {
	ID            *uint        `json:"id,omitempty"`
	ToEmail       *string      `json:"to_email,omitempty"`
	EmailType     *EmailType   `json:"email_type,omitempty"`
	Status        *EmailStatus `json:"status,omitempty"`
	TeamID        *uint        `json:"team_id,omitempty"`
	ContactID     *uint        `json:"contact_id,omitempty"`
	CampaignID    *uint        `json:"campaign_id,omitempty"`
	SentBy        *uint        `json:"sent_by,omitempty"`
	Search        *string      `json:"search,omitempty"` // matches to_email and subject
	CreatedAfter  *time.Time   `json:"created_after,omitempty"`
	CreatedBefore *time.Time   `json:"created_before,omitempty"`
}

// EmailStats aggregates delivery outcomes for the admin dashboard
type EmailStats struct {
	Total   int64 `json:"total"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Pending int64 `json:"pending"`

	ByType map[string]int64 `json:"by_type"`
}
