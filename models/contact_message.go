package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactTopic represents the subject area of a contact form submission
type ContactTopic string

const (
	ContactTopicGeneral      ContactTopic = "general"
	ContactTopicRegistration ContactTopic = "registration"
	ContactTopicSponsorship  ContactTopic = "sponsorship"
	ContactTopicPress        ContactTopic = "press"
)

func (t ContactTopic) String() string {
	return string(t)
}

func (t ContactTopic) Valid() bool {
	switch t {
	case ContactTopicGeneral, ContactTopicRegistration, ContactTopicSponsorship, ContactTopicPress:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ContactTopic
func (t *ContactTopic) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = ContactTopic(v)
	case []byte:
		*t = ContactTopic(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ContactTopic", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ContactTopic
func (t ContactTopic) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid ContactTopic: %s", t)
	}
	return string(t), nil
}

// ContactMessage represents a message submitted through the public contact form
type ContactMessage struct {
	ID    uint         `gorm:"primaryKey" json:"id"`
	UUID  uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uk_contact_messages_uuid" json:"uuid"`
	Topic ContactTopic `gorm:"type:contact_topic;not null;default:'general';index:idx_contact_messages_topic" json:"topic"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255;not null;index:idx_contact_messages_email" json:"email"`
	Message string `gorm:"type:text;not null" json:"message"`

	IsRead    *bool `gorm:"not null;default:false;index:idx_contact_messages_is_read" json:"is_read"`
	IsReplied *bool `gorm:"not null;default:false" json:"is_replied"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_contact_messages_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (ContactMessage) TableName() string { return "contact_messages" }

// BeforeCreate ensures the UUID and default topic are set
func (m *ContactMessage) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == uuid.Nil {
		m.UUID = uuid.New()
	}
	if m.Topic == "" {
		m.Topic = ContactTopicGeneral
	}
	return nil
}

// ContactMessageFilter represents filter criteria for contact message queries
type ContactMessageFilter struct {
	ID            *uint         `json:"id,omitempty"`
	UUID          *uuid.UUID    `json:"uuid,omitempty"`
	Topic         *ContactTopic `json:"topic,omitempty"`
	Email         *string       `json:"email,omitempty"`
	IsRead        *bool         `json:"is_read,omitempty"`
	IsReplied     *bool         `json:"is_replied,omitempty"`
	CreatedAfter  *time.Time    `json:"created_after,omitempty"`
	CreatedBefore *time.Time    `json:"created_before,omitempty"`
}
