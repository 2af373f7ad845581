// Package models contains domain entities and business models for the contest backend
package models

import (
	"time"

	"github.com/avolkov/robocontest/utils"
	"github.com/google/uuid"
)

type AdminSession struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CorrelationID  uuid.UUID `gorm:"type:uuid;not null;index:idx_admin_sessions_correlation_id" json:"correlation_id"` // Groups a refresh lineage
	AdminID        uint      `gorm:"not null;index:idx_admin_sessions_admin_id" json:"admin_id"`
	Admin          Admin     `gorm:"foreignKey:AdminID;references:ID" json:"admin,omitempty"`
	SessionToken   string    `gorm:"size:255;not null;uniqueIndex:idx_admin_sessions_session_token" json:"-"` // Never serialize token
	RefreshToken   *string   `gorm:"size:255;uniqueIndex:idx_admin_sessions_refresh_token" json:"-"`          // Never serialize refresh token
	IPAddress      *string   `gorm:"type:inet;index:idx_admin_sessions_ip_address" json:"ip_address,omitempty"`
	UserAgent      *string   `gorm:"type:text" json:"user_agent,omitempty"`
	IsActive       *bool     `gorm:"default:true;index:idx_admin_sessions_is_active" json:"is_active"`
	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	LastAccessedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_admin_sessions_last_accessed" json:"last_accessed_at"`
	ExpiresAt      time.Time `gorm:"not null;index:idx_admin_sessions_expires_at" json:"expires_at"`
}

func (AdminSession) TableName() string {
	return "admin_sessions"
}

// AdminSessionFilter represents filter criteria for session queries
type AdminSessionFilter struct {
	ID            *uint
	CorrelationID *uuid.UUID
	AdminID       *uint
	IsActive      *bool
	IPAddress     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time
	IsExpired     *bool // Helper to filter expired sessions
}

func (s *AdminSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

func (s *AdminSession) IsValid() bool {
	return utils.IsTrue(s.IsActive) && !s.IsExpired()
}
