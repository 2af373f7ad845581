// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/avolkov/robocontest/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AdminRepository defines operations for admin accounts
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByEmail(ctx context.Context, email string) (*models.Admin, error)
	ByUUID(ctx context.Context, uuid string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, adminID uint, at time.Time) error
	UpdatePassword(ctx context.Context, adminID uint, passwordHash string) error
}

// AdminSessionRepository defines operations for admin sessions
type AdminSessionRepository interface {
	Repository[models.AdminSession, models.AdminSessionFilter]
	BySessionToken(ctx context.Context, token string) (*models.AdminSession, error)
	ByRefreshToken(ctx context.Context, token string) (*models.AdminSession, error)
	DeactivateSession(ctx context.Context, sessionID uint) error
	DeactivateAllAdminSessions(ctx context.Context, adminID uint) error
	GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.AdminSession, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByAdmin(ctx context.Context, adminID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
	ListSecurityEvents(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// SeasonRepository defines operations for competition seasons
type SeasonRepository interface {
	Repository[models.Season, models.SeasonFilter]
	ByYear(ctx context.Context, year int) (*models.Season, error)
	Current(ctx context.Context) (*models.Season, error)
	ClearCurrent(ctx context.Context, exceptID uint) error
	Update(ctx context.Context, season *models.Season) error
	Delete(ctx context.Context, id uint) error
}

// TeamRepository defines operations for registered teams
type TeamRepository interface {
	Repository[models.Team, models.TeamFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Team, error)
	BySeasonAndName(ctx context.Context, seasonID uint, name string) (*models.Team, error)
	ListRecipients(ctx context.Context, statuses []models.TeamStatus, seasonID *uint) ([]*models.Team, error)
	UpdateStatus(ctx context.Context, id uint, status models.TeamStatus) error
	CountBySeason(ctx context.Context, seasonID uint) (int64, error)
}

// ContactMessageRepository defines operations for contact form submissions
type ContactMessageRepository interface {
	Repository[models.ContactMessage, models.ContactMessageFilter]
	ByUUID(ctx context.Context, uuid string) (*models.ContactMessage, error)
	MarkRead(ctx context.Context, id uint) error
	MarkReplied(ctx context.Context, id uint) error
}

// MailingCampaignRepository defines operations for mass mailing campaigns.
// Delete, SetTotalRecipients and FinalizeDispatch are conditional on
// is_sent = false so a finished campaign can never be rewritten; the returned
// bool reports whether a row was actually changed.
type MailingCampaignRepository interface {
	Repository[models.MailingCampaign, models.MailingCampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.MailingCampaign, error)
	Delete(ctx context.Context, id uint) (bool, error)
	SetTotalRecipients(ctx context.Context, id uint, total int) (bool, error)
	FinalizeDispatch(ctx context.Context, id uint, sentCount, failedCount int, sentAt time.Time) (bool, error)
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.MailingCampaign, error)
}

// EmailLogRepository defines operations for email delivery records
type EmailLogRepository interface {
	Repository[models.EmailLog, models.EmailLogFilter]
	ListByCampaign(ctx context.Context, campaignID uint, limit, offset int) ([]*models.EmailLog, error)
	MarkSent(ctx context.Context, id uint, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uint, errorMessage string) error
	IncrementRetry(ctx context.Context, id uint) error
	Stats(ctx context.Context) (*models.EmailStats, error)
}
