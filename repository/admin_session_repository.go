// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/robocontest/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminSessionRepositoryImpl implements AdminSessionRepository interface
type AdminSessionRepositoryImpl struct {
	*BaseRepository[models.AdminSession, models.AdminSessionFilter]
}

// NewAdminSessionRepository creates a new admin session repository
func NewAdminSessionRepository(db *gorm.DB) AdminSessionRepository {
	return &AdminSessionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AdminSession, models.AdminSessionFilter](db),
	}
}

// BySessionToken retrieves an active, unexpired session by session token
func (r *AdminSessionRepositoryImpl) BySessionToken(ctx context.Context, token string) (*models.AdminSession, error) {
	db := r.getDB(ctx)

	var session models.AdminSession
	err := db.Where("session_token = ? AND is_active = ? AND expires_at > ?",
		token, true, time.Now()).
		Preload("Admin").
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by token: %w", err)
	}

	return &session, nil
}

// ByRefreshToken retrieves an active, unexpired session by refresh token
func (r *AdminSessionRepositoryImpl) ByRefreshToken(ctx context.Context, token string) (*models.AdminSession, error) {
	db := r.getDB(ctx)

	var session models.AdminSession
	err := db.Where("refresh_token = ? AND is_active = ? AND expires_at > ?",
		token, true, time.Now()).
		Preload("Admin").
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by refresh token: %w", err)
	}

	return &session, nil
}

// DeactivateSession marks a single session inactive
func (r *AdminSessionRepositoryImpl) DeactivateSession(ctx context.Context, sessionID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.AdminSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"is_active":        false,
			"last_accessed_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}

	return nil
}

// DeactivateAllAdminSessions marks every active session of an admin inactive
func (r *AdminSessionRepositoryImpl) DeactivateAllAdminSessions(ctx context.Context, adminID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.AdminSession{}).
		Where("admin_id = ? AND is_active = ?", adminID, true).
		Updates(map[string]any{
			"is_active":        false,
			"last_accessed_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate admin sessions: %w", err)
	}

	return nil
}

// GetLatestByCorrelationID retrieves the newest session in a refresh lineage
func (r *AdminSessionRepositoryImpl) GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.AdminSession, error) {
	db := r.getDB(ctx)

	var session models.AdminSession
	err := db.Where("correlation_id = ?", correlationID).
		Order("id DESC").
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by correlation ID: %w", err)
	}

	return &session, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *AdminSessionRepositoryImpl) applyFilter(query *gorm.DB, filter models.AdminSessionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.CorrelationID != nil {
		query = query.Where("correlation_id = ?", *filter.CorrelationID)
	}
	if filter.AdminID != nil {
		query = query.Where("admin_id = ?", *filter.AdminID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IPAddress != nil {
		query = query.Where("ip_address = ?", *filter.IPAddress)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.ExpiresAfter != nil {
		query = query.Where("expires_at > ?", *filter.ExpiresAfter)
	}
	if filter.ExpiresBefore != nil {
		query = query.Where("expires_at < ?", *filter.ExpiresBefore)
	}
	if filter.IsExpired != nil {
		if *filter.IsExpired {
			query = query.Where("expires_at <= ?", time.Now())
		} else {
			query = query.Where("expires_at > ?", time.Now())
		}
	}
	return query
}

// ByFilter retrieves sessions based on filter criteria
func (r *AdminSessionRepositoryImpl) ByFilter(ctx context.Context, filter models.AdminSessionFilter, orderBy string, limit, offset int) ([]*models.AdminSession, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AdminSession{}), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var sessions []*models.AdminSession
	err := query.Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// Count returns the number of sessions matching the filter
func (r *AdminSessionRepositoryImpl) Count(ctx context.Context, filter models.AdminSessionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AdminSession{}), filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any session matching the filter exists
func (r *AdminSessionRepositoryImpl) Exists(ctx context.Context, filter models.AdminSessionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
