// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/utils"
	"gorm.io/gorm"
)

// ContactMessageRepositoryImpl implements ContactMessageRepository interface
type ContactMessageRepositoryImpl struct {
	*BaseRepository[models.ContactMessage, models.ContactMessageFilter]
}

// NewContactMessageRepository creates a new contact message repository
func NewContactMessageRepository(db *gorm.DB) ContactMessageRepository {
	return &ContactMessageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ContactMessage, models.ContactMessageFilter](db),
	}
}

// ByUUID retrieves a contact message by UUID
func (r *ContactMessageRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.ContactMessage, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.ContactMessageFilter{UUID: &parsedUUID}
	messages, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		return nil, nil
	}

	return messages[0], nil
}

// MarkRead flags a contact message as read
func (r *ContactMessageRepositoryImpl) MarkRead(ctx context.Context, id uint) error {
	return r.setFlag(ctx, id, "is_read")
}

// MarkReplied flags a contact message as replied
func (r *ContactMessageRepositoryImpl) MarkReplied(ctx context.Context, id uint) error {
	return r.setFlag(ctx, id, "is_replied")
}

func (r *ContactMessageRepositoryImpl) setFlag(ctx context.Context, id uint, column string) error {
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

	err = db.Model(&models.ContactMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			column:       true,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update contact message %s: %w", column, err)
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ContactMessageRepositoryImpl) applyFilter(query *gorm.DB, filter models.ContactMessageFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Topic != nil {
		query = query.Where("topic = ?", *filter.Topic)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.IsRead != nil {
		query = query.Where("is_read = ?", *filter.IsRead)
	}
	if filter.IsReplied != nil {
		query = query.Where("is_replied = ?", *filter.IsReplied)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves contact messages based on filter criteria
func (r *ContactMessageRepositoryImpl) ByFilter(ctx context.Context, filter models.ContactMessageFilter, orderBy string, limit, offset int) ([]*models.ContactMessage, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ContactMessage{}), filter)

	// Newest submissions first by default
	if orderBy == "" {
		orderBy = "created_at DESC, id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var messages []*models.ContactMessage
	err := query.Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// Count returns the number of contact messages matching the filter
func (r *ContactMessageRepositoryImpl) Count(ctx context.Context, filter models.ContactMessageFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ContactMessage{}), filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any contact message matching the filter exists
func (r *ContactMessageRepositoryImpl) Exists(ctx context.Context, filter models.ContactMessageFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
