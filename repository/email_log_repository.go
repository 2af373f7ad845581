package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/robocontest/models"
	"gorm.io/gorm"
)

// EmailLogRepositoryImpl implements EmailLogRepository
type EmailLogRepositoryImpl struct {
	*BaseRepository[models.EmailLog, models.EmailLogFilter]
}

func NewEmailLogRepository(db *gorm.DB) EmailLogRepository {
	return &EmailLogRepositoryImpl{BaseRepository: NewBaseRepository[models.EmailLog, models.EmailLogFilter](db)}
}

func (r *EmailLogRepositoryImpl) ByID(ctx context.Context, id uint) (*models.EmailLog, error) {
	db := r.getDB(ctx)
	var row models.EmailLog
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByCampaign retrieves delivery records of one campaign in insertion order
func (r *EmailLogRepositoryImpl) ListByCampaign(ctx context.Context, campaignID uint, limit, offset int) ([]*models.EmailLog, error) {
	filter := models.EmailLogFilter{CampaignID: &campaignID}
	return r.ByFilter(ctx, filter, "id ASC", limit, offset)
}

// MarkSent moves a record to the sent state. A record already marked sent
// is never touched again.
func (r *EmailLogRepositoryImpl) MarkSent(ctx context.Context, id uint, sentAt time.Time) error {
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

	err = db.Model(&models.EmailLog{}).
		Where("id = ? AND status <> ?", id, models.EmailStatusSent).
		Updates(map[string]any{
			"status":        models.EmailStatusSent,
			"sent_at":       sentAt,
			"error_message": nil,
			"updated_at":    time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark email log sent: %w", err)
	}

	return nil
}

// MarkFailed moves a record to the failed state with the delivery error.
// Sent records are never downgraded.
func (r *EmailLogRepositoryImpl) MarkFailed(ctx context.Context, id uint, errorMessage string) error {
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

	err = db.Model(&models.EmailLog{}).
		Where("id = ? AND status <> ?", id, models.EmailStatusSent).
		Updates(map[string]any{
			"status":        models.EmailStatusFailed,
			"error_message": errorMessage,
			"updated_at":    time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark email log failed: %w", err)
	}

	return nil
}

// IncrementRetry bumps the retry counter of a record
func (r *EmailLogRepositoryImpl) IncrementRetry(ctx context.Context, id uint) error {
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

	err = db.Model(&models.EmailLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"retry_count": gorm.Expr("retry_count + 1"),
			"updated_at":  time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to increment email log retry count: %w", err)
	}

	return nil
}

// Stats aggregates delivery outcomes across all records
func (r *EmailLogRepositoryImpl) Stats(ctx context.Context) (*models.EmailStats, error) {
	db := r.getDB(ctx)

	stats := &models.EmailStats{ByType: make(map[string]int64)}

	type statusCount struct {
		Status models.EmailStatus
		Count  int64
	}
	var byStatus []statusCount
	err := db.Model(&models.EmailLog{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate email logs by status: %w", err)
	}

	for _, row := range byStatus {
		stats.Total += row.Count
		switch row.Status {
		case models.EmailStatusSent:
			stats.Sent = row.Count
		case models.EmailStatusFailed:
			stats.Failed = row.Count
		case models.EmailStatusPending:
			stats.Pending = row.Count
		}
	}

	type typeCount struct {
		EmailType models.EmailType
		Count     int64
	}
	var byType []typeCount
	err = db.Model(&models.EmailLog{}).
		Select("email_type, COUNT(*) AS count").
		Group("email_type").
		Scan(&byType).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate email logs by type: %w", err)
	}

	for _, row := range byType {
		stats.ByType[row.EmailType.String()] = row.Count
	}

	return stats, nil
}

func (r *EmailLogRepositoryImpl) applyFilter(db *gorm.DB, f models.EmailLogFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.ToEmail != nil {
		db = db.Where("to_email = ?", *f.ToEmail)
	}
	if f.EmailType != nil {
		db = db.Where("email_type = ?", *f.EmailType)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.TeamID != nil {
		db = db.Where("team_id = ?", *f.TeamID)
	}
	if f.ContactID != nil {
		db = db.Where("contact_id = ?", *f.ContactID)
	}
	if f.CampaignID != nil {
		db = db.Where("campaign_id = ?", *f.CampaignID)
	}
	if f.SentBy != nil {
		db = db.Where("sent_by = ?", *f.SentBy)
	}
	if f.Search != nil {
		pattern := "%" + *f.Search + "%"
		db = db.Where("to_email ILIKE ? OR subject ILIKE ?", pattern, pattern)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *EmailLogRepositoryImpl) ByFilter(ctx context.Context, filter models.EmailLogFilter, orderBy string, limit, offset int) ([]*models.EmailLog, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.EmailLog{}), filter)
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
	var rows []*models.EmailLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *EmailLogRepositoryImpl) Count(ctx context.Context, filter models.EmailLogFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.EmailLog{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *EmailLogRepositoryImpl) Exists(ctx context.Context, filter models.EmailLogFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
