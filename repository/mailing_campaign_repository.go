// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/utils"
	"gorm.io/gorm"
)

// MailingCampaignRepositoryImpl implements the MailingCampaignRepository interface
type MailingCampaignRepositoryImpl struct {
	*BaseRepository[models.MailingCampaign, models.MailingCampaignFilter]
}

// NewMailingCampaignRepository creates a new mailing campaign repository
func NewMailingCampaignRepository(db *gorm.DB) MailingCampaignRepository {
	return &MailingCampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.MailingCampaign, models.MailingCampaignFilter](db),
	}
}

// ByID retrieves a mailing campaign by ID
func (r *MailingCampaignRepositoryImpl) ByID(ctx context.Context, id uint) (*models.MailingCampaign, error) {
	db := r.getDB(ctx)

	var campaign models.MailingCampaign
	err := db.Preload("TargetSeason").
		Preload("Creator").
		Last(&campaign, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find mailing campaign by ID %d: %w", id, err)
	}

	return &campaign, nil
}

// ByUUID retrieves a mailing campaign by UUID
func (r *MailingCampaignRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.MailingCampaign, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.MailingCampaignFilter{UUID: &parsedUUID}
	campaigns, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(campaigns) == 0 {
		return nil, nil
	}

	return campaigns[0], nil
}

// Delete removes a draft campaign. Campaigns that already went out are kept.
func (r *MailingCampaignRepositoryImpl) Delete(ctx context.Context, id uint) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
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

	res := db.Where("id = ? AND is_sent = ?", id, false).
		Delete(&models.MailingCampaign{})
	if res.Error != nil {
		err = fmt.Errorf("failed to delete mailing campaign: %w", res.Error)
		return false, err
	}

	return res.RowsAffected > 0, nil
}

// SetTotalRecipients records the resolved audience size at dispatch time
func (r *MailingCampaignRepositoryImpl) SetTotalRecipients(ctx context.Context, id uint, total int) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
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

	res := db.Model(&models.MailingCampaign{}).
		Where("id = ? AND is_sent = ?", id, false).
		Updates(map[string]any{
			"total_recipients": total,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		err = fmt.Errorf("failed to set total recipients: %w", res.Error)
		return false, err
	}

	return res.RowsAffected > 0, nil
}

// FinalizeDispatch writes the outcome counters and flips is_sent in one
// conditional update. Only the caller that actually flips the flag gets
// true back, so a campaign can never be finalized twice.
func (r *MailingCampaignRepositoryImpl) FinalizeDispatch(ctx context.Context, id uint, sentCount, failedCount int, sentAt time.Time) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
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

	res := db.Model(&models.MailingCampaign{}).
		Where("id = ? AND is_sent = ?", id, false).
		Updates(map[string]any{
			"sent_count":   sentCount,
			"failed_count": failedCount,
			"is_sent":      true,
			"sent_at":      sentAt,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		err = fmt.Errorf("failed to finalize campaign dispatch: %w", res.Error)
		return false, err
	}

	return res.RowsAffected > 0, nil
}

// ListDueScheduled retrieves scheduled campaigns whose send time has passed
func (r *MailingCampaignRepositoryImpl) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.MailingCampaign, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.MailingCampaign{}).
		Where("is_scheduled = ? AND is_sent = ? AND scheduled_at <= ?", true, false, now).
		Order("scheduled_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var campaigns []*models.MailingCampaign
	err := query.Find(&campaigns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due scheduled campaigns: %w", err)
	}

	return campaigns, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *MailingCampaignRepositoryImpl) applyFilter(db *gorm.DB, filter models.MailingCampaignFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		db = db.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	if filter.TargetType != nil {
		db = db.Where("target_type = ?", *filter.TargetType)
	}
	if filter.TargetSeasonID != nil {
		db = db.Where("target_season_id = ?", *filter.TargetSeasonID)
	}
	if filter.IsScheduled != nil {
		db = db.Where("is_scheduled = ?", *filter.IsScheduled)
	}
	if filter.IsSent != nil {
		db = db.Where("is_sent = ?", *filter.IsSent)
	}
	if filter.CreatedBy != nil {
		db = db.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}

	return db
}

// ByFilter retrieves mailing campaigns based on filter criteria
func (r *MailingCampaignRepositoryImpl) ByFilter(ctx context.Context, filter models.MailingCampaignFilter, orderBy string, limit, offset int) ([]*models.MailingCampaign, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.MailingCampaign{}), filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	query = query.Preload("TargetSeason")

	var campaigns []*models.MailingCampaign
	err := query.Find(&campaigns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find mailing campaigns by filter: %w", err)
	}

	return campaigns, nil
}

// Count returns the number of mailing campaigns matching the filter
func (r *MailingCampaignRepositoryImpl) Count(ctx context.Context, filter models.MailingCampaignFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.MailingCampaign{}), filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count mailing campaigns: %w", err)
	}

	return count, nil
}

// Exists checks if any mailing campaign matching the filter exists
func (r *MailingCampaignRepositoryImpl) Exists(ctx context.Context, filter models.MailingCampaignFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
