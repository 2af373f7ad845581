// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/robocontest/models"
	"gorm.io/gorm"
)

// SeasonRepositoryImpl implements SeasonRepository interface
type SeasonRepositoryImpl struct {
	*BaseRepository[models.Season, models.SeasonFilter]
}

// NewSeasonRepository creates a new season repository
func NewSeasonRepository(db *gorm.DB) SeasonRepository {
	return &SeasonRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Season, models.SeasonFilter](db),
	}
}

// ByYear retrieves a season by competition year
func (r *SeasonRepositoryImpl) ByYear(ctx context.Context, year int) (*models.Season, error) {
	db := r.getDB(ctx)

	var season models.Season
	err := db.Where("year = ?", year).First(&season).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find season by year %d: %w", year, err)
	}

	return &season, nil
}

// Current retrieves the season marked as current, if any
func (r *SeasonRepositoryImpl) Current(ctx context.Context) (*models.Season, error) {
	db := r.getDB(ctx)

	var season models.Season
	err := db.Where("is_current = ?", true).
		Order("year DESC").
		First(&season).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find current season: %w", err)
	}

	return &season, nil
}

// ClearCurrent unsets is_current on every season except the given one
func (r *SeasonRepositoryImpl) ClearCurrent(ctx context.Context, exceptID uint) error {
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

	err = db.Model(&models.Season{}).
		Where("id <> ? AND is_current = ?", exceptID, true).
		Updates(map[string]any{
			"is_current": false,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to clear current season flag: %w", err)
	}

	return nil
}

// Update saves the full season row
func (r *SeasonRepositoryImpl) Update(ctx context.Context, season *models.Season) error {
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

	season.UpdatedAt = time.Now().UTC()
	err = db.Save(season).Error
	if err != nil {
		return fmt.Errorf("failed to update season: %w", err)
	}

	return nil
}

// Delete removes a season
func (r *SeasonRepositoryImpl) Delete(ctx context.Context, id uint) error {
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

	err = db.Delete(&models.Season{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to delete season: %w", err)
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *SeasonRepositoryImpl) applyFilter(query *gorm.DB, filter models.SeasonFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}
	if filter.RegistrationOpen != nil {
		query = query.Where("registration_open = ?", *filter.RegistrationOpen)
	}
	if filter.IsCurrent != nil {
		query = query.Where("is_current = ?", *filter.IsCurrent)
	}
	if filter.IsArchived != nil {
		query = query.Where("is_archived = ?", *filter.IsArchived)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves seasons based on filter criteria
func (r *SeasonRepositoryImpl) ByFilter(ctx context.Context, filter models.SeasonFilter, orderBy string, limit, offset int) ([]*models.Season, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Season{}), filter)

	// Newest competition year first by default
	if orderBy == "" {
		orderBy = "year DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var seasons []*models.Season
	err := query.Find(&seasons).Error
	if err != nil {
		return nil, err
	}

	return seasons, nil
}

// Count returns the number of seasons matching the filter
func (r *SeasonRepositoryImpl) Count(ctx context.Context, filter models.SeasonFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Season{}), filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any season matching the filter exists
func (r *SeasonRepositoryImpl) Exists(ctx context.Context, filter models.SeasonFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
