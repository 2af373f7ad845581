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

// TeamRepositoryImpl implements TeamRepository interface
type TeamRepositoryImpl struct {
	*BaseRepository[models.Team, models.TeamFilter]
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &TeamRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Team, models.TeamFilter](db),
	}
}

// ByID retrieves a team by its ID with the season preloaded
func (r *TeamRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Team, error) {
	db := r.getDB(ctx)

	var team models.Team
	err := db.Preload("Season").Last(&team, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find team by ID %d: %w", id, err)
	}

	return &team, nil
}

// ByUUID retrieves a team by UUID
func (r *TeamRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Team, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.TeamFilter{UUID: &parsedUUID}
	teams, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(teams) == 0 {
		return nil, nil
	}

	return teams[0], nil
}

// BySeasonAndName retrieves a team by its unique (season, name) pair
func (r *TeamRepositoryImpl) BySeasonAndName(ctx context.Context, seasonID uint, name string) (*models.Team, error) {
	db := r.getDB(ctx)

	var team models.Team
	err := db.Where("season_id = ? AND name = ?", seasonID, name).First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find team by season and name: %w", err)
	}

	return &team, nil
}

// ListRecipients retrieves teams in the given review statuses ordered by
// registration recency (newest first). This is the source for campaign
// recipient resolution, so the ordering is deterministic: created_at DESC
// with id DESC breaking ties.
func (r *TeamRepositoryImpl) ListRecipients(ctx context.Context, statuses []models.TeamStatus, seasonID *uint) ([]*models.Team, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Team{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if seasonID != nil {
		query = query.Where("season_id = ?", *seasonID)
	}

	var teams []*models.Team
	err := query.Order("created_at DESC, id DESC").Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipient teams: %w", err)
	}

	return teams, nil
}

// UpdateStatus updates only the review status of a team
func (r *TeamRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.TeamStatus) error {
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

	err = db.Model(&models.Team{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update team status: %w", err)
	}

	return nil
}

// CountBySeason counts teams registered in a season
func (r *TeamRepositoryImpl) CountBySeason(ctx context.Context, seasonID uint) (int64, error) {
	filter := models.TeamFilter{SeasonID: &seasonID}
	return r.Count(ctx, filter)
}

// applyFilter applies filter criteria to a GORM query
func (r *TeamRepositoryImpl) applyFilter(query *gorm.DB, filter models.TeamFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.SeasonID != nil {
		query = query.Where("season_id = ?", *filter.SeasonID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.League != nil {
		query = query.Where("league = ?", *filter.League)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Search != nil {
		pattern := "%" + *filter.Search + "%"
		query = query.Where("name ILIKE ? OR city ILIKE ? OR institution ILIKE ?", pattern, pattern, pattern)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves teams based on filter criteria
func (r *TeamRepositoryImpl) ByFilter(ctx context.Context, filter models.TeamFilter, orderBy string, limit, offset int) ([]*models.Team, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Team{}), filter)

	// Newest registrations first by default
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

	query = query.Preload("Season")

	var teams []*models.Team
	err := query.Find(&teams).Error
	if err != nil {
		return nil, err
	}

	return teams, nil
}

// Count returns the number of teams matching the filter
func (r *TeamRepositoryImpl) Count(ctx context.Context, filter models.TeamFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Team{}), filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any team matching the filter exists
func (r *TeamRepositoryImpl) Exists(ctx context.Context, filter models.TeamFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
