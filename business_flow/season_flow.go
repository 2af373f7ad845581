// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/avolkov/robocontest/app/dto"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	"github.com/avolkov/robocontest/utils"
	"gorm.io/gorm"
)

// SeasonFlow handles competition season management. At most one season is
// current at a time; marking a season current clears the flag everywhere
// else in the same transaction.
type SeasonFlow interface {
	List(ctx context.Context) (*dto.ListSeasonsResponse, error)
	Current(ctx context.Context) (*dto.SeasonDTO, error)
	Get(ctx context.Context, seasonID uint) (*dto.SeasonDTO, error)
	Create(ctx context.Context, req *dto.CreateSeasonRequest, metadata *ClientMetadata) (*dto.CreateSeasonResponse, error)
	Update(ctx context.Context, req *dto.UpdateSeasonRequest, metadata *ClientMetadata) (*dto.UpdateSeasonResponse, error)
	Delete(ctx context.Context, seasonID uint, adminID uint, metadata *ClientMetadata) error
}

// SeasonFlowImpl implements the season management business flow
type SeasonFlowImpl struct {
	seasonRepo repository.SeasonRepository
	teamRepo   repository.TeamRepository
	auditRepo  repository.AuditLogRepository
	db         *gorm.DB
}

func NewSeasonFlow(
	seasonRepo repository.SeasonRepository,
	teamRepo repository.TeamRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) SeasonFlow {
	return &SeasonFlowImpl{
		seasonRepo: seasonRepo,
		teamRepo:   teamRepo,
		auditRepo:  auditRepo,
		db:         db,
	}
}

// List retrieves all seasons, newest year first, with team counts
func (sf *SeasonFlowImpl) List(ctx context.Context) (*dto.ListSeasonsResponse, error) {
	rows, err := sf.seasonRepo.ByFilter(ctx, models.SeasonFilter{}, "year DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_SEASONS_FAILED", "Failed to list seasons", err)
	}

	items := make([]dto.SeasonDTO, 0, len(rows))
	for _, season := range rows {
		item := ToSeasonDTO(*season)
		count, err := sf.teamRepo.CountBySeason(ctx, season.ID)
		if err != nil {
			return nil, NewBusinessError("LIST_SEASONS_FAILED", "Failed to count season teams", err)
		}
		item.TeamsCount = &count
		items = append(items, item)
	}

	return &dto.ListSeasonsResponse{
		Message: "Seasons retrieved successfully",
		Items:   items,
	}, nil
}

// Current retrieves the season marked as current
func (sf *SeasonFlowImpl) Current(ctx context.Context) (*dto.SeasonDTO, error) {
	season, err := sf.seasonRepo.Current(ctx)
	if err != nil {
		return nil, NewBusinessError("SEASON_LOOKUP_FAILED", "Failed to lookup current season", err)
	}
	if season == nil {
		return nil, NewBusinessError("NO_CURRENT_SEASON", "No current season is configured", ErrNoCurrentSeason)
	}
	item := ToSeasonDTO(*season)
	return &item, nil
}

// Get retrieves a single season by ID
func (sf *SeasonFlowImpl) Get(ctx context.Context, seasonID uint) (*dto.SeasonDTO, error) {
	season, err := sf.seasonRepo.ByID(ctx, seasonID)
	if err != nil {
		return nil, NewBusinessError("SEASON_LOOKUP_FAILED", "Failed to lookup season", err)
	}
	if season == nil {
		return nil, NewBusinessError("SEASON_NOT_FOUND", "Season not found", ErrSeasonNotFound)
	}
	item := ToSeasonDTO(*season)
	count, err := sf.teamRepo.CountBySeason(ctx, season.ID)
	if err == nil {
		item.TeamsCount = &count
	}
	return &item, nil
}

// Create creates a new season. Each year can hold one season only.
func (sf *SeasonFlowImpl) Create(ctx context.Context, req *dto.CreateSeasonRequest, metadata *ClientMetadata) (*dto.CreateSeasonResponse, error) {
	// Validate business rules
	if err := validateSeasonDates(req.RegistrationStart, req.RegistrationEnd, req.CompetitionDateStart, req.CompetitionDateEnd); err != nil {
		return nil, NewBusinessError("SEASON_VALIDATION_FAILED", "Season validation failed", err)
	}

	var season *models.Season

	resp, err := sf.WithCreateTransaction(ctx, func(ctx context.Context) (*dto.CreateSeasonResponse, error) {
		existing, err := sf.seasonRepo.ByYear(ctx, req.Year)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrSeasonYearTaken
		}

		season = &models.Season{
			Year:                 req.Year,
			Name:                 req.Name,
			Theme:                req.Theme,
			Location:             req.Location,
			Format:               req.Format,
			RegistrationOpen:     req.RegistrationOpen,
			RegistrationStart:    req.RegistrationStart,
			RegistrationEnd:      req.RegistrationEnd,
			CompetitionDateStart: req.CompetitionDateStart,
			CompetitionDateEnd:   req.CompetitionDateEnd,
			IsCurrent:            req.IsCurrent,
		}

		if err := sf.seasonRepo.Save(ctx, season); err != nil {
			return nil, err
		}

		// Keep the single-current invariant
		if utils.IsTrue(season.IsCurrent) {
			if err := sf.seasonRepo.ClearCurrent(ctx, season.ID); err != nil {
				return nil, err
			}
		}

		return &dto.CreateSeasonResponse{
			Message: "Season created successfully",
			Season:  ToSeasonDTO(*season),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Season creation failed: %s", err.Error())
		_ = sf.LogSeasonAction(ctx, &req.AdminID, models.AuditActionSeasonCreated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SEASON_CREATION_FAILED", "Season creation failed", err)
	}

	msg := fmt.Sprintf("Season created successfully: %d (%d)", season.ID, season.Year)
	_ = sf.LogSeasonAction(ctx, &req.AdminID, models.AuditActionSeasonCreated, msg, true, nil, metadata)

	return resp, nil
}

// Update modifies season details. Nil request fields keep their current
// values; the year itself is immutable.
func (sf *SeasonFlowImpl) Update(ctx context.Context, req *dto.UpdateSeasonRequest, metadata *ClientMetadata) (*dto.UpdateSeasonResponse, error) {
	var season *models.Season

	resp, err := sf.WithUpdateTransaction(ctx, func(ctx context.Context) (*dto.UpdateSeasonResponse, error) {
		var err error
		season, err = sf.seasonRepo.ByID(ctx, req.SeasonID)
		if err != nil {
			return nil, err
		}
		if season == nil {
			return nil, ErrSeasonNotFound
		}

		if req.Name != nil {
			season.Name = *req.Name
		}
		if req.Theme != nil {
			season.Theme = req.Theme
		}
		if req.Location != nil {
			season.Location = req.Location
		}
		if req.Format != nil {
			season.Format = req.Format
		}
		if req.RegistrationOpen != nil {
			season.RegistrationOpen = req.RegistrationOpen
		}
		if req.RegistrationStart != nil {
			season.RegistrationStart = req.RegistrationStart
		}
		if req.RegistrationEnd != nil {
			season.RegistrationEnd = req.RegistrationEnd
		}
		if req.CompetitionDateStart != nil {
			season.CompetitionDateStart = req.CompetitionDateStart
		}
		if req.CompetitionDateEnd != nil {
			season.CompetitionDateEnd = req.CompetitionDateEnd
		}
		if req.IsCurrent != nil {
			season.IsCurrent = req.IsCurrent
		}
		if req.IsArchived != nil {
			season.IsArchived = req.IsArchived
		}

		if err := validateSeasonDates(season.RegistrationStart, season.RegistrationEnd, season.CompetitionDateStart, season.CompetitionDateEnd); err != nil {
			return nil, err
		}

		if err := sf.seasonRepo.Update(ctx, season); err != nil {
			return nil, err
		}

		// Keep the single-current invariant
		if utils.IsTrue(season.IsCurrent) {
			if err := sf.seasonRepo.ClearCurrent(ctx, season.ID); err != nil {
				return nil, err
			}
		}

		return &dto.UpdateSeasonResponse{
			Message: "Season updated successfully",
			Season:  ToSeasonDTO(*season),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Season update failed: %s", err.Error())
		_ = sf.LogSeasonAction(ctx, &req.AdminID, models.AuditActionSeasonUpdated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SEASON_UPDATE_FAILED", "Season update failed", err)
	}

	msg := fmt.Sprintf("Season updated successfully: %d", season.ID)
	_ = sf.LogSeasonAction(ctx, &req.AdminID, models.AuditActionSeasonUpdated, msg, true, nil, metadata)

	return resp, nil
}

// Delete removes a season that has no registered teams
func (sf *SeasonFlowImpl) Delete(ctx context.Context, seasonID uint, adminID uint, metadata *ClientMetadata) error {
	err := repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		season, err := sf.seasonRepo.ByID(ctx, seasonID)
		if err != nil {
			return err
		}
		if season == nil {
			return ErrSeasonNotFound
		}

		count, err := sf.teamRepo.CountBySeason(ctx, seasonID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrSeasonHasTeams
		}

		return sf.seasonRepo.Delete(ctx, seasonID)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Season deletion failed: %s", err.Error())
		_ = sf.LogSeasonAction(ctx, &adminID, models.AuditActionSeasonDeleted, errMsg, false, &errMsg, metadata)

		return NewBusinessError("SEASON_DELETION_FAILED", "Season deletion failed", err)
	}

	msg := fmt.Sprintf("Season deleted: %d", seasonID)
	_ = sf.LogSeasonAction(ctx, &adminID, models.AuditActionSeasonDeleted, msg, true, nil, metadata)

	return nil
}

// Private helper methods

func validateSeasonDates(regStart, regEnd, compStart, compEnd *time.Time) error {
	if regStart != nil && regEnd != nil && regStart.After(*regEnd) {
		return ErrStartDateAfterEndDate
	}
	if compStart != nil && compEnd != nil && compStart.After(*compEnd) {
		return ErrStartDateAfterEndDate
	}
	return nil
}

func (sf *SeasonFlowImpl) LogSeasonAction(ctx context.Context, adminID *uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		AdminID:      adminID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return sf.auditRepo.Save(ctx, audit)
}

func (sf *SeasonFlowImpl) WithCreateTransaction(ctx context.Context, fn func(context.Context) (*dto.CreateSeasonResponse, error)) (*dto.CreateSeasonResponse, error) {
	var result *dto.CreateSeasonResponse
	var fnErr error

	err := repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (sf *SeasonFlowImpl) WithUpdateTransaction(ctx context.Context, fn func(context.Context) (*dto.UpdateSeasonResponse, error)) (*dto.UpdateSeasonResponse, error) {
	var result *dto.UpdateSeasonResponse
	var fnErr error

	err := repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
