// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/avolkov/robocontest/app/dto"
	"github.com/avolkov/robocontest/app/services"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	"github.com/avolkov/robocontest/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// TeamFlow handles public team registration and the admin review workflow
type TeamFlow interface {
	Register(ctx context.Context, req *dto.RegisterTeamRequest, metadata *ClientMetadata) (*dto.RegisterTeamResponse, error)
	List(ctx context.Context, req *dto.ListTeamsRequest, metadata *ClientMetadata) (*dto.ListTeamsResponse, error)
	Get(ctx context.Context, teamID uint) (*dto.TeamDTO, error)
	UpdateStatus(ctx context.Context, req *dto.UpdateTeamStatusRequest, metadata *ClientMetadata) (*dto.UpdateTeamStatusResponse, error)
	ExportExcel(ctx context.Context, req *dto.ListTeamsRequest, metadata *ClientMetadata) (string, []byte, error)
}

// TeamFlowImpl implements the team registration and review business flow
type TeamFlowImpl struct {
	teamRepo     repository.TeamRepository
	seasonRepo   repository.SeasonRepository
	auditRepo    repository.AuditLogRepository
	emailLogRepo repository.EmailLogRepository
	mailer       services.Mailer
	captchaSvc   services.CaptchaService
	contactEmail string
	db           *gorm.DB
}

// NewTeamFlow creates a new team flow instance. A nil captcha service
// disables the captcha gate on registration; contactEmail is the address
// teams are told to write to in status notifications.
func NewTeamFlow(
	teamRepo repository.TeamRepository,
	seasonRepo repository.SeasonRepository,
	auditRepo repository.AuditLogRepository,
	emailLogRepo repository.EmailLogRepository,
	mailer services.Mailer,
	captchaSvc services.CaptchaService,
	contactEmail string,
	db *gorm.DB,
) TeamFlow {
	return &TeamFlowImpl{
		teamRepo:     teamRepo,
		seasonRepo:   seasonRepo,
		auditRepo:    auditRepo,
		emailLogRepo: emailLogRepo,
		mailer:       mailer,
		captchaSvc:   captchaSvc,
		contactEmail: contactEmail,
		db:           db,
	}
}

// Register creates a team in the current season. The team starts in the
// pending status; a confirmation email goes out after the transaction
// commits so a delivery failure never rolls back the registration.
func (tf *TeamFlowImpl) Register(ctx context.Context, req *dto.RegisterTeamRequest, metadata *ClientMetadata) (*dto.RegisterTeamResponse, error) {
	// Validate business rules
	if err := tf.validateRegisterRequest(ctx, req); err != nil {
		return nil, NewBusinessError("TEAM_REGISTRATION_VALIDATION_FAILED", "Team registration validation failed", err)
	}

	var team *models.Team

	resp, err := tf.WithRegistrationTransaction(ctx, func(ctx context.Context) (*dto.RegisterTeamResponse, error) {
		season, err := tf.seasonRepo.Current(ctx)
		if err != nil {
			return nil, err
		}
		if season == nil {
			return nil, ErrNoCurrentSeason
		}
		if !season.AcceptsRegistrations() {
			return nil, ErrRegistrationClosed
		}

		// A name can only be taken once per season
		existing, err := tf.teamRepo.BySeasonAndName(ctx, season.ID, req.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrTeamNameTaken
		}

		team = &models.Team{
			SeasonID:      season.ID,
			Name:          req.Name,
			Status:        models.TeamStatusPending,
			League:        models.TeamLeague(req.League),
			City:          req.City,
			Institution:   req.Institution,
			CaptainName:   req.CaptainName,
			Email:         req.Email,
			Phone:         req.Phone,
			MembersCount:  req.MembersCount,
			Comment:       req.Comment,
			RulesAccepted: utils.ToPtr(req.RulesAccepted),
		}

		if err := tf.teamRepo.Save(ctx, team); err != nil {
			return nil, err
		}

		return &dto.RegisterTeamResponse{
			Message: "Team registered successfully",
			Team:    ToTeamDTO(*team),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Team registration failed: %s", err.Error())
		_ = tf.LogTeamAction(ctx, nil, models.AuditActionTeamRegistered, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("TEAM_REGISTRATION_FAILED", "Team registration failed", err)
	}

	msg := fmt.Sprintf("Team registered successfully: %d", team.ID)
	_ = tf.LogTeamAction(ctx, nil, models.AuditActionTeamRegistered, msg, true, nil, metadata)

	tf.sendRegistrationConfirmation(team)

	return resp, nil
}

// List retrieves registered teams with pagination, ordering and filters
func (tf *TeamFlowImpl) List(ctx context.Context, req *dto.ListTeamsRequest, metadata *ClientMetadata) (*dto.ListTeamsResponse, error) {
	var err error
	defer func() {
		if err != nil {
			err = NewBusinessError("LIST_TEAMS_FAILED", "Failed to list teams", err)
		}
	}()

	// Normalize pagination
	page := max(1, req.Page)
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	filter := buildTeamFilter(req.Filter)

	// Order by
	orderBy := "created_at DESC"
	switch req.OrderBy {
	case "oldest":
		orderBy = "created_at ASC"
	case "newest":
		orderBy = "created_at DESC"
	}

	// Count total
	total64, err := tf.teamRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Fetch rows
	rows, err := tf.teamRepo.ByFilter(ctx, filter, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]dto.TeamDTO, 0, len(rows))
	for _, team := range rows {
		items = append(items, ToTeamDTO(*team))
	}

	totalPages := int((total64 + int64(limit) - 1) / int64(limit))

	return &dto.ListTeamsResponse{
		Message: "Teams retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total64,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}, nil
}

// Get retrieves a single team by ID
func (tf *TeamFlowImpl) Get(ctx context.Context, teamID uint) (*dto.TeamDTO, error) {
	team, err := tf.teamRepo.ByID(ctx, teamID)
	if err != nil {
		return nil, NewBusinessError("TEAM_LOOKUP_FAILED", "Failed to lookup team", err)
	}
	if team == nil {
		return nil, NewBusinessError("TEAM_NOT_FOUND", "Team not found", ErrTeamNotFound)
	}
	item := ToTeamDTO(*team)
	return &item, nil
}

// UpdateStatus moves a team through the review workflow and, unless the
// request opts out, emails the captain about the new status.
func (tf *TeamFlowImpl) UpdateStatus(ctx context.Context, req *dto.UpdateTeamStatusRequest, metadata *ClientMetadata) (*dto.UpdateTeamStatusResponse, error) {
	// Validate business rules
	newStatus := models.TeamStatus(req.Status)
	if !newStatus.Valid() {
		return nil, NewBusinessError("TEAM_STATUS_VALIDATION_FAILED", "Team status validation failed", ErrInvalidStatusTransition)
	}

	var team *models.Team

	resp, err := tf.WithStatusTransaction(ctx, func(ctx context.Context) (*dto.UpdateTeamStatusResponse, error) {
		var err error
		team, err = tf.teamRepo.ByID(ctx, req.TeamID)
		if err != nil {
			return nil, err
		}
		if team == nil {
			return nil, ErrTeamNotFound
		}

		if !team.CanTransitionTo(newStatus) {
			return nil, ErrInvalidStatusTransition
		}

		if err := tf.teamRepo.UpdateStatus(ctx, team.ID, newStatus); err != nil {
			return nil, err
		}
		team.Status = newStatus

		return &dto.UpdateTeamStatusResponse{
			Message: "Team status updated successfully",
			Team:    ToTeamDTO(*team),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Team status update failed: %s", err.Error())
		_ = tf.LogTeamAction(ctx, &req.AdminID, models.AuditActionTeamStatusUpdated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("TEAM_STATUS_UPDATE_FAILED", "Team status update failed", err)
	}

	msg := fmt.Sprintf("Team %d status updated to %s", team.ID, newStatus)
	_ = tf.LogTeamAction(ctx, &req.AdminID, models.AuditActionTeamStatusUpdated, msg, true, nil, metadata)

	if req.Notify == nil || *req.Notify {
		tf.sendStatusNotification(team, newStatus, req.AdminID)
	}

	return resp, nil
}

// ExportExcel renders the filtered team list as a spreadsheet, newest
// registrations first.
func (tf *TeamFlowImpl) ExportExcel(ctx context.Context, req *dto.ListTeamsRequest, metadata *ClientMetadata) (string, []byte, error) {
	filter := buildTeamFilter(req.Filter)

	rows, err := tf.teamRepo.ByFilter(ctx, filter, "created_at DESC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("TEAMS_EXPORT_FAILED", "Failed to fetch teams for export", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Teams"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"id", "name", "status", "league", "city", "institution", "captain", "email", "phone", "members", "rules_accepted", "registered_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, team := range rows {
		city := ""
		if team.City != nil {
			city = *team.City
		}
		institution := ""
		if team.Institution != nil {
			institution = *team.Institution
		}
		phone := ""
		if team.Phone != nil {
			phone = *team.Phone
		}
		record := []string{
			strconv.FormatUint(uint64(team.ID), 10),
			team.Name,
			team.Status.String(),
			string(team.League),
			city,
			institution,
			team.CaptainName,
			team.Email,
			phone,
			strconv.Itoa(team.MembersCount),
			strconv.FormatBool(utils.IsTrue(team.RulesAccepted)),
			team.CreatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	msg := fmt.Sprintf("Exported %d teams", len(rows))
	_ = tf.LogTeamAction(ctx, &req.AdminID, models.AuditActionTeamsExported, msg, true, nil, metadata)

	filename := fmt.Sprintf("teams_export_%s.xlsx", utils.UTCNow().Format("2006-01-02"))
	return filename, buf.Bytes(), nil
}

// Private helper methods

func (tf *TeamFlowImpl) validateRegisterRequest(ctx context.Context, req *dto.RegisterTeamRequest) error {
	if req == nil {
		return ErrRulesNotAccepted
	}
	if !req.RulesAccepted {
		return ErrRulesNotAccepted
	}

	// Captcha is mandatory whenever the service is wired
	if tf.captchaSvc != nil {
		if len(req.ChallengeID) == 0 || !tf.captchaSvc.VerifyRotate(ctx, req.ChallengeID, req.UserAngle) {
			return ErrInvalidCaptcha
		}
	}

	return nil
}

func (tf *TeamFlowImpl) sendRegistrationConfirmation(team *models.Team) {
	teamID := team.ID
	mail := services.RegistrationConfirmationMail(team.Name, team.Email)
	mail.ToName = team.Name

	go func() {
		_, _ = SendLoggedMail(context.Background(), tf.mailer, tf.emailLogRepo, mail, models.EmailTypeRegistrationConfirmation, DeliveryRef{TeamID: &teamID})
	}()
}

func (tf *TeamFlowImpl) sendStatusNotification(team *models.Team, status models.TeamStatus, adminID uint) {
	teamID := team.ID
	mail := services.TeamStatusUpdateMail(team.Name, team.Email, status.String(), tf.contactEmail)
	mail.ToName = team.Name

	go func() {
		_, _ = SendLoggedMail(context.Background(), tf.mailer, tf.emailLogRepo, mail, models.EmailTypeTeamStatusUpdate, DeliveryRef{TeamID: &teamID, SentBy: &adminID})
	}()
}

func (tf *TeamFlowImpl) LogTeamAction(ctx context.Context, adminID *uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return tf.auditRepo.Save(ctx, audit)
}

func (tf *TeamFlowImpl) WithRegistrationTransaction(ctx context.Context, fn func(context.Context) (*dto.RegisterTeamResponse, error)) (*dto.RegisterTeamResponse, error) {
	var result *dto.RegisterTeamResponse
	var fnErr error

	err := repository.WithTransaction(ctx, tf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (tf *TeamFlowImpl) WithStatusTransaction(ctx context.Context, fn func(context.Context) (*dto.UpdateTeamStatusResponse, error)) (*dto.UpdateTeamStatusResponse, error) {
	var result *dto.UpdateTeamStatusResponse
	var fnErr error

	err := repository.WithTransaction(ctx, tf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

// buildTeamFilter maps the request-layer filter onto the repository filter
func buildTeamFilter(f *dto.ListTeamsFilter) models.TeamFilter {
	filter := models.TeamFilter{}
	if f == nil {
		return filter
	}
	if f.SeasonID != nil {
		filter.SeasonID = f.SeasonID
	}
	if f.Status != nil && *f.Status != "" {
		status := models.TeamStatus(*f.Status)
		if status.Valid() {
			filter.Status = &status
		}
	}
	if f.League != nil && *f.League != "" {
		league := models.TeamLeague(*f.League)
		if league.Valid() {
			filter.League = &league
		}
	}
	if f.Search != nil && *f.Search != "" {
		filter.Search = f.Search
	}
	return filter
}
