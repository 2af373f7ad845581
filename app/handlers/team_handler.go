// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/avolkov/robocontest/app/dto"
	businessflow "github.com/avolkov/robocontest/business_flow"
	"github.com/avolkov/robocontest/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// TeamHandlerInterface defines the contract for team registration and review handlers
type TeamHandlerInterface interface {
	Register(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	UpdateStatus(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// TeamHandler implements TeamHandlerInterface
type TeamHandler struct {
	flow      businessflow.TeamFlow
	validator *validator.Validate
}

func NewTeamHandler(flow businessflow.TeamFlow) TeamHandlerInterface {
	h := &TeamHandler{
		flow:      flow,
		validator: validator.New(),
	}
	h.setupCustomValidations()
	return h
}

func (h *TeamHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TeamHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Register submits a public team registration into the current season
// @Summary Register Team
// @Description Register a team for the current season; the team starts in pending status and the captain receives a confirmation email
// @Tags Teams
// @Accept json
// @Produce json
// @Param request body dto.RegisterTeamRequest true "Team registration data"
// @Success 201 {object} dto.APIResponse{data=dto.RegisterTeamResponse} "Team registered"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid captcha"
// @Failure 403 {object} dto.APIResponse "Registration closed"
// @Failure 409 {object} dto.APIResponse "Team name taken or no current season"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/teams/register [post]
func (h *TeamHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterTeamRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.Register(h.createRequestContext(c, "/api/v1/teams/register"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidCaptcha(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid captcha", "INVALID_CAPTCHA", nil)
		}
		if businessflow.IsRulesNotAccepted(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Competition rules must be accepted", "RULES_NOT_ACCEPTED", nil)
		}
		if businessflow.IsNoCurrentSeason(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "No competition season is open", "NO_CURRENT_SEASON", nil)
		}
		if businessflow.IsRegistrationClosed(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Registration is closed", "REGISTRATION_CLOSED", nil)
		}
		if businessflow.IsTeamNameTaken(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Team name is already taken this season", "TEAM_NAME_TAKEN", nil)
		}
		log.Println("Team registration failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Team registration failed", "TEAM_REGISTRATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Team registered successfully", resp)
}

// List returns registered teams for admin review
// @Summary Admin List Teams
// @Description Retrieve registered teams with pagination and filters
// @Tags Admin Teams
// @Produce json
// @Param season_id query int false "Filter by season ID"
// @Param status query string false "Filter by status (pending|approved|rejected|withdrawn)"
// @Param league query string false "Filter by league (junior|senior)"
// @Param search query string false "Search in team name, captain name and email"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param orderby query string false "Ordering (newest|oldest)"
// @Success 200 {object} dto.APIResponse{data=dto.ListTeamsResponse} "Teams retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/teams [get]
func (h *TeamHandler) List(c fiber.Ctx) error {
	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	req := dto.ListTeamsRequest{
		AdminID: adminID,
		OrderBy: c.Query("orderby"),
		Filter:  teamFilterFromQuery(c),
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Page = n
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Limit = n
		}
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.List(h.createRequestContext(c, "/api/v1/admin/teams"), &req, metadata)
	if err != nil {
		log.Println("Admin list teams failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list teams", "LIST_TEAMS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Teams retrieved successfully", resp)
}

// Get returns a single team by ID
// @Summary Admin Get Team
// @Description Retrieve one registered team with full details
// @Tags Admin Teams
// @Produce json
// @Param id path int true "Team ID"
// @Success 200 {object} dto.APIResponse{data=dto.TeamDTO} "Team retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid team id"
// @Failure 404 {object} dto.APIResponse "Team not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/teams/{id} [get]
func (h *TeamHandler) Get(c fiber.Ctx) error {
	idStr := c.Params("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid team id", "INVALID_TEAM_ID", nil)
	}

	resp, err := h.flow.Get(h.createRequestContext(c, "/api/v1/admin/teams/:id"), uint(id))
	if err != nil {
		if businessflow.IsTeamNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Team not found", "TEAM_NOT_FOUND", nil)
		}
		log.Println("Admin get team failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get team", "GET_TEAM_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Team retrieved successfully", resp)
}

// UpdateStatus moves a team through the review workflow
// @Summary Admin Update Team Status
// @Description Update a team's review status; the captain is notified by email unless notify=false
// @Tags Admin Teams
// @Accept json
// @Produce json
// @Param id path int true "Team ID"
// @Param request body dto.UpdateTeamStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateTeamStatusResponse} "Status updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Team not found"
// @Failure 409 {object} dto.APIResponse "Invalid status transition"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/teams/{id}/status [patch]
func (h *TeamHandler) UpdateStatus(c fiber.Ctx) error {
	idStr := c.Params("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid team id", "INVALID_TEAM_ID", nil)
	}

	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	var req dto.UpdateTeamStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.TeamID = uint(id)
	req.AdminID = adminID

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.UpdateStatus(h.createRequestContext(c, "/api/v1/admin/teams/:id/status"), &req, metadata)
	if err != nil {
		if businessflow.IsTeamNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Team not found", "TEAM_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidStatusTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Invalid status transition", "INVALID_STATUS_TRANSITION", nil)
		}
		log.Println("Admin update team status failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update team status", "UPDATE_TEAM_STATUS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Team status updated successfully", resp)
}

// Export downloads the filtered team list as an Excel file
// @Summary Admin Export Teams
// @Description Download registered teams as an Excel spreadsheet, newest first
// @Tags Admin Teams
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param season_id query int false "Filter by season ID"
// @Param status query string false "Filter by status (pending|approved|rejected|withdrawn)"
// @Param league query string false "Filter by league (junior|senior)"
// @Param search query string false "Search in team name, captain name and email"
// @Success 200 {string} string "Excel file"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/teams/export [get]
func (h *TeamHandler) Export(c fiber.Ctx) error {
	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	req := dto.ListTeamsRequest{
		AdminID: adminID,
		Filter:  teamFilterFromQuery(c),
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	filename, data, err := h.flow.ExportExcel(h.createRequestContextWithTimeout(c, "/api/v1/admin/teams/export", 60*time.Second), &req, metadata)
	if err != nil {
		log.Println("Admin export teams failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export teams", "TEAMS_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// teamFilterFromQuery maps list/export query parameters onto the filter DTO
func teamFilterFromQuery(c fiber.Ctx) *dto.ListTeamsFilter {
	filter := &dto.ListTeamsFilter{}
	if v := c.Query("season_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			id := uint(n)
			filter.SeasonID = &id
		}
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := c.Query("league"); v != "" {
		filter.League = &v
	}
	if v := c.Query("search"); v != "" {
		filter.Search = &v
	}
	return filter
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *TeamHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *TeamHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	// Create context with custom timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}

// setupCustomValidations sets up custom validation rules
func (h *TeamHandler) setupCustomValidations() {
	// Add custom validation rules if needed
	// Example: h.validator.RegisterValidation("custom_rule", customValidationFunc)
}
