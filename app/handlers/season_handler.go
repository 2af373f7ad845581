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

// SeasonHandlerInterface defines the contract for season handlers
type SeasonHandlerInterface interface {
	List(c fiber.Ctx) error
	Current(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
}

// SeasonHandler implements SeasonHandlerInterface
type SeasonHandler struct {
	flow      businessflow.SeasonFlow
	validator *validator.Validate
}

func NewSeasonHandler(flow businessflow.SeasonFlow) SeasonHandlerInterface {
	h := &SeasonHandler{
		flow:      flow,
		validator: validator.New(),
	}
	h.setupCustomValidations()
	return h
}

func (h *SeasonHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SeasonHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List returns all competition seasons, newest year first
// @Summary List Seasons
// @Description Retrieve all competition seasons with team counts
// @Tags Seasons
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListSeasonsResponse} "Seasons retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/seasons [get]
func (h *SeasonHandler) List(c fiber.Ctx) error {
	resp, err := h.flow.List(h.createRequestContext(c, "/api/v1/seasons"))
	if err != nil {
		log.Println("List seasons failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list seasons", "LIST_SEASONS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Seasons retrieved successfully", resp)
}

// Current returns the season currently open on the site
// @Summary Current Season
// @Description Retrieve the season marked as current
// @Tags Seasons
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SeasonDTO} "Current season"
// @Failure 404 {object} dto.APIResponse "No current season"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/seasons/current [get]
func (h *SeasonHandler) Current(c fiber.Ctx) error {
	resp, err := h.flow.Current(h.createRequestContext(c, "/api/v1/seasons/current"))
	if err != nil {
		if businessflow.IsNoCurrentSeason(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No current season is configured", "NO_CURRENT_SEASON", nil)
		}
		log.Println("Get current season failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get current season", "GET_CURRENT_SEASON_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Current season retrieved successfully", resp)
}

// Get returns a single season by ID
// @Summary Get Season
// @Description Retrieve one season with full details
// @Tags Seasons
// @Produce json
// @Param id path int true "Season ID"
// @Success 200 {object} dto.APIResponse{data=dto.SeasonDTO} "Season retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid season id"
// @Failure 404 {object} dto.APIResponse "Season not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/seasons/{id} [get]
func (h *SeasonHandler) Get(c fiber.Ctx) error {
	idStr := c.Params("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid season id", "INVALID_SEASON_ID", nil)
	}

	resp, err := h.flow.Get(h.createRequestContext(c, "/api/v1/seasons/:id"), uint(id))
	if err != nil {
		if businessflow.IsSeasonNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Season not found", "SEASON_NOT_FOUND", nil)
		}
		log.Println("Get season failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get season", "GET_SEASON_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Season retrieved successfully", resp)
}

// Create adds a new competition season
// @Summary Admin Create Season
// @Description Create a new competition season; marking it current clears the flag on the previous one
// @Tags Admin Seasons
// @Accept json
// @Produce json
// @Param request body dto.CreateSeasonRequest true "Season data"
// @Success 201 {object} dto.APIResponse{data=dto.CreateSeasonResponse} "Season created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 409 {object} dto.APIResponse "Season year already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/seasons [post]
func (h *SeasonHandler) Create(c fiber.Ctx) error {
	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	var req dto.CreateSeasonRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.AdminID = adminID

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.Create(h.createRequestContext(c, "/api/v1/admin/seasons"), &req, metadata)
	if err != nil {
		if businessflow.IsSeasonYearTaken(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A season for this year already exists", "SEASON_YEAR_TAKEN", nil)
		}
		log.Println("Admin create season failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create season", "CREATE_SEASON_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Season created successfully", resp)
}

// Update changes season details
// @Summary Admin Update Season
// @Description Update season details; nil fields keep their current values
// @Tags Admin Seasons
// @Accept json
// @Produce json
// @Param id path int true "Season ID"
// @Param request body dto.UpdateSeasonRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateSeasonResponse} "Season updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Season not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/seasons/{id} [patch]
func (h *SeasonHandler) Update(c fiber.Ctx) error {
	idStr := c.Params("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid season id", "INVALID_SEASON_ID", nil)
	}

	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	var req dto.UpdateSeasonRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.SeasonID = uint(id)
	req.AdminID = adminID

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.Update(h.createRequestContext(c, "/api/v1/admin/seasons/:id"), &req, metadata)
	if err != nil {
		if businessflow.IsSeasonNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Season not found", "SEASON_NOT_FOUND", nil)
		}
		log.Println("Admin update season failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update season", "UPDATE_SEASON_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Season updated successfully", resp)
}

// Delete removes a season that has no registered teams
// @Summary Admin Delete Season
// @Description Delete a season; seasons with registered teams cannot be deleted
// @Tags Admin Seasons
// @Produce json
// @Param id path int true "Season ID"
// @Success 200 {object} dto.APIResponse "Season deleted"
// @Failure 400 {object} dto.APIResponse "Invalid season id"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Season not found"
// @Failure 409 {object} dto.APIResponse "Season has registered teams"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/seasons/{id} [delete]
func (h *SeasonHandler) Delete(c fiber.Ctx) error {
	idStr := c.Params("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid season id", "INVALID_SEASON_ID", nil)
	}

	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if err := h.flow.Delete(h.createRequestContext(c, "/api/v1/admin/seasons/:id"), uint(id), adminID, metadata); err != nil {
		if businessflow.IsSeasonNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Season not found", "SEASON_NOT_FOUND", nil)
		}
		if businessflow.IsSeasonHasTeams(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Season has registered teams", "SEASON_HAS_TEAMS", nil)
		}
		log.Println("Admin delete season failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete season", "DELETE_SEASON_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Season deleted successfully", nil)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *SeasonHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *SeasonHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
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
func (h *SeasonHandler) setupCustomValidations() {
	// Add custom validation rules if needed
	// Example: h.validator.RegisterValidation("custom_rule", customValidationFunc)
}
