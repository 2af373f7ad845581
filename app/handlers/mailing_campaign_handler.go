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

// MailingCampaignHandlerInterface defines the contract for mailing campaign handlers
type MailingCampaignHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Send(c fiber.Ctx) error
}

// MailingCampaignHandler implements MailingCampaignHandlerInterface
type MailingCampaignHandler struct {
	flow      businessflow.MailingCampaignFlow
	validator *validator.Validate
}

func NewMailingCampaignHandler(flow businessflow.MailingCampaignFlow) MailingCampaignHandlerInterface {
	h := &MailingCampaignHandler{
		flow:      flow,
		validator: validator.New(),
	}
	h.setupCustomValidations()
	return h
}

func (h *MailingCampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *MailingCampaignHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create saves a mass-mailing campaign draft
// @Summary Admin Create Mailing Campaign
// @Description Create a campaign draft; recipients are resolved for the preview count but the final audience is resolved again at send time
// @Tags Admin Mailing
// @Accept json
// @Produce json
// @Param request body dto.CreateMailingCampaignRequest true "Campaign draft"
// @Success 201 {object} dto.APIResponse{data=dto.CreateMailingCampaignResponse} "Campaign created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Target season not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/mailing/campaigns [post]
func (h *MailingCampaignHandler) Create(c fiber.Ctx) error {
	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	var req dto.CreateMailingCampaignRequest
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
	resp, err := h.flow.Create(h.createRequestContext(c, "/api/v1/admin/mailing/campaigns"), &req, metadata)
	if err != nil {
		if businessflow.IsUnknownTargetType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown target type", "UNKNOWN_TARGET_TYPE", nil)
		}
		if businessflow.IsCustomEmailsRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Custom recipient list is empty", "CUSTOM_EMAILS_REQUIRED", nil)
		}
		if businessflow.IsScheduledAtInPast(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Scheduled time must be in the future", "SCHEDULED_AT_IN_PAST", nil)
		}
		if businessflow.IsSeasonNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Target season not found", "SEASON_NOT_FOUND", nil)
		}
		log.Println("Admin create campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create campaign", "CREATE_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Campaign created successfully", resp)
}

// List returns mailing campaigns, newest first by default
// @Summary Admin List Mailing Campaigns
// @Description Retrieve mailing campaigns with pagination and filters
// @Tags Admin Mailing
// @Produce json
// @Param target_type query string false "Filter by target type (all_teams|approved_teams|pending_teams|custom_emails)"
// @Param is_scheduled query bool false "Filter by scheduled flag"
// @Param is_sent query bool false "Filter by sent flag"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param orderby query string false "Ordering (newest|oldest)"
// @Success 200 {object} dto.APIResponse{data=dto.ListMailingCampaignsResponse} "Campaigns retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/mailing/campaigns [get]
func (h *MailingCampaignHandler) List(c fiber.Ctx) error {
	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	filter := &dto.ListMailingCampaignsFilter{}
	if v := c.Query("target_type"); v != "" {
		filter.TargetType = &v
	}
	if v := c.Query("is_scheduled"); v != "" {
		if v == "true" || v == "1" {
			filter.IsScheduled = utils.ToPtr(true)
		} else if v == "false" || v == "0" {
			filter.IsScheduled = utils.ToPtr(false)
		}
	}
	if v := c.Query("is_sent"); v != "" {
		if v == "true" || v == "1" {
			filter.IsSent = utils.ToPtr(true)
		} else if v == "false" || v == "0" {
			filter.IsSent = utils.ToPtr(false)
		}
	}

	req := dto.ListMailingCampaignsRequest{
		AdminID: adminID,
		OrderBy: c.Query("orderby"),
		Filter:  filter,
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
	resp, err := h.flow.List(h.createRequestContext(c, "/api/v1/admin/mailing/campaigns"), &req, metadata)
	if err != nil {
		log.Println("Admin list campaigns failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list campaigns", "LIST_CAMPAIGNS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaigns retrieved successfully", resp)
}

// Get returns a single campaign with its delivery counters
// @Summary Admin Get Mailing Campaign
// @Description Retrieve one campaign with full details and delivery counters
// @Tags Admin Mailing
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} dto.APIResponse{data=dto.MailingCampaignDTO} "Campaign retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid campaign id"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/mailing/campaigns/{id} [get]
func (h *MailingCampaignHandler) Get(c fiber.Ctx) error {
	idStr := c.Params("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	resp, err := h.flow.Get(h.createRequestContext(c, "/api/v1/admin/mailing/campaigns/:id"), uint(id))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		log.Println("Admin get campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get campaign", "GET_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign retrieved successfully", resp)
}

// Delete removes a campaign draft
// @Summary Admin Delete Mailing Campaign
// @Description Delete a campaign that has not been sent; sent campaigns are kept for the record
// @Tags Admin Mailing
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} dto.APIResponse "Campaign deleted"
// @Failure 400 {object} dto.APIResponse "Invalid campaign id"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign already sent"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/mailing/campaigns/{id} [delete]
func (h *MailingCampaignHandler) Delete(c fiber.Ctx) error {
	idStr := c.Params("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if err := h.flow.Delete(h.createRequestContext(c, "/api/v1/admin/mailing/campaigns/:id"), uint(id), adminID, metadata); err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignNotDeletable(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Sent campaigns cannot be deleted", "CAMPAIGN_NOT_DELETABLE", nil)
		}
		log.Println("Admin delete campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete campaign", "DELETE_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign deleted successfully", nil)
}

// Send hands a campaign to the background dispatcher
// @Summary Admin Send Mailing Campaign
// @Description Queue a campaign for delivery; the audience is resolved now and emails go out in the background
// @Tags Admin Mailing
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} dto.APIResponse{data=dto.DispatchCampaignResponse} "Campaign queued"
// @Failure 400 {object} dto.APIResponse "Invalid campaign id"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign already sent or dispatch in progress"
// @Failure 503 {object} dto.APIResponse "Dispatcher queue full"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/mailing/campaigns/{id}/send [post]
func (h *MailingCampaignHandler) Send(c fiber.Ctx) error {
	idStr := c.Params("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	req := dto.DispatchCampaignRequest{
		CampaignID: uint(id),
		AdminID:    adminID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.Dispatch(h.createRequestContext(c, "/api/v1/admin/mailing/campaigns/:id/send"), &req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAlreadySent(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign has already been sent", "CAMPAIGN_ALREADY_SENT", nil)
		}
		if businessflow.IsDispatchInProgress(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign dispatch is already in progress", "DISPATCH_IN_PROGRESS", nil)
		}
		if businessflow.IsDispatcherBusy(err) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Dispatcher queue is full, try again shortly", "DISPATCHER_BUSY", nil)
		}
		log.Println("Admin send campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send campaign", "SEND_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign queued for delivery", resp)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *MailingCampaignHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *MailingCampaignHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
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
func (h *MailingCampaignHandler) setupCustomValidations() {
	// Add custom validation rules if needed
	// Example: h.validator.RegisterValidation("custom_rule", customValidationFunc)
}
