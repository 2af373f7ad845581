// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/robocontest/app/dto"
	businessflow "github.com/avolkov/robocontest/business_flow"
	"github.com/avolkov/robocontest/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// EmailLogHandlerInterface defines the contract for delivery log handlers
type EmailLogHandlerInterface interface {
	List(c fiber.Ctx) error
	Stats(c fiber.Ctx) error
	Resend(c fiber.Ctx) error
	PreviewRecipients(c fiber.Ctx) error
	ListTeamEmails(c fiber.Ctx) error
	SendCustom(c fiber.Ctx) error
}

// EmailLogHandler implements EmailLogHandlerInterface
type EmailLogHandler struct {
	flow      businessflow.EmailLogFlow
	validator *validator.Validate
}

func NewEmailLogHandler(flow businessflow.EmailLogFlow) EmailLogHandlerInterface {
	h := &EmailLogHandler{
		flow:      flow,
		validator: validator.New(),
	}
	h.setupCustomValidations()
	return h
}

func (h *EmailLogHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *EmailLogHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List returns delivery records, newest first by default
// @Summary Admin List Email Logs
// @Description Retrieve email delivery records with pagination and filters
// @Tags Admin Mailing
// @Produce json
// @Param email_type query string false "Filter by type (registration_confirmation|contact_notification|mass_mailing|team_status_update|custom)"
// @Param status query string false "Filter by status (pending|sent|failed)"
// @Param campaign_id query int false "Filter by campaign ID"
// @Param search query string false "Search in recipient address and subject"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param orderby query string false "Ordering (newest|oldest)"
// @Success 200 {object} dto.APIResponse{data=dto.ListEmailLogsResponse} "Email logs retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/mailing/logs [get]
func (h *EmailLogHandler) List(c fiber.Ctx) error {
	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	filter := &dto.ListEmailLogsFilter{}
	if v := c.Query("email_type"); v != "" {
		filter.EmailType = &v
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := c.Query("campaign_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			id := uint(n)
			filter.CampaignID = &id
		}
	}
	if v := c.Query("search"); v != "" {
		filter.Search = &v
	}

	req := dto.ListEmailLogsRequest{
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
	resp, err := h.flow.List(h.createRequestContext(c, "/api/v1/admin/mailing/logs"), &req, metadata)
	if err != nil {
		log.Println("Admin list email logs failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list email logs", "LIST_EMAIL_LOGS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Email logs retrieved successfully", resp)
}

// Stats returns aggregate delivery counters
// @Summary Admin Email Stats
// @Description Retrieve aggregate delivery counters across the whole log
// @Tags Admin Mailing
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.EmailStatsResponse} "Stats retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/mailing/logs/stats [get]
func (h *EmailLogHandler) Stats(c fiber.Ctx) error {
	resp, err := h.flow.Stats(h.createRequestContext(c, "/api/v1/admin/mailing/logs/stats"))
	if err != nil {
		log.Println("Admin email stats failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to compute email stats", "EMAIL_STATS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Email stats retrieved successfully", resp)
}

// Resend repeats the delivery of an existing log entry
// @Summary Admin Resend Email
// @Description Resend a logged email; a fresh delivery record is appended and the original keeps its outcome
// @Tags Admin Mailing
// @Produce json
// @Param id path int true "Email log ID"
// @Success 200 {object} dto.APIResponse{data=dto.ResendEmailResponse} "Resend attempted"
// @Failure 400 {object} dto.APIResponse "Invalid log id"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Log entry not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/mailing/logs/{id}/resend [post]
func (h *EmailLogHandler) Resend(c fiber.Ctx) error {
	idStr := c.Params("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email log id", "INVALID_EMAIL_LOG_ID", nil)
	}

	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	req := dto.ResendEmailRequest{
		EmailLogID: uint(id),
		AdminID:    adminID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.Resend(h.createRequestContext(c, "/api/v1/admin/mailing/logs/:id/resend"), &req, metadata)
	if err != nil {
		if businessflow.IsEmailLogNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Email log entry not found", "EMAIL_LOG_NOT_FOUND", nil)
		}
		log.Println("Admin resend email failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resend email", "EMAIL_RESEND_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, resp.Message, resp)
}

// PreviewRecipients resolves a targeting selection without creating a campaign
// @Summary Admin Preview Recipients
// @Description Resolve a targeting selection and return the audience size with a small address sample
// @Tags Admin Mailing
// @Produce json
// @Param target_type query string true "Target type (all_teams|approved_teams|pending_teams|custom_emails)"
// @Param target_season_id query int false "Restrict team targeting to one season"
// @Param custom_emails query string false "Comma-separated address list for custom_emails targeting"
// @Param recipients_limit query int false "Cap on the number of recipients"
// @Success 200 {object} dto.APIResponse{data=dto.PreviewRecipientsResponse} "Preview computed"
// @Failure 400 {object} dto.APIResponse "Unknown target type"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/mailing/recipients/preview [get]
func (h *EmailLogHandler) PreviewRecipients(c fiber.Ctx) error {
	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	req := dto.PreviewRecipientsRequest{
		AdminID:    adminID,
		TargetType: c.Query("target_type"),
	}
	if v := c.Query("target_season_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			id := uint(n)
			req.TargetSeasonID = &id
		}
	}
	if v := c.Query("custom_emails"); v != "" {
		for _, email := range strings.Split(v, ",") {
			if email = strings.TrimSpace(email); email != "" {
				req.CustomEmails = append(req.CustomEmails, email)
			}
		}
	}
	if v := c.Query("recipients_limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			req.RecipientsLimit = &n
		}
	}

	resp, err := h.flow.PreviewRecipients(h.createRequestContext(c, "/api/v1/admin/mailing/recipients/preview"), &req)
	if err != nil {
		if businessflow.IsUnknownTargetType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown target type", "UNKNOWN_TARGET_TYPE", nil)
		}
		log.Println("Admin preview recipients failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to preview recipients", "RECIPIENT_PREVIEW_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recipients previewed successfully", resp)
}

// ListTeamEmails returns every registered team address
// @Summary Admin List Team Emails
// @Description Retrieve all registered team addresses for building custom recipient lists
// @Tags Admin Mailing
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListTeamEmailsResponse} "Team emails retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/mailing/teams/emails [get]
func (h *EmailLogHandler) ListTeamEmails(c fiber.Ctx) error {
	resp, err := h.flow.ListTeamEmails(h.createRequestContext(c, "/api/v1/admin/mailing/teams/emails"))
	if err != nil {
		log.Println("Admin list team emails failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list team emails", "LIST_TEAM_EMAILS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Team emails retrieved successfully", resp)
}

// SendCustom delivers a one-off message to an explicit address list
// @Summary Admin Send Custom Email
// @Description Send a one-off message to an explicit address list; each delivery is logged and failures do not stop the rest
// @Tags Admin Mailing
// @Accept json
// @Produce json
// @Param request body dto.SendCustomEmailRequest true "Message and recipients"
// @Success 200 {object} dto.APIResponse{data=dto.SendCustomEmailResponse} "Sending processed"
// @Failure 400 {object} dto.APIResponse "Validation error or empty recipient list"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/mailing/send-custom [post]
func (h *EmailLogHandler) SendCustom(c fiber.Ctx) error {
	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	var req dto.SendCustomEmailRequest
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
	resp, err := h.flow.SendCustom(h.createRequestContext(c, "/api/v1/admin/mailing/send-custom"), &req, metadata)
	if err != nil {
		if businessflow.IsCustomEmailsRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one recipient email is required", "CUSTOM_EMAILS_REQUIRED", nil)
		}
		log.Println("Admin send custom email failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send custom email", "CUSTOM_EMAIL_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, resp.Message, resp)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *EmailLogHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *EmailLogHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
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
func (h *EmailLogHandler) setupCustomValidations() {
	// Add custom validation rules if needed
	// Example: h.validator.RegisterValidation("custom_rule", customValidationFunc)
}
