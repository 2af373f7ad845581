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

// ContactHandlerInterface defines the contract for contact form handlers
type ContactHandlerInterface interface {
	Submit(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Update(c fiber.Ctx) error
}

// ContactHandler implements ContactHandlerInterface
type ContactHandler struct {
	flow      businessflow.ContactFlow
	validator *validator.Validate
}

func NewContactHandler(flow businessflow.ContactFlow) ContactHandlerInterface {
	h := &ContactHandler{
		flow:      flow,
		validator: validator.New(),
	}
	h.setupCustomValidations()
	return h
}

func (h *ContactHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ContactHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Submit accepts a public contact form message
// @Summary Submit Contact Message
// @Description Submit a contact form message; site admins are notified by email
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body dto.SubmitContactRequest true "Contact message"
// @Success 201 {object} dto.APIResponse{data=dto.SubmitContactResponse} "Message submitted"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid captcha"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/contacts [post]
func (h *ContactHandler) Submit(c fiber.Ctx) error {
	var req dto.SubmitContactRequest
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
	resp, err := h.flow.Submit(h.createRequestContext(c, "/api/v1/contacts"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidCaptcha(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid captcha", "INVALID_CAPTCHA", nil)
		}
		log.Println("Contact submission failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to submit message", "CONTACT_SUBMISSION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Message submitted successfully", resp)
}

// List returns contact messages for admin review
// @Summary Admin List Contact Messages
// @Description Retrieve contact messages with pagination and filters
// @Tags Admin Contacts
// @Produce json
// @Param topic query string false "Filter by topic (general|registration|sponsorship|press)"
// @Param is_read query bool false "Filter by read flag"
// @Param is_replied query bool false "Filter by replied flag"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param orderby query string false "Ordering (newest|oldest)"
// @Success 200 {object} dto.APIResponse{data=dto.ListContactMessagesResponse} "Messages retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/contacts [get]
func (h *ContactHandler) List(c fiber.Ctx) error {
	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	filter := &dto.ListContactMessagesFilter{}
	if v := c.Query("topic"); v != "" {
		filter.Topic = &v
	}
	if v := c.Query("is_read"); v != "" {
		if v == "true" || v == "1" {
			filter.IsRead = utils.ToPtr(true)
		} else if v == "false" || v == "0" {
			filter.IsRead = utils.ToPtr(false)
		}
	}
	if v := c.Query("is_replied"); v != "" {
		if v == "true" || v == "1" {
			filter.IsReplied = utils.ToPtr(true)
		} else if v == "false" || v == "0" {
			filter.IsReplied = utils.ToPtr(false)
		}
	}

	req := dto.ListContactMessagesRequest{
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
	resp, err := h.flow.List(h.createRequestContext(c, "/api/v1/admin/contacts"), &req, metadata)
	if err != nil {
		log.Println("Admin list contacts failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list contact messages", "LIST_CONTACTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Contact messages retrieved successfully", resp)
}

// Update flips the read/replied flags on a contact message
// @Summary Admin Update Contact Message
// @Description Mark a contact message as read and/or replied
// @Tags Admin Contacts
// @Accept json
// @Produce json
// @Param id path int true "Contact message ID"
// @Param request body dto.UpdateContactMessageRequest true "Flags to update"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateContactMessageResponse} "Message updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Message not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/contacts/{id} [patch]
func (h *ContactHandler) Update(c fiber.Ctx) error {
	idStr := c.Params("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contact id", "INVALID_CONTACT_ID", nil)
	}

	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	var req dto.UpdateContactMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.ContactID = uint(id)
	req.AdminID = adminID

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.Update(h.createRequestContext(c, "/api/v1/admin/contacts/:id"), &req, metadata)
	if err != nil {
		if businessflow.IsContactNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contact message not found", "CONTACT_NOT_FOUND", nil)
		}
		log.Println("Admin update contact failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update contact message", "UPDATE_CONTACT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Contact message updated successfully", resp)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ContactHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *ContactHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
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
func (h *ContactHandler) setupCustomValidations() {
	// Add custom validation rules if needed
	// Example: h.validator.RegisterValidation("custom_rule", customValidationFunc)
}
