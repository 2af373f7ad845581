// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"

	"github.com/avolkov/robocontest/app/dto"
	"github.com/avolkov/robocontest/app/services"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	"github.com/avolkov/robocontest/utils"
	"gorm.io/gorm"
)

// ContactFlow handles public contact form submissions and their admin
// inbox. Read/replied flags only move forward; a message never becomes
// unread again.
type ContactFlow interface {
	Submit(ctx context.Context, req *dto.SubmitContactRequest, metadata *ClientMetadata) (*dto.SubmitContactResponse, error)
	List(ctx context.Context, req *dto.ListContactMessagesRequest, metadata *ClientMetadata) (*dto.ListContactMessagesResponse, error)
	Update(ctx context.Context, req *dto.UpdateContactMessageRequest, metadata *ClientMetadata) (*dto.UpdateContactMessageResponse, error)
}

// ContactFlowImpl implements the contact form business flow
type ContactFlowImpl struct {
	contactRepo  repository.ContactMessageRepository
	auditRepo    repository.AuditLogRepository
	emailLogRepo repository.EmailLogRepository
	mailer       services.Mailer
	captchaSvc   services.CaptchaService
	adminEmail   string
	db           *gorm.DB
}

// NewContactFlow creates a new contact flow instance. adminEmail receives
// a notification for every submission; a nil captcha service disables the
// captcha gate.
func NewContactFlow(
	contactRepo repository.ContactMessageRepository,
	auditRepo repository.AuditLogRepository,
	emailLogRepo repository.EmailLogRepository,
	mailer services.Mailer,
	captchaSvc services.CaptchaService,
	adminEmail string,
	db *gorm.DB,
) ContactFlow {
	return &ContactFlowImpl{
		contactRepo:  contactRepo,
		auditRepo:    auditRepo,
		emailLogRepo: emailLogRepo,
		mailer:       mailer,
		captchaSvc:   captchaSvc,
		adminEmail:   adminEmail,
		db:           db,
	}
}

// Submit stores a contact form message and alerts the site admin by email
// after the transaction commits.
func (cf *ContactFlowImpl) Submit(ctx context.Context, req *dto.SubmitContactRequest, metadata *ClientMetadata) (*dto.SubmitContactResponse, error) {
	// Validate business rules
	if err := cf.validateSubmitRequest(ctx, req); err != nil {
		return nil, NewBusinessError("CONTACT_VALIDATION_FAILED", "Contact form validation failed", err)
	}

	var contact *models.ContactMessage

	resp, err := cf.WithSubmitTransaction(ctx, func(ctx context.Context) (*dto.SubmitContactResponse, error) {
		contact = &models.ContactMessage{
			Topic:   models.ContactTopic(req.Topic),
			Name:    req.Name,
			Email:   req.Email,
			Message: req.Message,
		}

		if err := cf.contactRepo.Save(ctx, contact); err != nil {
			return nil, err
		}

		return &dto.SubmitContactResponse{
			Message: "Message submitted successfully",
			Contact: ToContactMessageDTO(*contact),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Contact submission failed: %s", err.Error())
		_ = cf.LogContactAction(ctx, nil, models.AuditActionContactSubmitted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CONTACT_SUBMISSION_FAILED", "Contact submission failed", err)
	}

	msg := fmt.Sprintf("Contact message submitted: %d", contact.ID)
	_ = cf.LogContactAction(ctx, nil, models.AuditActionContactSubmitted, msg, true, nil, metadata)

	cf.sendAdminNotification(contact)

	return resp, nil
}

// List retrieves contact messages with pagination, ordering and filters
func (cf *ContactFlowImpl) List(ctx context.Context, req *dto.ListContactMessagesRequest, metadata *ClientMetadata) (*dto.ListContactMessagesResponse, error) {
	var err error
	defer func() {
		if err != nil {
			err = NewBusinessError("LIST_CONTACTS_FAILED", "Failed to list contact messages", err)
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

	filter := models.ContactMessageFilter{}
	if req.Filter != nil {
		if req.Filter.Topic != nil && *req.Filter.Topic != "" {
			topic := models.ContactTopic(*req.Filter.Topic)
			if topic.Valid() {
				filter.Topic = &topic
			}
		}
		if req.Filter.IsRead != nil {
			filter.IsRead = req.Filter.IsRead
		}
		if req.Filter.IsReplied != nil {
			filter.IsReplied = req.Filter.IsReplied
		}
	}

	// Order by
	orderBy := "created_at DESC"
	switch req.OrderBy {
	case "oldest":
		orderBy = "created_at ASC"
	case "newest":
		orderBy = "created_at DESC"
	}

	total64, err := cf.contactRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows, err := cf.contactRepo.ByFilter(ctx, filter, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ContactMessageDTO, 0, len(rows))
	for _, contact := range rows {
		items = append(items, ToContactMessageDTO(*contact))
	}

	totalPages := int((total64 + int64(limit) - 1) / int64(limit))

	return &dto.ListContactMessagesResponse{
		Message: "Contact messages retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total64,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}, nil
}

// Update marks a message as read and/or replied
func (cf *ContactFlowImpl) Update(ctx context.Context, req *dto.UpdateContactMessageRequest, metadata *ClientMetadata) (*dto.UpdateContactMessageResponse, error) {
	var contact *models.ContactMessage

	resp, err := cf.WithUpdateTransaction(ctx, func(ctx context.Context) (*dto.UpdateContactMessageResponse, error) {
		var err error
		contact, err = cf.contactRepo.ByID(ctx, req.ContactID)
		if err != nil {
			return nil, err
		}
		if contact == nil {
			return nil, ErrContactNotFound
		}

		if utils.IsTrue(req.IsRead) && !utils.IsTrue(contact.IsRead) {
			if err := cf.contactRepo.MarkRead(ctx, contact.ID); err != nil {
				return nil, err
			}
			contact.IsRead = utils.ToPtr(true)
		}
		if utils.IsTrue(req.IsReplied) && !utils.IsTrue(contact.IsReplied) {
			if err := cf.contactRepo.MarkReplied(ctx, contact.ID); err != nil {
				return nil, err
			}
			contact.IsReplied = utils.ToPtr(true)
		}

		return &dto.UpdateContactMessageResponse{
			Message: "Contact message updated successfully",
			Contact: ToContactMessageDTO(*contact),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Contact update failed: %s", err.Error())
		_ = cf.LogContactAction(ctx, &req.AdminID, models.AuditActionContactUpdated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CONTACT_UPDATE_FAILED", "Contact update failed", err)
	}

	msg := fmt.Sprintf("Contact message updated: %d", contact.ID)
	_ = cf.LogContactAction(ctx, &req.AdminID, models.AuditActionContactUpdated, msg, true, nil, metadata)

	return resp, nil
}

// Private helper methods

func (cf *ContactFlowImpl) validateSubmitRequest(ctx context.Context, req *dto.SubmitContactRequest) error {
	if req == nil {
		return ErrContactNotFound
	}

	// Captcha is mandatory whenever the service is wired
	if cf.captchaSvc != nil {
		if len(req.ChallengeID) == 0 || !cf.captchaSvc.VerifyRotate(ctx, req.ChallengeID, req.UserAngle) {
			return ErrInvalidCaptcha
		}
	}

	return nil
}

func (cf *ContactFlowImpl) sendAdminNotification(contact *models.ContactMessage) {
	if cf.adminEmail == "" {
		return
	}
	contactID := contact.ID
	mail := services.ContactNotificationMail(cf.adminEmail, contact.Name, contact.Email, contact.Topic.String(), contact.Message)

	go func() {
		_, _ = SendLoggedMail(context.Background(), cf.mailer, cf.emailLogRepo, mail, models.EmailTypeContactNotification, DeliveryRef{ContactID: &contactID})
	}()
}

func (cf *ContactFlowImpl) LogContactAction(ctx context.Context, adminID *uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return cf.auditRepo.Save(ctx, audit)
}

func (cf *ContactFlowImpl) WithSubmitTransaction(ctx context.Context, fn func(context.Context) (*dto.SubmitContactResponse, error)) (*dto.SubmitContactResponse, error) {
	var result *dto.SubmitContactResponse
	var fnErr error

	err := repository.WithTransaction(ctx, cf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (cf *ContactFlowImpl) WithUpdateTransaction(ctx context.Context, fn func(context.Context) (*dto.UpdateContactMessageResponse, error)) (*dto.UpdateContactMessageResponse, error) {
	var result *dto.UpdateContactMessageResponse
	var fnErr error

	err := repository.WithTransaction(ctx, cf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
