// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"

	"github.com/avolkov/robocontest/app/dto"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	"github.com/avolkov/robocontest/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// CampaignDispatcher hands a campaign to the background delivery
// pipeline. Implementations own the concurrency-control around a dispatch
// (locking, re-resolution, queueing); the flow only triggers and reports.
type CampaignDispatcher interface {
	Dispatch(ctx context.Context, campaignID uint, triggeredBy *uint) (*DispatchReceipt, error)
}

// DispatchReceipt acknowledges an accepted dispatch. TotalRecipients is
// the resolved recipient count at trigger time; delivery itself finishes
// later in the background.
type DispatchReceipt struct {
	CampaignID      uint
	TotalRecipients int
}

// MailingCampaignFlow handles draft lifecycle of mass mailing campaigns.
// Campaigns have no update operation: a draft is either dispatched or
// deleted, and a sent campaign is immutable.
type MailingCampaignFlow interface {
	Create(ctx context.Context, req *dto.CreateMailingCampaignRequest, metadata *ClientMetadata) (*dto.CreateMailingCampaignResponse, error)
	List(ctx context.Context, req *dto.ListMailingCampaignsRequest, metadata *ClientMetadata) (*dto.ListMailingCampaignsResponse, error)
	Get(ctx context.Context, campaignID uint) (*dto.MailingCampaignDTO, error)
	Delete(ctx context.Context, campaignID uint, adminID uint, metadata *ClientMetadata) error
	Dispatch(ctx context.Context, req *dto.DispatchCampaignRequest, metadata *ClientMetadata) (*dto.DispatchCampaignResponse, error)
}

// MailingCampaignFlowImpl implements the campaign management business flow
type MailingCampaignFlowImpl struct {
	campaignRepo repository.MailingCampaignRepository
	seasonRepo   repository.SeasonRepository
	auditRepo    repository.AuditLogRepository
	resolver     RecipientResolver
	dispatcher   CampaignDispatcher
	db           *gorm.DB
}

func NewMailingCampaignFlow(
	campaignRepo repository.MailingCampaignRepository,
	seasonRepo repository.SeasonRepository,
	auditRepo repository.AuditLogRepository,
	resolver RecipientResolver,
	dispatcher CampaignDispatcher,
	db *gorm.DB,
) MailingCampaignFlow {
	return &MailingCampaignFlowImpl{
		campaignRepo: campaignRepo,
		seasonRepo:   seasonRepo,
		auditRepo:    auditRepo,
		resolver:     resolver,
		dispatcher:   dispatcher,
		db:           db,
	}
}

// Create stores a draft campaign. The targeting selection is resolved
// once here so the stored total_recipients reflects the audience at
// creation time; the dispatcher resolves again at send time and
// overwrites the figure with the actual audience.
func (mf *MailingCampaignFlowImpl) Create(ctx context.Context, req *dto.CreateMailingCampaignRequest, metadata *ClientMetadata) (*dto.CreateMailingCampaignResponse, error) {
	// Validate business rules
	targetType := models.MailingTargetType(req.TargetType)
	if err := mf.validateCreateRequest(req, targetType); err != nil {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Campaign validation failed", err)
	}

	var campaign *models.MailingCampaign

	resp, err := mf.WithCreateTransaction(ctx, func(ctx context.Context) (*dto.CreateMailingCampaignResponse, error) {
		if req.TargetSeasonID != nil {
			season, err := mf.seasonRepo.ByID(ctx, *req.TargetSeasonID)
			if err != nil {
				return nil, err
			}
			if season == nil {
				return nil, ErrSeasonNotFound
			}
		}

		resolved, err := mf.resolver.Resolve(ctx, RecipientSelection{
			TargetType:      targetType,
			TargetSeasonID:  req.TargetSeasonID,
			CustomEmails:    req.CustomEmails,
			RecipientsLimit: req.RecipientsLimit,
		})
		if err != nil {
			return nil, err
		}
		if targetType == models.MailingTargetCustomEmails && len(resolved.Recipients) == 0 {
			return nil, ErrCustomEmailsRequired
		}

		campaign = &models.MailingCampaign{
			Name:            req.Name,
			Subject:         req.Subject,
			Body:            req.Body,
			HTML:            req.HTML,
			TargetType:      targetType,
			TargetSeasonID:  req.TargetSeasonID,
			RecipientsLimit: req.RecipientsLimit,
			ScheduledAt:     req.ScheduledAt,
			IsScheduled:     utils.ToPtr(req.ScheduledAt != nil),
			TotalRecipients: len(resolved.Recipients),
			IsSent:          utils.ToPtr(false),
			CreatedBy:       &req.AdminID,
		}
		if targetType == models.MailingTargetCustomEmails {
			campaign.CustomEmails = pq.StringArray(req.CustomEmails)
		}

		if err := mf.campaignRepo.Save(ctx, campaign); err != nil {
			return nil, err
		}

		return &dto.CreateMailingCampaignResponse{
			Message:  "Campaign created successfully",
			Campaign: ToMailingCampaignDTO(*campaign),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Campaign creation failed: %s", err.Error())
		_ = mf.LogCampaignAction(ctx, &req.AdminID, models.AuditActionCampaignCreated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_CREATION_FAILED", "Campaign creation failed", err)
	}

	msg := fmt.Sprintf("Campaign created successfully: %d", campaign.ID)
	_ = mf.LogCampaignAction(ctx, &req.AdminID, models.AuditActionCampaignCreated, msg, true, nil, metadata)

	return resp, nil
}

// List retrieves campaigns with pagination, ordering and filters
func (mf *MailingCampaignFlowImpl) List(ctx context.Context, req *dto.ListMailingCampaignsRequest, metadata *ClientMetadata) (*dto.ListMailingCampaignsResponse, error) {
	var err error
	defer func() {
		if err != nil {
			err = NewBusinessError("LIST_CAMPAIGNS_FAILED", "Failed to list campaigns", err)
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

	filter := models.MailingCampaignFilter{}
	if req.Filter != nil {
		if req.Filter.TargetType != nil && *req.Filter.TargetType != "" {
			targetType := models.MailingTargetType(*req.Filter.TargetType)
			if targetType.Valid() {
				filter.TargetType = &targetType
			}
		}
		if req.Filter.IsScheduled != nil {
			filter.IsScheduled = req.Filter.IsScheduled
		}
		if req.Filter.IsSent != nil {
			filter.IsSent = req.Filter.IsSent
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

	total64, err := mf.campaignRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows, err := mf.campaignRepo.ByFilter(ctx, filter, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]dto.MailingCampaignDTO, 0, len(rows))
	for _, campaign := range rows {
		items = append(items, ToMailingCampaignDTO(*campaign))
	}

	totalPages := int((total64 + int64(limit) - 1) / int64(limit))

	return &dto.ListMailingCampaignsResponse{
		Message: "Campaigns retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total64,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}, nil
}

// Get retrieves a single campaign by ID
func (mf *MailingCampaignFlowImpl) Get(ctx context.Context, campaignID uint) (*dto.MailingCampaignDTO, error) {
	campaign, err := mf.campaignRepo.ByID(ctx, campaignID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}
	item := ToMailingCampaignDTO(*campaign)
	return &item, nil
}

// Delete removes a draft campaign. Sent campaigns are immutable and stay
// for the audit trail.
func (mf *MailingCampaignFlowImpl) Delete(ctx context.Context, campaignID uint, adminID uint, metadata *ClientMetadata) error {
	err := repository.WithTransaction(ctx, mf.db, func(ctx context.Context) error {
		campaign, err := mf.campaignRepo.ByID(ctx, campaignID)
		if err != nil {
			return err
		}
		if campaign == nil {
			return ErrCampaignNotFound
		}
		if utils.IsTrue(campaign.IsSent) {
			return ErrCampaignNotDeletable
		}

		deleted, err := mf.campaignRepo.Delete(ctx, campaignID)
		if err != nil {
			return err
		}
		if !deleted {
			// Lost the race against a concurrent dispatch finalize
			return ErrCampaignNotDeletable
		}
		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Campaign deletion failed: %s", err.Error())
		_ = mf.LogCampaignAction(ctx, &adminID, models.AuditActionCampaignDeleted, errMsg, false, &errMsg, metadata)

		return NewBusinessError("CAMPAIGN_DELETION_FAILED", "Campaign deletion failed", err)
	}

	msg := fmt.Sprintf("Campaign deleted: %d", campaignID)
	_ = mf.LogCampaignAction(ctx, &adminID, models.AuditActionCampaignDeleted, msg, true, nil, metadata)

	return nil
}

// Dispatch hands the campaign to the background dispatcher and reports
// the accepted recipient count. The HTTP request returns as soon as the
// campaign is queued; delivery counters land on the campaign when the
// background run finishes.
func (mf *MailingCampaignFlowImpl) Dispatch(ctx context.Context, req *dto.DispatchCampaignRequest, metadata *ClientMetadata) (*dto.DispatchCampaignResponse, error) {
	receipt, err := mf.dispatcher.Dispatch(ctx, req.CampaignID, &req.AdminID)

	if err != nil {
		errMsg := fmt.Sprintf("Campaign dispatch failed: %s", err.Error())
		_ = mf.LogCampaignAction(ctx, &req.AdminID, models.AuditActionCampaignDispatched, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_DISPATCH_FAILED", "Campaign dispatch failed", err)
	}

	msg := fmt.Sprintf("Campaign %d queued with %d recipients", receipt.CampaignID, receipt.TotalRecipients)
	_ = mf.LogCampaignAction(ctx, &req.AdminID, models.AuditActionCampaignDispatched, msg, true, nil, metadata)

	return &dto.DispatchCampaignResponse{
		Message: "Campaign queued for delivery",
		Receipt: dto.DispatchReceiptDTO{
			CampaignID:      receipt.CampaignID,
			TotalRecipients: receipt.TotalRecipients,
			Status:          "queued",
		},
	}, nil
}

// Private helper methods

func (mf *MailingCampaignFlowImpl) validateCreateRequest(req *dto.CreateMailingCampaignRequest, targetType models.MailingTargetType) error {
	if !targetType.Valid() {
		return ErrUnknownTargetType
	}
	if targetType == models.MailingTargetCustomEmails && len(req.CustomEmails) == 0 {
		return ErrCustomEmailsRequired
	}
	if req.ScheduledAt != nil && !req.ScheduledAt.After(utils.UTCNow()) {
		return ErrScheduledAtInPast
	}
	return nil
}

func (mf *MailingCampaignFlowImpl) LogCampaignAction(ctx context.Context, adminID *uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return mf.auditRepo.Save(ctx, audit)
}

func (mf *MailingCampaignFlowImpl) WithCreateTransaction(ctx context.Context, fn func(context.Context) (*dto.CreateMailingCampaignResponse, error)) (*dto.CreateMailingCampaignResponse, error) {
	var result *dto.CreateMailingCampaignResponse
	var fnErr error

	err := repository.WithTransaction(ctx, mf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
