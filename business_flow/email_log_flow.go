// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avolkov/robocontest/app/dto"
	"github.com/avolkov/robocontest/app/services"
	"github.com/avolkov/robocontest/config"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	"github.com/avolkov/robocontest/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// EmailLogFlow exposes the delivery log plus the ad-hoc sending tools
// built on top of it (custom sends, resends, recipient preview).
type EmailLogFlow interface {
	List(ctx context.Context, req *dto.ListEmailLogsRequest, metadata *ClientMetadata) (*dto.ListEmailLogsResponse, error)
	Stats(ctx context.Context) (*dto.EmailStatsResponse, error)
	PreviewRecipients(ctx context.Context, req *dto.PreviewRecipientsRequest) (*dto.PreviewRecipientsResponse, error)
	ListTeamEmails(ctx context.Context) (*dto.ListTeamEmailsResponse, error)
	SendCustom(ctx context.Context, req *dto.SendCustomEmailRequest, metadata *ClientMetadata) (*dto.SendCustomEmailResponse, error)
	Resend(ctx context.Context, req *dto.ResendEmailRequest, metadata *ClientMetadata) (*dto.ResendEmailResponse, error)
}

// EmailLogFlowImpl implements the delivery log business flow
type EmailLogFlowImpl struct {
	emailLogRepo repository.EmailLogRepository
	campaignRepo repository.MailingCampaignRepository
	teamRepo     repository.TeamRepository
	auditRepo    repository.AuditLogRepository
	resolver     RecipientResolver
	mailer       services.Mailer
	rc           *redis.Client
	cacheConfig  *config.CacheConfig
	db           *gorm.DB
}

func NewEmailLogFlow(
	emailLogRepo repository.EmailLogRepository,
	campaignRepo repository.MailingCampaignRepository,
	teamRepo repository.TeamRepository,
	auditRepo repository.AuditLogRepository,
	resolver RecipientResolver,
	mailer services.Mailer,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	db *gorm.DB,
) EmailLogFlow {
	return &EmailLogFlowImpl{
		emailLogRepo: emailLogRepo,
		campaignRepo: campaignRepo,
		teamRepo:     teamRepo,
		auditRepo:    auditRepo,
		resolver:     resolver,
		mailer:       mailer,
		rc:           rc,
		cacheConfig:  cacheConfig,
		db:           db,
	}
}

func redisKey(cfg config.CacheConfig, key string) string {
	return cfg.RedisPrefix + key
}

// List retrieves delivery records with pagination, ordering and filters
func (ef *EmailLogFlowImpl) List(ctx context.Context, req *dto.ListEmailLogsRequest, metadata *ClientMetadata) (*dto.ListEmailLogsResponse, error) {
	var err error
	defer func() {
		if err != nil {
			err = NewBusinessError("LIST_EMAIL_LOGS_FAILED", "Failed to list email logs", err)
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

	filter := models.EmailLogFilter{}
	if req.Filter != nil {
		if req.Filter.EmailType != nil && *req.Filter.EmailType != "" {
			emailType := models.EmailType(*req.Filter.EmailType)
			if emailType.Valid() {
				filter.EmailType = &emailType
			}
		}
		if req.Filter.Status != nil && *req.Filter.Status != "" {
			status := models.EmailStatus(*req.Filter.Status)
			if status.Valid() {
				filter.Status = &status
			}
		}
		if req.Filter.CampaignID != nil {
			filter.CampaignID = req.Filter.CampaignID
		}
		if req.Filter.Search != nil && *req.Filter.Search != "" {
			filter.Search = req.Filter.Search
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

	total64, err := ef.emailLogRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows, err := ef.emailLogRepo.ByFilter(ctx, filter, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]dto.EmailLogDTO, 0, len(rows))
	for _, entry := range rows {
		items = append(items, ToEmailLogDTO(*entry))
	}

	totalPages := int((total64 + int64(limit) - 1) / int64(limit))

	return &dto.ListEmailLogsResponse{
		Message: "Email logs retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total64,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}, nil
}

// Stats aggregates delivery outcomes across the whole log. The figures
// are cached briefly so the admin dashboard does not hammer the table.
func (ef *EmailLogFlowImpl) Stats(ctx context.Context) (*dto.EmailStatsResponse, error) {
	cacheKey := redisKey(*ef.cacheConfig, utils.EmailStatsCacheKey)

	// try redis first
	if ef.rc != nil {
		if bs, err := ef.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var out dto.EmailStatsResponse
			if err := json.Unmarshal(bs, &out); err == nil {
				return &out, nil
			}
		}
	}

	stats, err := ef.emailLogRepo.Stats(ctx)
	if err != nil {
		return nil, NewBusinessError("EMAIL_STATS_FAILED", "Failed to compute email stats", err)
	}

	out := &dto.EmailStatsResponse{
		Total:   stats.Total,
		Sent:    stats.Sent,
		Failed:  stats.Failed,
		Pending: stats.Pending,
		ByType:  stats.ByType,
	}

	if ef.rc != nil {
		if bs, err := json.Marshal(out); err == nil {
			_ = ef.rc.Set(ctx, cacheKey, bs, utils.EmailStatsCacheTTL).Err()
		}
	}

	return out, nil
}

// PreviewRecipients resolves a targeting selection without persisting
// anything, so an operator can check who a draft campaign would reach.
// The response carries a small address sample, not the full list.
func (ef *EmailLogFlowImpl) PreviewRecipients(ctx context.Context, req *dto.PreviewRecipientsRequest) (*dto.PreviewRecipientsResponse, error) {
	targetType := models.MailingTargetType(req.TargetType)
	if !targetType.Valid() {
		return nil, NewBusinessError("PREVIEW_VALIDATION_FAILED", "Recipient preview validation failed", ErrUnknownTargetType)
	}

	resolved, err := ef.resolver.Resolve(ctx, RecipientSelection{
		TargetType:      targetType,
		TargetSeasonID:  req.TargetSeasonID,
		CustomEmails:    req.CustomEmails,
		RecipientsLimit: req.RecipientsLimit,
	})
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_PREVIEW_FAILED", "Recipient preview failed", err)
	}

	sample := resolved.Recipients
	if len(sample) > utils.RecipientPreviewSampleSize {
		sample = sample[:utils.RecipientPreviewSampleSize]
	}

	recipients := make([]dto.RecipientPreviewDTO, 0, len(sample))
	for _, r := range sample {
		recipients = append(recipients, dto.RecipientPreviewDTO{
			Email: r.Email,
			Name:  r.Name,
		})
	}

	return &dto.PreviewRecipientsResponse{
		TotalAvailable: resolved.TotalAvailable,
		SelectedCount:  len(resolved.Recipients),
		Recipients:     recipients,
	}, nil
}

// ListTeamEmails returns every registered team address for building
// custom recipient lists in the admin UI
func (ef *EmailLogFlowImpl) ListTeamEmails(ctx context.Context) (*dto.ListTeamEmailsResponse, error) {
	teams, err := ef.teamRepo.ListRecipients(ctx, nil, nil)
	if err != nil {
		return nil, NewBusinessError("LIST_TEAM_EMAILS_FAILED", "Failed to list team emails", err)
	}

	items := make([]dto.TeamEmailDTO, 0, len(teams))
	for _, team := range teams {
		if team == nil {
			continue
		}
		items = append(items, dto.TeamEmailDTO{
			ID:    team.ID,
			Email: team.Email,
			Name:  team.Name,
		})
	}

	return &dto.ListTeamEmailsResponse{Items: items}, nil
}

// SendCustom delivers a one-off message to an explicit address list. The
// list goes through the same dedup as campaign targeting, each delivery
// gets its own log record, and failures do not stop the remaining sends.
func (ef *EmailLogFlowImpl) SendCustom(ctx context.Context, req *dto.SendCustomEmailRequest, metadata *ClientMetadata) (*dto.SendCustomEmailResponse, error) {
	resolved, err := ef.resolver.Resolve(ctx, RecipientSelection{
		TargetType:   models.MailingTargetCustomEmails,
		CustomEmails: req.Emails,
	})
	if err != nil {
		return nil, NewBusinessError("CUSTOM_EMAIL_FAILED", "Custom email sending failed", err)
	}
	if len(resolved.Recipients) == 0 {
		return nil, NewBusinessError("CUSTOM_EMAILS_REQUIRED", "At least one recipient email is required", ErrCustomEmailsRequired)
	}

	html := ""
	if req.HTML != nil {
		html = *req.HTML
	}

	sent, failed := 0, 0
	for _, r := range resolved.Recipients {
		mail := &services.OutgoingMail{
			To:      r.Email,
			Subject: req.Subject,
			Body:    req.Body,
			HTML:    html,
		}
		if _, err := SendLoggedMail(ctx, ef.mailer, ef.emailLogRepo, mail, models.EmailTypeCustom, DeliveryRef{SentBy: &req.AdminID}); err != nil {
			failed++
			continue
		}
		sent++
	}

	msg := fmt.Sprintf("Custom email processed: %d sent, %d failed", sent, failed)
	_ = ef.LogEmailAction(ctx, &req.AdminID, models.AuditActionCustomEmailSent, msg, failed == 0, nil, metadata)

	return &dto.SendCustomEmailResponse{
		Message: msg,
		Sent:    sent,
		Failed:  failed,
	}, nil
}

// Resend repeats the delivery of an existing record. The original row is
// never flipped back to pending; a fresh record is appended for the new
// attempt and the original only gets its retry counter bumped. Campaign
// entries are resent with the full campaign body, standalone entries only
// carry their stored preview.
func (ef *EmailLogFlowImpl) Resend(ctx context.Context, req *dto.ResendEmailRequest, metadata *ClientMetadata) (*dto.ResendEmailResponse, error) {
	entry, err := ef.emailLogRepo.ByID(ctx, req.EmailLogID)
	if err != nil {
		return nil, NewBusinessError("EMAIL_LOG_LOOKUP_FAILED", "Failed to lookup email log", err)
	}
	if entry == nil {
		return nil, NewBusinessError("EMAIL_LOG_NOT_FOUND", "Email log entry not found", ErrEmailLogNotFound)
	}

	mail := &services.OutgoingMail{
		To:      entry.ToEmail,
		Subject: entry.Subject,
	}
	if entry.ToName != nil {
		mail.ToName = *entry.ToName
	}
	if entry.CampaignID != nil {
		campaign, err := ef.campaignRepo.ByID(ctx, *entry.CampaignID)
		if err != nil {
			return nil, NewBusinessError("EMAIL_RESEND_FAILED", "Email resend failed", err)
		}
		if campaign != nil {
			mail.Body = campaign.Body
			if campaign.HTML != nil {
				mail.HTML = *campaign.HTML
			}
		}
	}
	if mail.Body == "" && entry.BodyPreview != nil {
		mail.Body = *entry.BodyPreview
	}

	if err := ef.emailLogRepo.IncrementRetry(ctx, entry.ID); err != nil {
		return nil, NewBusinessError("EMAIL_RESEND_FAILED", "Email resend failed", err)
	}

	attempt, sendErr := SendLoggedMail(ctx, ef.mailer, ef.emailLogRepo, mail, entry.EmailType, DeliveryRef{
		TeamID:     entry.TeamID,
		ContactID:  entry.ContactID,
		CampaignID: entry.CampaignID,
		SentBy:     &req.AdminID,
	})
	if attempt == nil {
		return nil, NewBusinessError("EMAIL_RESEND_FAILED", "Email resend failed", sendErr)
	}

	msg := fmt.Sprintf("Email log %d resent as %d (%s)", entry.ID, attempt.ID, attempt.Status)
	_ = ef.LogEmailAction(ctx, &req.AdminID, models.AuditActionEmailResent, msg, sendErr == nil, nil, metadata)

	message := "Email resent successfully"
	if sendErr != nil {
		message = "Email resend attempted, delivery failed"
	}

	return &dto.ResendEmailResponse{
		Message: message,
		Log:     ToEmailLogDTO(*attempt),
	}, nil
}

// Private helper methods

func (ef *EmailLogFlowImpl) LogEmailAction(ctx context.Context, adminID *uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return ef.auditRepo.Save(ctx, audit)
}
