// Package dto
package dto

import "time"

// CreateMailingCampaignRequest represents a draft mass-mailing campaign.
// TargetSeasonID narrows team targeting to one season; CustomEmails is
// only read when target_type is custom_emails.
type CreateMailingCampaignRequest struct {
	AdminID         uint       `json:"-"`
	Name            string     `json:"name" validate:"required,min=2,max=255"`
	Subject         string     `json:"subject" validate:"required,min=2,max=500"`
	Body            string     `json:"body" validate:"required,min=2"`
	HTML            *string    `json:"html,omitempty"`
	TargetType      string     `json:"target_type" validate:"required,oneof=all_teams approved_teams pending_teams custom_emails"`
	TargetSeasonID  *uint      `json:"target_season_id,omitempty"`
	CustomEmails    []string   `json:"custom_emails,omitempty" validate:"omitempty,dive,email"`
	RecipientsLimit *int       `json:"recipients_limit,omitempty" validate:"omitempty,gte=1"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
}

type MailingCampaignDTO struct {
	ID              uint     `json:"id"`
	UUID            string   `json:"uuid"`
	Name            string   `json:"name"`
	Subject         string   `json:"subject"`
	Body            string   `json:"body"`
	HTML            *string  `json:"html,omitempty"`
	TargetType      string   `json:"target_type"`
	TargetSeasonID  *uint    `json:"target_season_id,omitempty"`
	CustomEmails    []string `json:"custom_emails,omitempty"`
	RecipientsLimit *int     `json:"recipients_limit,omitempty"`
	ScheduledAt     *string  `json:"scheduled_at,omitempty"`
	IsScheduled     *bool    `json:"is_scheduled"`
	TotalRecipients int      `json:"total_recipients"`
	SentCount       int      `json:"sent_count"`
	FailedCount     int      `json:"failed_count"`
	IsSent          *bool    `json:"is_sent"`
	SentAt          *string  `json:"sent_at,omitempty"`
	CreatedBy       *uint    `json:"created_by,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

// CreateMailingCampaignResponse echoes the stored draft together with a
// recipient preview computed at creation time.
type CreateMailingCampaignResponse struct {
	Message  string             `json:"message"`
	Campaign MailingCampaignDTO `json:"campaign"`
}

// ListMailingCampaignsFilter represents filter criteria for listing campaigns
type ListMailingCampaignsFilter struct {
	TargetType  *string `json:"target_type,omitempty" validate:"omitempty,oneof=all_teams approved_teams pending_teams custom_emails"`
	IsScheduled *bool   `json:"is_scheduled,omitempty"`
	IsSent      *bool   `json:"is_sent,omitempty"`
}

type ListMailingCampaignsRequest struct {
	AdminID uint                        `json:"-"`
	Page    int                         `json:"page"`
	Limit   int                         `json:"limit"`
	OrderBy string                      `json:"orderby"` // newest, oldest
	Filter  *ListMailingCampaignsFilter `json:"filter,omitempty"`
}

type ListMailingCampaignsResponse struct {
	Message    string               `json:"message"`
	Items      []MailingCampaignDTO `json:"items"`
	Pagination PaginationInfo       `json:"pagination"`
}

type DispatchCampaignRequest struct {
	CampaignID uint `json:"-"`
	AdminID    uint `json:"-"`
}

// DispatchReceiptDTO acknowledges that a campaign was handed to the
// dispatcher. Delivery happens in the background; counters land on the
// campaign when the run finishes.
type DispatchReceiptDTO struct {
	CampaignID      uint   `json:"campaign_id"`
	TotalRecipients int    `json:"total_recipients"`
	Status          string `json:"status" example:"queued"`
}

type DispatchCampaignResponse struct {
	Message string             `json:"message"`
	Receipt DispatchReceiptDTO `json:"receipt"`
}
