// Package dto
package dto

type EmailLogDTO struct {
	ID           uint    `json:"id"`
	ToEmail      string  `json:"to_email"`
	ToName       *string `json:"to_name,omitempty"`
	Subject      string  `json:"subject"`
	EmailType    string  `json:"email_type"`
	Status       string  `json:"status"`
	BodyPreview  *string `json:"body_preview,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
	RetryCount   int     `json:"retry_count"`
	TeamID       *uint   `json:"team_id,omitempty"`
	ContactID    *uint   `json:"contact_id,omitempty"`
	CampaignID   *uint   `json:"campaign_id,omitempty"`
	SentAt       *string `json:"sent_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// ListEmailLogsFilter represents filter criteria for listing delivery records
type ListEmailLogsFilter struct {
	EmailType  *string `json:"email_type,omitempty" validate:"omitempty,oneof=registration_confirmation contact_notification mass_mailing team_status_update custom"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=pending sent failed"`
	CampaignID *uint   `json:"campaign_id,omitempty"`
	Search     *string `json:"search,omitempty"` // matches to_email and subject
}

type ListEmailLogsRequest struct {
	AdminID uint                 `json:"-"`
	Page    int                  `json:"page"`
	Limit   int                  `json:"limit"`
	OrderBy string               `json:"orderby"` // newest, oldest
	Filter  *ListEmailLogsFilter `json:"filter,omitempty"`
}

type ListEmailLogsResponse struct {
	Message    string         `json:"message"`
	Items      []EmailLogDTO  `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}

type EmailStatsResponse struct {
	Total   int64            `json:"total"`
	Sent    int64            `json:"sent"`
	Failed  int64            `json:"failed"`
	Pending int64            `json:"pending"`
	ByType  map[string]int64 `json:"by_type"`
}

// PreviewRecipientsRequest resolves a targeting selection without creating
// a campaign, so an operator can see who a draft would reach.
type PreviewRecipientsRequest struct {
	AdminID         uint     `json:"-"`
	TargetType      string   `json:"target_type" validate:"required,oneof=all_teams approved_teams pending_teams custom_emails"`
	TargetSeasonID  *uint    `json:"target_season_id,omitempty"`
	CustomEmails    []string `json:"custom_emails,omitempty" validate:"omitempty,dive,email"`
	RecipientsLimit *int     `json:"recipients_limit,omitempty" validate:"omitempty,gte=1"`
}

type RecipientPreviewDTO struct {
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

type PreviewRecipientsResponse struct {
	TotalAvailable int                   `json:"total_available"`
	SelectedCount  int                   `json:"selected_count"`
	Recipients     []RecipientPreviewDTO `json:"recipients"`
}

// TeamEmailDTO is a compact row for building custom recipient lists
type TeamEmailDTO struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type ListTeamEmailsResponse struct {
	Items []TeamEmailDTO `json:"items"`
}

// SendCustomEmailRequest sends a one-off message to an explicit address
// list, bypassing campaign bookkeeping. Each delivery is still logged.
type SendCustomEmailRequest struct {
	AdminID uint     `json:"-"`
	Emails  []string `json:"emails" validate:"required,min=1,dive,email"`
	Subject string   `json:"subject" validate:"required,min=2,max=500"`
	Body    string   `json:"body" validate:"required,min=2"`
	HTML    *string  `json:"html,omitempty"`
}

type SendCustomEmailResponse struct {
	Message string `json:"message"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
}

type ResendEmailRequest struct {
	EmailLogID uint `json:"-"`
	AdminID    uint `json:"-"`
}

type ResendEmailResponse struct {
	Message string      `json:"message"`
	Log     EmailLogDTO `json:"log"`
}
