// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/avolkov/robocontest/app/dto"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/utils"
)

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	DeviceInfo map[string]string `json:"device_info,omitempty"`
	Location   *LocationInfo     `json:"location,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// LocationInfo holds geographical location information
type LocationInfo struct {
	Country   string `json:"country,omitempty"`
	Region    string `json:"region,omitempty"`
	City      string `json:"city,omitempty"`
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		DeviceInfo: make(map[string]string),
		Additional: make(map[string]string),
	}
}

// AddDeviceInfo adds device information to the metadata
func (cm *ClientMetadata) AddDeviceInfo(key, value string) {
	if cm.DeviceInfo == nil {
		cm.DeviceInfo = make(map[string]string)
	}
	cm.DeviceInfo[key] = value
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetLocation sets location information
func (cm *ClientMetadata) SetLocation(location *LocationInfo) {
	cm.Location = location
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// ToAdminDTO converts an admin model to AdminDTO for authentication responses
func ToAdminDTO(admin models.Admin) dto.AdminDTO {
	return dto.AdminDTO{
		ID:        admin.ID,
		UUID:      admin.UUID.String(),
		Email:     admin.Email,
		FullName:  admin.FullName,
		Role:      string(admin.Role),
		IsActive:  admin.IsActive,
		CreatedAt: admin.CreatedAt.Format(time.RFC3339),
	}
}

func ToAdminSessionDTO(session models.AdminSession) dto.AdminSessionDTO {
	refreshToken := ""
	if session.RefreshToken != nil {
		refreshToken = *session.RefreshToken
	}
	return dto.AdminSessionDTO{
		AccessToken:  session.SessionToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(session.ExpiresAt.Sub(utils.UTCNow()).Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
	}
}

// ToTeamDTO converts a team model to its response representation
func ToTeamDTO(team models.Team) dto.TeamDTO {
	return dto.TeamDTO{
		ID:            team.ID,
		UUID:          team.UUID.String(),
		SeasonID:      team.SeasonID,
		Name:          team.Name,
		Status:        team.Status.String(),
		League:        string(team.League),
		City:          team.City,
		Institution:   team.Institution,
		CaptainName:   team.CaptainName,
		Email:         team.Email,
		Phone:         team.Phone,
		MembersCount:  team.MembersCount,
		Comment:       team.Comment,
		RulesAccepted: team.RulesAccepted,
		CreatedAt:     team.CreatedAt.Format(time.RFC3339),
	}
}

// ToSeasonDTO converts a season model to its response representation
func ToSeasonDTO(season models.Season) dto.SeasonDTO {
	return dto.SeasonDTO{
		ID:                   season.ID,
		Year:                 season.Year,
		Name:                 season.Name,
		Theme:                season.Theme,
		Location:             season.Location,
		Format:               season.Format,
		RegistrationOpen:     season.RegistrationOpen,
		RegistrationStart:    formatTimePtr(season.RegistrationStart),
		RegistrationEnd:      formatTimePtr(season.RegistrationEnd),
		CompetitionDateStart: formatTimePtr(season.CompetitionDateStart),
		CompetitionDateEnd:   formatTimePtr(season.CompetitionDateEnd),
		IsCurrent:            season.IsCurrent,
		IsArchived:           season.IsArchived,
		CreatedAt:            season.CreatedAt.Format(time.RFC3339),
	}
}

// ToContactMessageDTO converts a contact message model to its response representation
func ToContactMessageDTO(msg models.ContactMessage) dto.ContactMessageDTO {
	return dto.ContactMessageDTO{
		ID:        msg.ID,
		UUID:      msg.UUID.String(),
		Topic:     msg.Topic.String(),
		Name:      msg.Name,
		Email:     msg.Email,
		Message:   msg.Message,
		IsRead:    msg.IsRead,
		IsReplied: msg.IsReplied,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
	}
}

// ToMailingCampaignDTO converts a campaign model to its response representation
func ToMailingCampaignDTO(c models.MailingCampaign) dto.MailingCampaignDTO {
	return dto.MailingCampaignDTO{
		ID:              c.ID,
		UUID:            c.UUID.String(),
		Name:            c.Name,
		Subject:         c.Subject,
		Body:            c.Body,
		HTML:            c.HTML,
		TargetType:      c.TargetType.String(),
		TargetSeasonID:  c.TargetSeasonID,
		CustomEmails:    c.CustomEmails,
		RecipientsLimit: c.RecipientsLimit,
		ScheduledAt:     formatTimePtr(c.ScheduledAt),
		IsScheduled:     c.IsScheduled,
		TotalRecipients: c.TotalRecipients,
		SentCount:       c.SentCount,
		FailedCount:     c.FailedCount,
		IsSent:          c.IsSent,
		SentAt:          formatTimePtr(c.SentAt),
		CreatedBy:       c.CreatedBy,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
}

// ToEmailLogDTO converts a delivery record to its response representation
func ToEmailLogDTO(l models.EmailLog) dto.EmailLogDTO {
	return dto.EmailLogDTO{
		ID:           l.ID,
		ToEmail:      l.ToEmail,
		ToName:       l.ToName,
		Subject:      l.Subject,
		EmailType:    l.EmailType.String(),
		Status:       l.Status.String(),
		BodyPreview:  l.BodyPreview,
		ErrorMessage: l.ErrorMessage,
		RetryCount:   l.RetryCount,
		TeamID:       l.TeamID,
		ContactID:    l.ContactID,
		CampaignID:   l.CampaignID,
		SentAt:       formatTimePtr(l.SentAt),
		CreatedAt:    l.CreatedAt.Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
