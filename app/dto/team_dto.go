// Package dto
package dto

// RegisterTeamRequest represents a public team registration submission.
// The team is registered into the current season; captcha fields are
// required when the rotate captcha is enabled.
type RegisterTeamRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=255"`
	League        string  `json:"league" validate:"required,oneof=junior senior"`
	City          *string `json:"city,omitempty" validate:"omitempty,max=255"`
	Institution   *string `json:"institution,omitempty" validate:"omitempty,max=255"`
	CaptainName   string  `json:"captain_name" validate:"required,min=2,max=255"`
	Email         string  `json:"email" validate:"required,email,max=255"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	MembersCount  int     `json:"members_count" validate:"required,gte=1,lte=20"`
	Comment       *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
	RulesAccepted bool    `json:"rules_accepted"`

	ChallengeID string  `json:"challenge_id,omitempty"`
	UserAngle   float64 `json:"user_angle,omitempty"`
}

type TeamDTO struct {
	ID            uint    `json:"id"`
	UUID          string  `json:"uuid"`
	SeasonID      uint    `json:"season_id"`
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	League        string  `json:"league"`
	City          *string `json:"city,omitempty"`
	Institution   *string `json:"institution,omitempty"`
	CaptainName   string  `json:"captain_name"`
	Email         string  `json:"email"`
	Phone         *string `json:"phone,omitempty"`
	MembersCount  int     `json:"members_count"`
	Comment       *string `json:"comment,omitempty"`
	RulesAccepted *bool   `json:"rules_accepted"`
	CreatedAt     string  `json:"created_at"`
}

type RegisterTeamResponse struct {
	Message string  `json:"message"`
	Team    TeamDTO `json:"team"`
}

// ListTeamsFilter represents filter criteria for listing teams in request layer
type ListTeamsFilter struct {
	SeasonID *uint   `json:"season_id,omitempty"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected withdrawn"`
	League   *string `json:"league,omitempty" validate:"omitempty,oneof=junior senior"`
	Search   *string `json:"search,omitempty"`
}

// ListTeamsRequest represents a paginated admin listing of registered teams
type ListTeamsRequest struct {
	AdminID uint             `json:"-"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	OrderBy string           `json:"orderby"` // newest, oldest
	Filter  *ListTeamsFilter `json:"filter,omitempty"`
}

type ListTeamsResponse struct {
	Message    string         `json:"message"`
	Items      []TeamDTO      `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}

// UpdateTeamStatusRequest moves a team through the review workflow. When
// Notify is unset the team is emailed about the new status.
type UpdateTeamStatusRequest struct {
	TeamID  uint   `json:"-"`
	AdminID uint   `json:"-"`
	Status  string `json:"status" validate:"required,oneof=pending approved rejected withdrawn"`
	Notify  *bool  `json:"notify,omitempty"`
}

type UpdateTeamStatusResponse struct {
	Message string  `json:"message"`
	Team    TeamDTO `json:"team"`
}
