// Package dto
package dto

// SubmitContactRequest represents a public contact form submission.
// Captcha fields are required when the rotate captcha is enabled.
type SubmitContactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Topic   string `json:"topic" validate:"required,oneof=general registration sponsorship press"`
	Message string `json:"message" validate:"required,min=10,max=5000"`

	ChallengeID string  `json:"challenge_id,omitempty"`
	UserAngle   float64 `json:"user_angle,omitempty"`
}

type ContactMessageDTO struct {
	ID        uint   `json:"id"`
	UUID      string `json:"uuid"`
	Topic     string `json:"topic"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	IsRead    *bool  `json:"is_read"`
	IsReplied *bool  `json:"is_replied"`
	CreatedAt string `json:"created_at"`
}

type SubmitContactResponse struct {
	Message string            `json:"message"`
	Contact ContactMessageDTO `json:"contact"`
}

// ListContactMessagesFilter represents filter criteria for listing contact messages
type ListContactMessagesFilter struct {
	Topic     *string `json:"topic,omitempty" validate:"omitempty,oneof=general registration sponsorship press"`
	IsRead    *bool   `json:"is_read,omitempty"`
	IsReplied *bool   `json:"is_replied,omitempty"`
}

type ListContactMessagesRequest struct {
	AdminID uint                       `json:"-"`
	Page    int                        `json:"page"`
	Limit   int                        `json:"limit"`
	OrderBy string                     `json:"orderby"` // newest, oldest
	Filter  *ListContactMessagesFilter `json:"filter,omitempty"`
}

type ListContactMessagesResponse struct {
	Message    string              `json:"message"`
	Items      []ContactMessageDTO `json:"items"`
	Pagination PaginationInfo      `json:"pagination"`
}

// UpdateContactMessageRequest flips the read/replied flags on a message
type UpdateContactMessageRequest struct {
	ContactID uint  `json:"-"`
	AdminID   uint  `json:"-"`
	IsRead    *bool `json:"is_read,omitempty"`
	IsReplied *bool `json:"is_replied,omitempty"`
}

type UpdateContactMessageResponse struct {
	Message string            `json:"message"`
	Contact ContactMessageDTO `json:"contact"`
}
