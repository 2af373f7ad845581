// Package businessflow contains the core business logic and use cases for the contest backend
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Admin authentication errors
	ErrAdminNotFound       = errors.New("admin not found")
	ErrAdminInactive       = errors.New("admin account is inactive")
	ErrIncorrectPassword   = errors.New("incorrect password")
	ErrCaptchaNotAvailable = errors.New("captcha is not available")
	ErrInvalidCaptcha      = errors.New("captcha verification failed")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session has expired")

	// Season errors
	ErrSeasonNotFound  = errors.New("season not found")
	ErrSeasonYearTaken = errors.New("a season for this year already exists")
	ErrSeasonHasTeams  = errors.New("season has registered teams")
	ErrNoCurrentSeason = errors.New("no current season is configured")

	// Team registration errors
	ErrRegistrationClosed      = errors.New("registration is closed")
	ErrRulesNotAccepted        = errors.New("competition rules must be accepted")
	ErrTeamNotFound            = errors.New("team not found")
	ErrTeamNameTaken           = errors.New("a team with this name is already registered this season")
	ErrInvalidStatusTransition = errors.New("invalid team status transition")

	// Contact form errors
	ErrContactNotFound = errors.New("contact message not found")

	// Mailing campaign errors
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrCampaignAlreadySent  = errors.New("campaign has already been sent")
	ErrCampaignNotDeletable = errors.New("sent campaigns cannot be deleted")
	ErrDispatchInProgress   = errors.New("campaign dispatch is already in progress")
	ErrDispatcherBusy       = errors.New("dispatcher queue is full")
	ErrUnknownTargetType    = errors.New("unknown campaign target type")
	ErrCustomEmailsRequired = errors.New("custom recipient list is empty")
	ErrScheduledAtInPast    = errors.New("scheduled time must be in the future")

	// Email log errors
	ErrEmailLogNotFound = errors.New("email log entry not found")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsAdminInactive(err error) bool {
	return errors.Is(err, ErrAdminInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsCaptchaNotAvailable(err error) bool {
	return errors.Is(err, ErrCaptchaNotAvailable)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}

func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

func IsSeasonNotFound(err error) bool {
	return errors.Is(err, ErrSeasonNotFound)
}

func IsSeasonYearTaken(err error) bool {
	return errors.Is(err, ErrSeasonYearTaken)
}

func IsSeasonHasTeams(err error) bool {
	return errors.Is(err, ErrSeasonHasTeams)
}

func IsNoCurrentSeason(err error) bool {
	return errors.Is(err, ErrNoCurrentSeason)
}

func IsRegistrationClosed(err error) bool {
	return errors.Is(err, ErrRegistrationClosed)
}

func IsRulesNotAccepted(err error) bool {
	return errors.Is(err, ErrRulesNotAccepted)
}

func IsTeamNotFound(err error) bool {
	return errors.Is(err, ErrTeamNotFound)
}

func IsTeamNameTaken(err error) bool {
	return errors.Is(err, ErrTeamNameTaken)
}

func IsInvalidStatusTransition(err error) bool {
	return errors.Is(err, ErrInvalidStatusTransition)
}

func IsContactNotFound(err error) bool {
	return errors.Is(err, ErrContactNotFound)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignAlreadySent(err error) bool {
	return errors.Is(err, ErrCampaignAlreadySent)
}

func IsCampaignNotDeletable(err error) bool {
	return errors.Is(err, ErrCampaignNotDeletable)
}

func IsDispatchInProgress(err error) bool {
	return errors.Is(err, ErrDispatchInProgress)
}

func IsDispatcherBusy(err error) bool {
	return errors.Is(err, ErrDispatcherBusy)
}

func IsUnknownTargetType(err error) bool {
	return errors.Is(err, ErrUnknownTargetType)
}

func IsCustomEmailsRequired(err error) bool {
	return errors.Is(err, ErrCustomEmailsRequired)
}

func IsScheduledAtInPast(err error) bool {
	return errors.Is(err, ErrScheduledAtInPast)
}

func IsEmailLogNotFound(err error) bool {
	return errors.Is(err, ErrEmailLogNotFound)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
