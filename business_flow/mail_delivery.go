// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"

	"github.com/avolkov/robocontest/app/services"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	"github.com/avolkov/robocontest/utils"
)

// DeliveryRef links a delivery record to the entity that caused it
type DeliveryRef struct {
	TeamID     *uint
	ContactID  *uint
	CampaignID *uint
	SentBy     *uint
}

// SendLoggedMail delivers one message and records the outcome. A pending
// record is written first so a crash mid-send still leaves a trace, then
// the record moves to sent or failed. The returned record reflects the
// final state even when delivery fails.
func SendLoggedMail(ctx context.Context, mailer services.Mailer, logRepo repository.EmailLogRepository, mail *services.OutgoingMail, emailType models.EmailType, ref DeliveryRef) (*models.EmailLog, error) {
	entry := &models.EmailLog{
		ToEmail:     mail.To,
		Subject:     mail.Subject,
		EmailType:   emailType,
		Status:      models.EmailStatusPending,
		BodyPreview: utils.ToPtr(utils.TruncateString(mail.Body, utils.EmailBodyPreviewLength)),
		TeamID:      ref.TeamID,
		ContactID:   ref.ContactID,
		CampaignID:  ref.CampaignID,
		SentBy:      ref.SentBy,
	}
	if mail.ToName != "" {
		entry.ToName = utils.ToPtr(mail.ToName)
	}

	if err := logRepo.Save(ctx, entry); err != nil {
		return nil, err
	}

	if err := mailer.Send(ctx, mail); err != nil {
		if markErr := logRepo.MarkFailed(ctx, entry.ID, err.Error()); markErr == nil {
			entry.Status = models.EmailStatusFailed
			entry.ErrorMessage = utils.ToPtr(err.Error())
		}
		return entry, err
	}

	sentAt := utils.UTCNow()
	if err := logRepo.MarkSent(ctx, entry.ID, sentAt); err != nil {
		return entry, err
	}
	entry.Status = models.EmailStatusSent
	entry.SentAt = &sentAt

	return entry, nil
}
