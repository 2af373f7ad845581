package models_test

import (
	"testing"
	"time"

	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    models.TeamStatus
		to      models.TeamStatus
		allowed bool
	}{
		{"pending to approved", models.TeamStatusPending, models.TeamStatusApproved, true},
		{"pending to rejected", models.TeamStatusPending, models.TeamStatusRejected, true},
		{"pending to withdrawn", models.TeamStatusPending, models.TeamStatusWithdrawn, true},
		{"approved to withdrawn", models.TeamStatusApproved, models.TeamStatusWithdrawn, true},
		{"approved to rejected", models.TeamStatusApproved, models.TeamStatusRejected, true},
		{"approved to pending", models.TeamStatusApproved, models.TeamStatusPending, false},
		{"rejected to approved", models.TeamStatusRejected, models.TeamStatusApproved, true},
		{"rejected to pending", models.TeamStatusRejected, models.TeamStatusPending, false},
		{"withdrawn is terminal", models.TeamStatusWithdrawn, models.TeamStatusApproved, false},
		{"same status is a no-op", models.TeamStatusPending, models.TeamStatusPending, false},
		{"invalid target status", models.TeamStatusPending, models.TeamStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team := &models.Team{Status: tt.from}
			assert.Equal(t, tt.allowed, team.CanTransitionTo(tt.to))
		})
	}
}

func TestTeamStatusValues(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.True(t, models.TeamStatusPending.Valid())
		assert.True(t, models.TeamStatusApproved.Valid())
		assert.True(t, models.TeamStatusRejected.Valid())
		assert.True(t, models.TeamStatusWithdrawn.Valid())
		assert.False(t, models.TeamStatus("disqualified").Valid())
		assert.False(t, models.TeamStatus("").Valid())
	})

	t.Run("Value", func(t *testing.T) {
		v, err := models.TeamStatusApproved.Value()
		require.NoError(t, err)
		assert.Equal(t, "approved", v)

		_, err = models.TeamStatus("bogus").Value()
		assert.Error(t, err)
	})

	t.Run("Scan", func(t *testing.T) {
		var status models.TeamStatus
		require.NoError(t, status.Scan("pending"))
		assert.Equal(t, models.TeamStatusPending, status)

		require.NoError(t, status.Scan([]byte("approved")))
		assert.Equal(t, models.TeamStatusApproved, status)

		require.NoError(t, status.Scan(nil))
		assert.Equal(t, models.TeamStatus(""), status)

		assert.Error(t, status.Scan(42))
	})
}

func TestMailingTargetType(t *testing.T) {
	assert.True(t, models.MailingTargetAllTeams.Valid())
	assert.True(t, models.MailingTargetApprovedTeams.Valid())
	assert.True(t, models.MailingTargetPendingTeams.Valid())
	assert.True(t, models.MailingTargetCustomEmails.Valid())
	assert.False(t, models.MailingTargetType("everyone").Valid())

	v, err := models.MailingTargetCustomEmails.Value()
	require.NoError(t, err)
	assert.Equal(t, "custom_emails", v)

	_, err = models.MailingTargetType("everyone").Value()
	assert.Error(t, err)
}

func TestEmailStatus(t *testing.T) {
	assert.True(t, models.EmailStatusPending.Valid())
	assert.True(t, models.EmailStatusSent.Valid())
	assert.True(t, models.EmailStatusFailed.Valid())
	assert.False(t, models.EmailStatus("bounced").Valid())

	assert.False(t, models.EmailStatusPending.IsTerminal())
	assert.True(t, models.EmailStatusSent.IsTerminal())
	assert.True(t, models.EmailStatusFailed.IsTerminal())
}

func TestEmailLogOutcome(t *testing.T) {
	sent := &models.EmailLog{Status: models.EmailStatusSent}
	assert.True(t, sent.IsSent())
	assert.False(t, sent.IsFailed())

	failed := &models.EmailLog{Status: models.EmailStatusFailed}
	assert.False(t, failed.IsSent())
	assert.True(t, failed.IsFailed())

	pending := &models.EmailLog{Status: models.EmailStatusPending}
	assert.False(t, pending.IsSent())
	assert.False(t, pending.IsFailed())
}

func TestMailingCampaignGuards(t *testing.T) {
	t.Run("DraftIsEditableAndDeletable", func(t *testing.T) {
		campaign := &models.MailingCampaign{IsSent: utils.ToPtr(false)}
		assert.True(t, campaign.IsEditable())
		assert.True(t, campaign.IsDeletable())
	})

	t.Run("SentCampaignIsImmutable", func(t *testing.T) {
		campaign := &models.MailingCampaign{IsSent: utils.ToPtr(true)}
		assert.False(t, campaign.IsEditable())
		assert.False(t, campaign.IsDeletable())
	})

	t.Run("NilIsSentCountsAsDraft", func(t *testing.T) {
		campaign := &models.MailingCampaign{}
		assert.True(t, campaign.IsEditable())
		assert.True(t, campaign.IsDeletable())
	})
}

func TestMailingCampaignIsDue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("ScheduledInPastIsDue", func(t *testing.T) {
		campaign := &models.MailingCampaign{
			IsScheduled: utils.ToPtr(true),
			ScheduledAt: &past,
			IsSent:      utils.ToPtr(false),
		}
		assert.True(t, campaign.IsDue(now))
	})

	t.Run("ScheduledInFutureIsNotDue", func(t *testing.T) {
		campaign := &models.MailingCampaign{
			IsScheduled: utils.ToPtr(true),
			ScheduledAt: &future,
			IsSent:      utils.ToPtr(false),
		}
		assert.False(t, campaign.IsDue(now))
	})

	t.Run("SentCampaignIsNeverDue", func(t *testing.T) {
		campaign := &models.MailingCampaign{
			IsScheduled: utils.ToPtr(true),
			ScheduledAt: &past,
			IsSent:      utils.ToPtr(true),
		}
		assert.False(t, campaign.IsDue(now))
	})

	t.Run("UnscheduledCampaignIsNeverDue", func(t *testing.T) {
		campaign := &models.MailingCampaign{
			IsScheduled: utils.ToPtr(false),
			ScheduledAt: &past,
			IsSent:      utils.ToPtr(false),
		}
		assert.False(t, campaign.IsDue(now))

		campaign = &models.MailingCampaign{
			IsScheduled: utils.ToPtr(true),
			IsSent:      utils.ToPtr(false),
		}
		assert.False(t, campaign.IsDue(now))
	})
}

func TestSeasonAcceptsRegistrations(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	t.Run("OpenWithoutWindow", func(t *testing.T) {
		season := &models.Season{RegistrationOpen: utils.ToPtr(true)}
		assert.True(t, season.AcceptsRegistrations())
	})

	t.Run("Closed", func(t *testing.T) {
		season := &models.Season{RegistrationOpen: utils.ToPtr(false)}
		assert.False(t, season.AcceptsRegistrations())

		season = &models.Season{}
		assert.False(t, season.AcceptsRegistrations())
	})

	t.Run("InsideWindow", func(t *testing.T) {
		season := &models.Season{
			RegistrationOpen:  utils.ToPtr(true),
			RegistrationStart: &past,
			RegistrationEnd:   &future,
		}
		assert.True(t, season.AcceptsRegistrations())
	})

	t.Run("BeforeWindow", func(t *testing.T) {
		season := &models.Season{
			RegistrationOpen:  utils.ToPtr(true),
			RegistrationStart: &future,
		}
		assert.False(t, season.AcceptsRegistrations())
	})

	t.Run("AfterWindow", func(t *testing.T) {
		season := &models.Season{
			RegistrationOpen: utils.ToPtr(true),
			RegistrationEnd:  &past,
		}
		assert.False(t, season.AcceptsRegistrations())
	})
}

func TestEmailType(t *testing.T) {
	assert.True(t, models.EmailTypeRegistrationConfirmation.Valid())
	assert.True(t, models.EmailTypeContactNotification.Valid())
	assert.True(t, models.EmailTypeMassMailing.Valid())
	assert.True(t, models.EmailTypeTeamStatusUpdate.Valid())
	assert.True(t, models.EmailTypeCustom.Valid())
	assert.False(t, models.EmailType("newsletter").Valid())
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "admins", models.Admin{}.TableName())
	assert.Equal(t, "admin_sessions", models.AdminSession{}.TableName())
	assert.Equal(t, "audit_log", models.AuditLog{}.TableName())
	assert.Equal(t, "seasons", models.Season{}.TableName())
	assert.Equal(t, "teams", models.Team{}.TableName())
	assert.Equal(t, "contact_messages", models.ContactMessage{}.TableName())
	assert.Equal(t, "mailing_campaigns", models.MailingCampaign{}.TableName())
	assert.Equal(t, "email_logs", models.EmailLog{}.TableName())
}
