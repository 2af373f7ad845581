package businessflow_test

import (
	"errors"
	"testing"

	"github.com/avolkov/robocontest/app/dto"
	"github.com/avolkov/robocontest/app/services"
	businessflow "github.com/avolkov/robocontest/business_flow"
	"github.com/avolkov/robocontest/config"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	testingutil "github.com/avolkov/robocontest/testing"
	"github.com/avolkov/robocontest/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmailLogFlow(testDB *testingutil.TestDB, mailer services.Mailer) businessflow.EmailLogFlow {
	emailLogRepo := repository.NewEmailLogRepository(testDB.DB)
	campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
	teamRepo := repository.NewTeamRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	resolver := businessflow.NewRecipientResolver(teamRepo)
	cacheCfg := &config.CacheConfig{RedisPrefix: "robocontest-test:"}

	return businessflow.NewEmailLogFlow(emailLogRepo, campaignRepo, teamRepo, auditRepo, resolver, mailer, nil, cacheCfg, testDB.DB)
}

func TestListEmailLogs(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newEmailLogFlow(testDB, services.NewMockMailer())
		ctx := testingutil.CreateTestContext()

		campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
		require.NoError(t, err)

		first, err := fixtures.CreateTestEmailLog(&campaign.ID, "one@example.com", models.EmailStatusSent)
		require.NoError(t, err)
		second, err := fixtures.CreateTestEmailLog(&campaign.ID, "two@example.com", models.EmailStatusFailed)
		require.NoError(t, err)
		_, err = fixtures.CreateTestEmailLog(nil, "standalone@example.com", models.EmailStatusSent)
		require.NoError(t, err)

		t.Run("NewestFirst", func(t *testing.T) {
			resp, err := flow.List(ctx, &dto.ListEmailLogsRequest{Page: 1, Limit: 10}, nil)
			require.NoError(t, err)
			require.Len(t, resp.Items, 3)
			assert.Equal(t, "standalone@example.com", resp.Items[0].ToEmail)
			assert.Equal(t, int64(3), resp.Pagination.Total)
		})

		t.Run("FilterByCampaign", func(t *testing.T) {
			resp, err := flow.List(ctx, &dto.ListEmailLogsRequest{
				Page:   1,
				Limit:  10,
				Filter: &dto.ListEmailLogsFilter{CampaignID: &campaign.ID},
			}, nil)
			require.NoError(t, err)
			require.Len(t, resp.Items, 2)

			ids := []uint{resp.Items[0].ID, resp.Items[1].ID}
			assert.Contains(t, ids, first.ID)
			assert.Contains(t, ids, second.ID)
		})

		t.Run("FilterByStatus", func(t *testing.T) {
			status := "failed"
			resp, err := flow.List(ctx, &dto.ListEmailLogsRequest{
				Page:   1,
				Limit:  10,
				Filter: &dto.ListEmailLogsFilter{Status: &status},
			}, nil)
			require.NoError(t, err)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, second.ID, resp.Items[0].ID)
			require.NotNil(t, resp.Items[0].ErrorMessage)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestEmailStats(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newEmailLogFlow(testDB, services.NewMockMailer())
		ctx := testingutil.CreateTestContext()

		campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
		require.NoError(t, err)

		_, err = fixtures.CreateTestEmailLog(&campaign.ID, "a@example.com", models.EmailStatusSent)
		require.NoError(t, err)
		_, err = fixtures.CreateTestEmailLog(&campaign.ID, "b@example.com", models.EmailStatusSent)
		require.NoError(t, err)
		_, err = fixtures.CreateTestEmailLog(&campaign.ID, "c@example.com", models.EmailStatusFailed)
		require.NoError(t, err)
		_, err = fixtures.CreateTestEmailLog(nil, "d@example.com", models.EmailStatusPending)
		require.NoError(t, err)

		stats, err := flow.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), stats.Total)
		assert.Equal(t, int64(2), stats.Sent)
		assert.Equal(t, int64(1), stats.Failed)
		assert.Equal(t, int64(1), stats.Pending)
		assert.Equal(t, int64(4), stats.ByType[string(models.EmailTypeMassMailing)])

		return nil
	})
	require.NoError(t, err)
}

func TestPreviewRecipients(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newEmailLogFlow(testDB, services.NewMockMailer())
		ctx := testingutil.CreateTestContext()

		season, err := fixtures.CreateTestSeason(2026)
		require.NoError(t, err)
		_, err = fixtures.CreateTeamsWithEmails(season.ID, []string{
			"one@example.com", "two@example.com", "three@example.com",
		})
		require.NoError(t, err)

		t.Run("ReportsSelectionAndTotal", func(t *testing.T) {
			resp, err := flow.PreviewRecipients(ctx, &dto.PreviewRecipientsRequest{
				TargetType:      "approved_teams",
				TargetSeasonID:  &season.ID,
				RecipientsLimit: utils.ToPtr(2),
			})
			require.NoError(t, err)
			assert.Equal(t, 3, resp.TotalAvailable)
			assert.Equal(t, 2, resp.SelectedCount)
			assert.Len(t, resp.Recipients, 2)
		})

		t.Run("RejectsUnknownTarget", func(t *testing.T) {
			_, err := flow.PreviewRecipients(ctx, &dto.PreviewRecipientsRequest{TargetType: "everyone"})
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrUnknownTargetType)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListTeamEmails(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newEmailLogFlow(testDB, services.NewMockMailer())
		ctx := testingutil.CreateTestContext()

		season, err := fixtures.CreateTestSeason(2026)
		require.NoError(t, err)
		teams, err := fixtures.CreateTeamsWithEmails(season.ID, []string{"a@example.com", "b@example.com"})
		require.NoError(t, err)

		resp, err := flow.ListTeamEmails(ctx)
		require.NoError(t, err)
		require.Len(t, resp.Items, 2)

		// Newest registration first
		assert.Equal(t, teams[1].ID, resp.Items[0].ID)
		assert.Equal(t, "b@example.com", resp.Items[0].Email)

		return nil
	})
	require.NoError(t, err)
}

func TestSendCustomEmail(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		emailLogRepo := repository.NewEmailLogRepository(testDB.DB)
		mailer := services.NewMockMailer()
		flow := newEmailLogFlow(testDB, mailer)
		ctx := testingutil.CreateTestContext()

		admin, err := fixtures.CreateTestAdmin(models.AdminRoleAdmin)
		require.NoError(t, err)

		t.Run("PartialFailureStillDeliversTheRest", func(t *testing.T) {
			mailer.FailFor("broken@example.com", errors.New("smtp: mailbox unavailable"))

			resp, err := flow.SendCustom(ctx, &dto.SendCustomEmailRequest{
				AdminID: admin.ID,
				Emails:  []string{"ok@example.com", "broken@example.com", "ok@example.com"},
				Subject: "Heads up",
				Body:    "Schedule change for Saturday.",
			}, nil)
			require.NoError(t, err)
			assert.Equal(t, 1, resp.Sent)
			assert.Equal(t, 1, resp.Failed)

			// Every attempt leaves a delivery record, the duplicate does not
			emailType := models.EmailTypeCustom
			logs, err := emailLogRepo.ByFilter(ctx, models.EmailLogFilter{EmailType: &emailType}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, logs, 2)

			byAddress := map[string]models.EmailStatus{}
			for _, entry := range logs {
				byAddress[entry.ToEmail] = entry.Status
			}
			assert.Equal(t, models.EmailStatusSent, byAddress["ok@example.com"])
			assert.Equal(t, models.EmailStatusFailed, byAddress["broken@example.com"])

			require.Len(t, mailer.GetSentMails(), 1)
			assert.Equal(t, "ok@example.com", mailer.GetSentMails()[0].To)
		})

		t.Run("RejectsEmptyList", func(t *testing.T) {
			_, err := flow.SendCustom(ctx, &dto.SendCustomEmailRequest{
				AdminID: admin.ID,
				Emails:  []string{"   "},
				Subject: "x",
				Body:    "y",
			}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrCustomEmailsRequired)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestResendEmail(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		emailLogRepo := repository.NewEmailLogRepository(testDB.DB)
		mailer := services.NewMockMailer()
		flow := newEmailLogFlow(testDB, mailer)
		ctx := testingutil.CreateTestContext()

		admin, err := fixtures.CreateTestAdmin(models.AdminRoleAdmin)
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
		require.NoError(t, err)

		t.Run("AppendsFreshRecordAndKeepsOriginal", func(t *testing.T) {
			original, err := fixtures.CreateTestEmailLog(&campaign.ID, "retry@example.com", models.EmailStatusFailed)
			require.NoError(t, err)

			resp, err := flow.Resend(ctx, &dto.ResendEmailRequest{
				EmailLogID: original.ID,
				AdminID:    admin.ID,
			}, nil)
			require.NoError(t, err)

			// The new attempt is its own record
			assert.NotEqual(t, original.ID, resp.Log.ID)
			assert.Equal(t, "retry@example.com", resp.Log.ToEmail)
			assert.Equal(t, string(models.EmailStatusSent), resp.Log.Status)
			require.NotNil(t, resp.Log.CampaignID)
			assert.Equal(t, campaign.ID, *resp.Log.CampaignID)

			// The original stays failed with a bumped retry counter
			stored, err := emailLogRepo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, models.EmailStatusFailed, stored.Status)
			assert.Equal(t, 1, stored.RetryCount)

			// The campaign body travels with the resend
			require.Len(t, mailer.GetSentMails(), 1)
			assert.Equal(t, campaign.Body, mailer.GetSentMails()[0].Body)
		})

		t.Run("MissingRecordIsRejected", func(t *testing.T) {
			_, err := flow.Resend(ctx, &dto.ResendEmailRequest{EmailLogID: 999999, AdminID: admin.ID}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrEmailLogNotFound)
		})

		return nil
	})
	require.NoError(t, err)
}
