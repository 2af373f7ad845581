package businessflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/avolkov/robocontest/app/dto"
	businessflow "github.com/avolkov/robocontest/business_flow"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	testingutil "github.com/avolkov/robocontest/testing"
	"github.com/avolkov/robocontest/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDispatcher satisfies CampaignDispatcher without spinning up the
// background pipeline, so flow tests stay synchronous.
type stubDispatcher struct {
	receipt *businessflow.DispatchReceipt
	err     error
	calls   []uint
}

func (s *stubDispatcher) Dispatch(ctx context.Context, campaignID uint, triggeredBy *uint) (*businessflow.DispatchReceipt, error) {
	s.calls = append(s.calls, campaignID)
	if s.err != nil {
		return nil, s.err
	}
	return s.receipt, nil
}

func newCampaignFlow(testDB *testingutil.TestDB, dispatcher businessflow.CampaignDispatcher) businessflow.MailingCampaignFlow {
	campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
	seasonRepo := repository.NewSeasonRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	teamRepo := repository.NewTeamRepository(testDB.DB)
	resolver := businessflow.NewRecipientResolver(teamRepo)

	return businessflow.NewMailingCampaignFlow(campaignRepo, seasonRepo, auditRepo, resolver, dispatcher, testDB.DB)
}

func TestCreateMailingCampaign(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
		flow := newCampaignFlow(testDB, &stubDispatcher{})
		ctx := testingutil.CreateTestContext()

		admin, err := fixtures.CreateTestAdmin(models.AdminRoleAdmin)
		require.NoError(t, err)

		t.Run("DraftWithCustomEmails", func(t *testing.T) {
			resp, err := flow.Create(ctx, &dto.CreateMailingCampaignRequest{
				AdminID:      admin.ID,
				Name:         "Kickoff announcement",
				Subject:      "Season kickoff",
				Body:         "The new season starts next month.",
				TargetType:   "custom_emails",
				CustomEmails: []string{"a@example.com", "b@example.com", "a@example.com"},
			}, nil)
			require.NoError(t, err)
			require.NotNil(t, resp)

			// The duplicate address counts once
			assert.Equal(t, 2, resp.Campaign.TotalRecipients)
			assert.False(t, utils.IsTrue(resp.Campaign.IsSent))

			stored, err := campaignRepo.ByID(ctx, resp.Campaign.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, models.MailingTargetCustomEmails, stored.TargetType)
			assert.ElementsMatch(t, []string{"a@example.com", "b@example.com", "a@example.com"}, []string(stored.CustomEmails))
			assert.Equal(t, 2, stored.TotalRecipients)
			assert.False(t, utils.IsTrue(stored.IsSent))
			assert.Nil(t, stored.SentAt)
		})

		t.Run("DraftTargetingApprovedTeams", func(t *testing.T) {
			season, err := fixtures.CreateTestSeason(2026)
			require.NoError(t, err)
			_, err = fixtures.CreateTeamsWithEmails(season.ID, []string{"t1@example.com", "t2@example.com"})
			require.NoError(t, err)

			resp, err := flow.Create(ctx, &dto.CreateMailingCampaignRequest{
				AdminID:        admin.ID,
				Name:           "Approved teams briefing",
				Subject:        "Briefing",
				Body:           "Venue details inside.",
				TargetType:     "approved_teams",
				TargetSeasonID: &season.ID,
			}, nil)
			require.NoError(t, err)
			assert.Equal(t, 2, resp.Campaign.TotalRecipients)
		})

		t.Run("RejectsUnknownTargetType", func(t *testing.T) {
			_, err := flow.Create(ctx, &dto.CreateMailingCampaignRequest{
				AdminID:    admin.ID,
				Name:       "Bad targeting",
				Subject:    "x",
				Body:       "y",
				TargetType: "everyone",
			}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrUnknownTargetType)
		})

		t.Run("RejectsEmptyCustomEmailList", func(t *testing.T) {
			_, err := flow.Create(ctx, &dto.CreateMailingCampaignRequest{
				AdminID:    admin.ID,
				Name:       "No recipients",
				Subject:    "x",
				Body:       "y",
				TargetType: "custom_emails",
			}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrCustomEmailsRequired)
		})

		t.Run("RejectsScheduleInPast", func(t *testing.T) {
			past := time.Now().UTC().Add(-time.Hour)
			_, err := flow.Create(ctx, &dto.CreateMailingCampaignRequest{
				AdminID:      admin.ID,
				Name:         "Late schedule",
				Subject:      "x",
				Body:         "y",
				TargetType:   "custom_emails",
				CustomEmails: []string{"a@example.com"},
				ScheduledAt:  &past,
			}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrScheduledAtInPast)
		})

		t.Run("RejectsMissingSeason", func(t *testing.T) {
			missing := uint(999999)
			_, err := flow.Create(ctx, &dto.CreateMailingCampaignRequest{
				AdminID:        admin.ID,
				Name:           "Ghost season",
				Subject:        "x",
				Body:           "y",
				TargetType:     "all_teams",
				TargetSeasonID: &missing,
			}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrSeasonNotFound)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListMailingCampaigns(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newCampaignFlow(testDB, &stubDispatcher{})
		ctx := testingutil.CreateTestContext()

		first, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
		require.NoError(t, err)
		second, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
		require.NoError(t, err)
		third, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
		require.NoError(t, err)

		t.Run("NewestFirstWithPagination", func(t *testing.T) {
			resp, err := flow.List(ctx, &dto.ListMailingCampaignsRequest{Page: 1, Limit: 2}, nil)
			require.NoError(t, err)
			require.Len(t, resp.Items, 2)
			assert.Equal(t, third.ID, resp.Items[0].ID)
			assert.Equal(t, second.ID, resp.Items[1].ID)
			assert.Equal(t, int64(3), resp.Pagination.Total)
			assert.Equal(t, 2, resp.Pagination.TotalPages)

			resp, err = flow.List(ctx, &dto.ListMailingCampaignsRequest{Page: 2, Limit: 2}, nil)
			require.NoError(t, err)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, first.ID, resp.Items[0].ID)
		})

		t.Run("FilterByIsSent", func(t *testing.T) {
			campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
			finalized, err := campaignRepo.FinalizeDispatch(ctx, first.ID, 0, 0, utils.UTCNow())
			require.NoError(t, err)
			require.True(t, finalized)

			resp, err := flow.List(ctx, &dto.ListMailingCampaignsRequest{
				Page:   1,
				Limit:  10,
				Filter: &dto.ListMailingCampaignsFilter{IsSent: utils.ToPtr(true)},
			}, nil)
			require.NoError(t, err)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, first.ID, resp.Items[0].ID)
			assert.True(t, utils.IsTrue(resp.Items[0].IsSent))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDeleteMailingCampaign(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
		flow := newCampaignFlow(testDB, &stubDispatcher{})
		ctx := testingutil.CreateTestContext()

		admin, err := fixtures.CreateTestAdmin(models.AdminRoleAdmin)
		require.NoError(t, err)

		t.Run("DraftCanBeDeleted", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)

			require.NoError(t, flow.Delete(ctx, campaign.ID, admin.ID, nil))

			stored, err := campaignRepo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Nil(t, stored)
		})

		t.Run("SentCampaignIsRejected", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)

			finalized, err := campaignRepo.FinalizeDispatch(ctx, campaign.ID, 3, 0, utils.UTCNow())
			require.NoError(t, err)
			require.True(t, finalized)

			err = flow.Delete(ctx, campaign.ID, admin.ID, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrCampaignNotDeletable)

			// The sent campaign stays for the audit trail
			stored, err := campaignRepo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.True(t, utils.IsTrue(stored.IsSent))
		})

		t.Run("MissingCampaignIsRejected", func(t *testing.T) {
			err := flow.Delete(ctx, 999999, admin.ID, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrCampaignNotFound)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDispatchMailingCampaignFlow(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		admin, err := fixtures.CreateTestAdmin(models.AdminRoleAdmin)
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
		require.NoError(t, err)

		t.Run("DelegatesToDispatcher", func(t *testing.T) {
			dispatcher := &stubDispatcher{
				receipt: &businessflow.DispatchReceipt{CampaignID: campaign.ID, TotalRecipients: 7},
			}
			flow := newCampaignFlow(testDB, dispatcher)

			resp, err := flow.Dispatch(ctx, &dto.DispatchCampaignRequest{
				CampaignID: campaign.ID,
				AdminID:    admin.ID,
			}, nil)
			require.NoError(t, err)
			assert.Equal(t, []uint{campaign.ID}, dispatcher.calls)
			assert.Equal(t, campaign.ID, resp.Receipt.CampaignID)
			assert.Equal(t, 7, resp.Receipt.TotalRecipients)
			assert.Equal(t, "queued", resp.Receipt.Status)

			action := models.AuditActionCampaignDispatched
			audits, err := auditRepo.ByFilter(ctx, models.AuditLogFilter{
				AdminID: &admin.ID,
				Action:  &action,
			}, "", 0, 0)
			require.NoError(t, err)
			require.NotEmpty(t, audits)
			assert.True(t, utils.IsTrue(audits[len(audits)-1].Success))
		})

		t.Run("BubblesDispatcherRejection", func(t *testing.T) {
			dispatcher := &stubDispatcher{err: businessflow.ErrCampaignAlreadySent}
			flow := newCampaignFlow(testDB, dispatcher)

			_, err := flow.Dispatch(ctx, &dto.DispatchCampaignRequest{
				CampaignID: campaign.ID,
				AdminID:    admin.ID,
			}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrCampaignAlreadySent)
		})

		return nil
	})
	require.NoError(t, err)
}
