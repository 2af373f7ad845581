package repository_test

import (
	"testing"
	"time"

	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	testingutil "github.com/avolkov/robocontest/testing"
	"github.com/avolkov/robocontest/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailingCampaignRepository(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := repository.NewMailingCampaignRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByUUID", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)

			found, err := repo.ByUUID(ctx, campaign.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, campaign.ID, found.ID)

			_, err = repo.ByUUID(ctx, "not-a-uuid")
			assert.Error(t, err)
		})

		t.Run("SetTotalRecipientsOnDraft", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)

			updated, err := repo.SetTotalRecipients(ctx, campaign.ID, 42)
			require.NoError(t, err)
			assert.True(t, updated)

			stored, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Equal(t, 42, stored.TotalRecipients)
		})

		t.Run("ConditionalWritesStopAfterFinalize", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)

			finalized, err := repo.FinalizeDispatch(ctx, campaign.ID, 7, 2, utils.UTCNow())
			require.NoError(t, err)
			require.True(t, finalized)

			stored, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.True(t, utils.IsTrue(stored.IsSent))
			assert.Equal(t, 7, stored.SentCount)
			assert.Equal(t, 2, stored.FailedCount)
			require.NotNil(t, stored.SentAt)

			// The flag flips once; later writers all lose the race
			finalized, err = repo.FinalizeDispatch(ctx, campaign.ID, 100, 100, utils.UTCNow())
			require.NoError(t, err)
			assert.False(t, finalized)

			updated, err := repo.SetTotalRecipients(ctx, campaign.ID, 999)
			require.NoError(t, err)
			assert.False(t, updated)

			deleted, err := repo.Delete(ctx, campaign.ID)
			require.NoError(t, err)
			assert.False(t, deleted)

			stored, err = repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, 7, stored.SentCount)
			assert.Equal(t, 2, stored.FailedCount)
		})

		t.Run("DeleteDraft", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)

			deleted, err := repo.Delete(ctx, campaign.ID)
			require.NoError(t, err)
			assert.True(t, deleted)

			stored, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Nil(t, stored)
		})

		t.Run("ListDueScheduled", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			now := time.Now().UTC()
			early, err := fixtures.CreateScheduledCampaign(models.MailingTargetAllTeams, now.Add(-2*time.Hour))
			require.NoError(t, err)
			late, err := fixtures.CreateScheduledCampaign(models.MailingTargetAllTeams, now.Add(-30*time.Minute))
			require.NoError(t, err)
			_, err = fixtures.CreateScheduledCampaign(models.MailingTargetAllTeams, now.Add(time.Hour))
			require.NoError(t, err)
			_, err = fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)

			// Already dispatched campaigns are past due but no longer eligible
			finished, err := fixtures.CreateScheduledCampaign(models.MailingTargetAllTeams, now.Add(-3*time.Hour))
			require.NoError(t, err)
			finalized, err := repo.FinalizeDispatch(ctx, finished.ID, 0, 0, utils.UTCNow())
			require.NoError(t, err)
			require.True(t, finalized)

			due, err := repo.ListDueScheduled(ctx, now, 10)
			require.NoError(t, err)
			require.Len(t, due, 2)
			assert.Equal(t, early.ID, due[0].ID)
			assert.Equal(t, late.ID, due[1].ID)
		})

		t.Run("ByFilterNewestFirst", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			first, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)
			second, err := fixtures.CreateTestCampaign(models.MailingTargetApprovedTeams, nil)
			require.NoError(t, err)

			campaigns, err := repo.ByFilter(ctx, models.MailingCampaignFilter{}, "created_at DESC, id DESC", 0, 0)
			require.NoError(t, err)
			require.Len(t, campaigns, 2)
			assert.Equal(t, second.ID, campaigns[0].ID)
			assert.Equal(t, first.ID, campaigns[1].ID)

			targetType := models.MailingTargetApprovedTeams
			campaigns, err = repo.ByFilter(ctx, models.MailingCampaignFilter{TargetType: &targetType}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, campaigns, 1)
			assert.Equal(t, second.ID, campaigns[0].ID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTeamRepositoryRecipients(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := repository.NewTeamRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		season, err := fixtures.CreateTestSeason(2026)
		require.NoError(t, err)
		otherSeason, err := fixtures.CreateTestSeason(2025)
		require.NoError(t, err)

		teams, err := fixtures.CreateTeamsWithEmails(season.ID, []string{
			"first@example.com", "second@example.com", "third@example.com",
		})
		require.NoError(t, err)
		pending, err := fixtures.CreateTestTeam(season.ID, models.TeamStatusPending, "pending@example.com")
		require.NoError(t, err)
		other, err := fixtures.CreateTestTeam(otherSeason.ID, models.TeamStatusApproved, "other@example.com")
		require.NoError(t, err)

		t.Run("NewestRegistrationsFirst", func(t *testing.T) {
			recipients, err := repo.ListRecipients(ctx, []models.TeamStatus{models.TeamStatusApproved}, &season.ID)
			require.NoError(t, err)
			require.Len(t, recipients, 3)
			assert.Equal(t, teams[2].ID, recipients[0].ID)
			assert.Equal(t, teams[1].ID, recipients[1].ID)
			assert.Equal(t, teams[0].ID, recipients[2].ID)
		})

		t.Run("NoStatusFilterSpansAllStatuses", func(t *testing.T) {
			recipients, err := repo.ListRecipients(ctx, nil, &season.ID)
			require.NoError(t, err)
			assert.Len(t, recipients, 4)
		})

		t.Run("NilSeasonSpansAllSeasons", func(t *testing.T) {
			recipients, err := repo.ListRecipients(ctx, []models.TeamStatus{models.TeamStatusApproved}, nil)
			require.NoError(t, err)
			require.Len(t, recipients, 4)
			// Ordering follows registration time, not season year, and the
			// 2025-season team registered most recently here
			assert.Equal(t, other.ID, recipients[0].ID)
		})

		t.Run("UpdateStatus", func(t *testing.T) {
			require.NoError(t, repo.UpdateStatus(ctx, pending.ID, models.TeamStatusApproved))

			stored, err := repo.ByID(ctx, pending.ID)
			require.NoError(t, err)
			assert.Equal(t, models.TeamStatusApproved, stored.Status)

			// Put it back so the sibling subtests keep their counts
			require.NoError(t, repo.UpdateStatus(ctx, pending.ID, models.TeamStatusPending))
		})

		t.Run("BySeasonAndName", func(t *testing.T) {
			found, err := repo.BySeasonAndName(ctx, season.ID, teams[0].Name)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, teams[0].ID, found.ID)

			missing, err := repo.BySeasonAndName(ctx, season.ID, "No Such Team")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("CountBySeason", func(t *testing.T) {
			count, err := repo.CountBySeason(ctx, season.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(4), count)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestEmailLogRepository(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := repository.NewEmailLogRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("MarkSent", func(t *testing.T) {
			entry, err := fixtures.CreateTestEmailLog(nil, "pending@example.com", models.EmailStatusPending)
			require.NoError(t, err)

			sentAt := utils.UTCNow()
			require.NoError(t, repo.MarkSent(ctx, entry.ID, sentAt))

			stored, err := repo.ByID(ctx, entry.ID)
			require.NoError(t, err)
			assert.Equal(t, models.EmailStatusSent, stored.Status)
			require.NotNil(t, stored.SentAt)
			assert.WithinDuration(t, sentAt, *stored.SentAt, time.Second)
			assert.Nil(t, stored.ErrorMessage)
		})

		t.Run("MarkFailed", func(t *testing.T) {
			entry, err := fixtures.CreateTestEmailLog(nil, "bounce@example.com", models.EmailStatusPending)
			require.NoError(t, err)

			require.NoError(t, repo.MarkFailed(ctx, entry.ID, "smtp: mailbox full"))

			stored, err := repo.ByID(ctx, entry.ID)
			require.NoError(t, err)
			assert.Equal(t, models.EmailStatusFailed, stored.Status)
			require.NotNil(t, stored.ErrorMessage)
			assert.Equal(t, "smtp: mailbox full", *stored.ErrorMessage)
		})

		t.Run("SentRecordsAreNeverDowngraded", func(t *testing.T) {
			entry, err := fixtures.CreateTestEmailLog(nil, "done@example.com", models.EmailStatusSent)
			require.NoError(t, err)

			require.NoError(t, repo.MarkFailed(ctx, entry.ID, "late failure report"))

			stored, err := repo.ByID(ctx, entry.ID)
			require.NoError(t, err)
			assert.Equal(t, models.EmailStatusSent, stored.Status)
			assert.Nil(t, stored.ErrorMessage)
		})

		t.Run("IncrementRetry", func(t *testing.T) {
			entry, err := fixtures.CreateTestEmailLog(nil, "retry@example.com", models.EmailStatusFailed)
			require.NoError(t, err)

			require.NoError(t, repo.IncrementRetry(ctx, entry.ID))
			require.NoError(t, repo.IncrementRetry(ctx, entry.ID))

			stored, err := repo.ByID(ctx, entry.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, stored.RetryCount)
		})

		t.Run("ListByCampaignInInsertionOrder", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)
			otherCampaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)

			var ids []uint
			for _, address := range []string{"a@example.com", "b@example.com", "c@example.com"} {
				entry, err := fixtures.CreateTestEmailLog(&campaign.ID, address, models.EmailStatusSent)
				require.NoError(t, err)
				ids = append(ids, entry.ID)
			}
			_, err = fixtures.CreateTestEmailLog(&otherCampaign.ID, "elsewhere@example.com", models.EmailStatusSent)
			require.NoError(t, err)

			logs, err := repo.ListByCampaign(ctx, campaign.ID, 10, 0)
			require.NoError(t, err)
			require.Len(t, logs, 3)
			for i, entry := range logs {
				assert.Equal(t, ids[i], entry.ID)
			}
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdminRepository(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := repository.NewAdminRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		admin, err := fixtures.CreateTestAdmin(models.AdminRoleAdmin)
		require.NoError(t, err)

		t.Run("ByEmail", func(t *testing.T) {
			found, err := repo.ByEmail(ctx, admin.Email)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, admin.ID, found.ID)

			missing, err := repo.ByEmail(ctx, "nobody@example.com")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("UpdateLastLogin", func(t *testing.T) {
			require.Nil(t, admin.LastLoginAt)

			loginAt := utils.UTCNow()
			require.NoError(t, repo.UpdateLastLogin(ctx, admin.ID, loginAt))

			stored, err := repo.ByID(ctx, admin.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.LastLoginAt)
			assert.WithinDuration(t, loginAt, *stored.LastLoginAt, time.Second)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSeasonRepository(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := repository.NewSeasonRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		older, err := fixtures.CreateCurrentSeason(2025)
		require.NoError(t, err)
		newer, err := fixtures.CreateCurrentSeason(2026)
		require.NoError(t, err)

		t.Run("ByYear", func(t *testing.T) {
			found, err := repo.ByYear(ctx, 2025)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, older.ID, found.ID)

			missing, err := repo.ByYear(ctx, 1999)
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("CurrentPrefersLatestYear", func(t *testing.T) {
			current, err := repo.Current(ctx)
			require.NoError(t, err)
			require.NotNil(t, current)
			assert.Equal(t, newer.ID, current.ID)
		})

		t.Run("ClearCurrentKeepsOnlyTheException", func(t *testing.T) {
			require.NoError(t, repo.ClearCurrent(ctx, older.ID))

			current, err := repo.Current(ctx)
			require.NoError(t, err)
			require.NotNil(t, current)
			assert.Equal(t, older.ID, current.ID)

			stored, err := repo.ByID(ctx, newer.ID)
			require.NoError(t, err)
			assert.False(t, utils.IsTrue(stored.IsCurrent))
		})

		return nil
	})
	require.NoError(t, err)
}
