package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/avolkov/robocontest/app/scheduler"
	"github.com/avolkov/robocontest/app/services"
	businessflow "github.com/avolkov/robocontest/business_flow"
	"github.com/avolkov/robocontest/config"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	testingutil "github.com/avolkov/robocontest/testing"
	"github.com/avolkov/robocontest/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDispatcher wires a dispatcher against the test database. Most
// tests pass a nil redis client, leaving the conditional recipient-total
// write as the only guard against concurrent triggers.
func newTestDispatcher(testDB *testingutil.TestDB, mailer services.Mailer, rc *redis.Client, cfg config.MailingConfig) *scheduler.MailDispatcher {
	campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
	emailLogRepo := repository.NewEmailLogRepository(testDB.DB)
	resolver := businessflow.NewRecipientResolver(repository.NewTeamRepository(testDB.DB))

	return scheduler.NewMailDispatcher(campaignRepo, emailLogRepo, resolver, mailer, rc, cfg, config.CacheConfig{
		RedisPrefix: "robocontest-test:",
	})
}

// dispatcherTestConfig keeps the scheduler ticker quiet for an hour; the
// due-campaign sweep still runs once on Start.
func dispatcherTestConfig() config.MailingConfig {
	return config.MailingConfig{
		WorkerCount:       2,
		QueueSize:         4,
		SendConcurrency:   2,
		DispatchLockTTL:   time.Minute,
		SchedulerInterval: time.Hour,
	}
}

// waitForFinalize polls until the campaign is marked sent and returns the
// finalized row. Delivery runs on background workers, so tests observe the
// outcome through the store rather than through return values.
func waitForFinalize(t *testing.T, campaignRepo repository.MailingCampaignRepository, campaignID uint) *models.MailingCampaign {
	t.Helper()

	var finalized *models.MailingCampaign
	require.Eventually(t, func() bool {
		stored, err := campaignRepo.ByID(context.Background(), campaignID)
		if err != nil || stored == nil || !utils.IsTrue(stored.IsSent) {
			return false
		}
		finalized = stored
		return true
	}, 5*time.Second, 25*time.Millisecond, "campaign %d was never finalized", campaignID)

	return finalized
}

func TestDispatchDeliversWithPartialFailure(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
		emailLogRepo := repository.NewEmailLogRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		admin, err := fixtures.CreateTestAdmin(models.AdminRoleAdmin)
		require.NoError(t, err)
		season, err := fixtures.CreateTestSeason(2026)
		require.NoError(t, err)
		_, err = fixtures.CreateTeamsWithEmails(season.ID, []string{
			"one@example.com", "two@example.com", "three@example.com",
		})
		require.NoError(t, err)

		mailer := services.NewMockMailer()
		mailer.FailFor("two@example.com", errors.New("smtp: mailbox unavailable"))

		d := newTestDispatcher(testDB, mailer, nil, dispatcherTestConfig())
		stop := d.Start(context.Background())
		defer stop()

		campaign, err := fixtures.CreateTestCampaign(models.MailingTargetApprovedTeams, &season.ID)
		require.NoError(t, err)

		receipt, err := d.Dispatch(ctx, campaign.ID, &admin.ID)
		require.NoError(t, err)
		assert.Equal(t, campaign.ID, receipt.CampaignID)
		assert.Equal(t, 3, receipt.TotalRecipients)

		finalized := waitForFinalize(t, campaignRepo, campaign.ID)
		assert.Equal(t, 3, finalized.TotalRecipients)
		assert.Equal(t, 2, finalized.SentCount)
		assert.Equal(t, 1, finalized.FailedCount)
		require.NotNil(t, finalized.SentAt)

		// The failing mailbox never blocks the other deliveries, and every
		// attempt leaves a record either way.
		logs, err := emailLogRepo.ListByCampaign(ctx, campaign.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, logs, 3)

		byAddress := make(map[string]*models.EmailLog, len(logs))
		for _, entry := range logs {
			byAddress[entry.ToEmail] = entry
			assert.Equal(t, models.EmailTypeMassMailing, entry.EmailType)
			require.NotNil(t, entry.SentBy)
			assert.Equal(t, admin.ID, *entry.SentBy)
			assert.NotNil(t, entry.TeamID)
		}

		require.Contains(t, byAddress, "two@example.com")
		failed := byAddress["two@example.com"]
		assert.Equal(t, models.EmailStatusFailed, failed.Status)
		require.NotNil(t, failed.ErrorMessage)
		assert.Contains(t, *failed.ErrorMessage, "mailbox unavailable")
		assert.Nil(t, failed.SentAt)

		for _, address := range []string{"one@example.com", "three@example.com"} {
			require.Contains(t, byAddress, address)
			assert.Equal(t, models.EmailStatusSent, byAddress[address].Status)
			assert.NotNil(t, byAddress[address].SentAt)
		}

		assert.Len(t, mailer.GetSentMails(), 2)

		return nil
	})
	require.NoError(t, err)
}

func TestDispatchEmptyAudienceFinalizesImmediately(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
		emailLogRepo := repository.NewEmailLogRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		// A season with no approved teams resolves to nobody
		season, err := fixtures.CreateTestSeason(2026)
		require.NoError(t, err)

		mailer := services.NewMockMailer()
		d := newTestDispatcher(testDB, mailer, nil, dispatcherTestConfig())
		stop := d.Start(context.Background())
		defer stop()

		campaign, err := fixtures.CreateTestCampaign(models.MailingTargetApprovedTeams, &season.ID)
		require.NoError(t, err)

		receipt, err := d.Dispatch(ctx, campaign.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, receipt.TotalRecipients)

		finalized := waitForFinalize(t, campaignRepo, campaign.ID)
		assert.Equal(t, 0, finalized.TotalRecipients)
		assert.Equal(t, 0, finalized.SentCount)
		assert.Equal(t, 0, finalized.FailedCount)
		assert.NotNil(t, finalized.SentAt)

		logs, err := emailLogRepo.ListByCampaign(ctx, campaign.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, logs)
		assert.Empty(t, mailer.GetSentMails())

		return nil
	})
	require.NoError(t, err)
}

func TestDispatchSecondTriggerIsRejected(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		season, err := fixtures.CreateTestSeason(2026)
		require.NoError(t, err)
		_, err = fixtures.CreateTeamsWithEmails(season.ID, []string{"only@example.com"})
		require.NoError(t, err)

		mailer := services.NewMockMailer()
		d := newTestDispatcher(testDB, mailer, nil, dispatcherTestConfig())
		stop := d.Start(context.Background())
		defer stop()

		campaign, err := fixtures.CreateTestCampaign(models.MailingTargetApprovedTeams, &season.ID)
		require.NoError(t, err)

		_, err = d.Dispatch(ctx, campaign.ID, nil)
		require.NoError(t, err)
		waitForFinalize(t, campaignRepo, campaign.ID)
		require.Len(t, mailer.GetSentMails(), 1)

		// Triggering a finished campaign is a no-op, nobody hears it twice
		_, err = d.Dispatch(ctx, campaign.ID, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, businessflow.ErrCampaignAlreadySent)
		assert.Len(t, mailer.GetSentMails(), 1)

		return nil
	})
	require.NoError(t, err)
}

func TestDispatchRejections(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("MissingCampaign", func(t *testing.T) {
			d := newTestDispatcher(testDB, services.NewMockMailer(), nil, dispatcherTestConfig())

			_, err := d.Dispatch(ctx, 999999, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrCampaignNotFound)
		})

		t.Run("AlreadySentCampaign", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)

			finalized, err := campaignRepo.FinalizeDispatch(ctx, campaign.ID, 5, 0, utils.UTCNow())
			require.NoError(t, err)
			require.True(t, finalized)

			d := newTestDispatcher(testDB, services.NewMockMailer(), nil, dispatcherTestConfig())

			_, err = d.Dispatch(ctx, campaign.ID, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrCampaignAlreadySent)
		})

		t.Run("FullQueue", func(t *testing.T) {
			cfg := dispatcherTestConfig()
			cfg.QueueSize = 1

			// Never started: nothing drains the queue, so the second
			// trigger must be refused instead of blocking the caller.
			d := newTestDispatcher(testDB, services.NewMockMailer(), nil, cfg)

			first, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)
			second, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
			require.NoError(t, err)

			_, err = d.Dispatch(ctx, first.ID, nil)
			require.NoError(t, err)

			_, err = d.Dispatch(ctx, second.ID, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrDispatcherBusy)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestScheduledCampaignDispatchedOnStart(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		season, err := fixtures.CreateTestSeason(2026)
		require.NoError(t, err)
		_, err = fixtures.CreateTeamsWithEmails(season.ID, []string{"sched@example.com"})
		require.NoError(t, err)

		overdue := time.Now().UTC().Add(-time.Minute)
		campaign, err := fixtures.CreateScheduledCampaign(models.MailingTargetApprovedTeams, overdue)
		require.NoError(t, err)

		// The sweep on Start picks up campaigns whose send time has passed
		mailer := services.NewMockMailer()
		d := newTestDispatcher(testDB, mailer, nil, dispatcherTestConfig())
		stop := d.Start(context.Background())
		defer stop()

		finalized := waitForFinalize(t, campaignRepo, campaign.ID)
		assert.Equal(t, 1, finalized.TotalRecipients)
		assert.Equal(t, 1, finalized.SentCount)
		assert.Equal(t, 0, finalized.FailedCount)

		mails := mailer.GetSentMails()
		require.Len(t, mails, 1)
		assert.Equal(t, "sched@example.com", mails[0].To)
		assert.Equal(t, campaign.Subject, mails[0].Subject)

		logs, err := repository.NewEmailLogRepository(testDB.DB).ListByCampaign(ctx, campaign.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, models.EmailStatusSent, logs[0].Status)
		// Scheduler-triggered sends carry no admin attribution
		assert.Nil(t, logs[0].SentBy)

		return nil
	})
	require.NoError(t, err)
}

func TestDispatchLockSerializesTriggers(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()

	err = testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		campaignRepo := repository.NewMailingCampaignRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		// Never started: the queued task is never drained, so the lock
		// taken by an accepted trigger stays held.
		d := newTestDispatcher(testDB, services.NewMockMailer(), rc, dispatcherTestConfig())

		campaign, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
		require.NoError(t, err)

		_, err = d.Dispatch(ctx, campaign.ID, nil)
		require.NoError(t, err)
		assert.True(t, mr.Exists(fmt.Sprintf("robocontest-test:%s%d", utils.DispatchLockKeyPrefix, campaign.ID)))

		_, err = d.Dispatch(ctx, campaign.ID, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, businessflow.ErrDispatchInProgress)

		// A rejected trigger must give the lock back. If it leaked, the
		// second attempt here would report a dispatch in progress instead
		// of the real reason.
		finished, err := fixtures.CreateTestCampaign(models.MailingTargetAllTeams, nil)
		require.NoError(t, err)
		ok, err := campaignRepo.FinalizeDispatch(ctx, finished.ID, 0, 0, utils.UTCNow())
		require.NoError(t, err)
		require.True(t, ok)

		_, err = d.Dispatch(ctx, finished.ID, nil)
		assert.ErrorIs(t, err, businessflow.ErrCampaignAlreadySent)
		_, err = d.Dispatch(ctx, finished.ID, nil)
		assert.ErrorIs(t, err, businessflow.ErrCampaignAlreadySent)

		return nil
	})
	require.NoError(t, err)
}
