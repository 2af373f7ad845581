package businessflow_test

import (
	"testing"
	"time"

	"github.com/avolkov/robocontest/app/dto"
	"github.com/avolkov/robocontest/app/services"
	businessflow "github.com/avolkov/robocontest/business_flow"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	testingutil "github.com/avolkov/robocontest/testing"
	"github.com/avolkov/robocontest/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTeamFlow wires the flow without a captcha service, which disables the
// captcha gate the same way a deployment without captcha config runs.
func newTeamFlow(testDB *testingutil.TestDB, mailer services.Mailer) businessflow.TeamFlow {
	teamRepo := repository.NewTeamRepository(testDB.DB)
	seasonRepo := repository.NewSeasonRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	emailLogRepo := repository.NewEmailLogRepository(testDB.DB)

	return businessflow.NewTeamFlow(teamRepo, seasonRepo, auditRepo, emailLogRepo, mailer, nil, "orgs@robocontest.app", testDB.DB)
}

func registerRequest(name, email string) *dto.RegisterTeamRequest {
	return &dto.RegisterTeamRequest{
		Name:          name,
		League:        "junior",
		CaptainName:   "Alex Petrov",
		Email:         email,
		MembersCount:  4,
		RulesAccepted: true,
	}
}

// waitForTeamEmail polls the delivery log until a record of the given type
// shows up for the team. Confirmation mail goes out on a goroutine after
// the registration commits, so tests observe it through the log.
func waitForTeamEmail(t *testing.T, logRepo repository.EmailLogRepository, teamID uint, emailType models.EmailType) *models.EmailLog {
	t.Helper()

	var found *models.EmailLog
	require.Eventually(t, func() bool {
		logs, err := logRepo.ByFilter(testingutil.CreateTestContext(), models.EmailLogFilter{
			TeamID:    &teamID,
			EmailType: &emailType,
		}, "id ASC", 10, 0)
		if err != nil || len(logs) == 0 {
			return false
		}
		// The entry starts out pending, wait for the delivery outcome
		if !logs[0].Status.IsTerminal() {
			return false
		}
		found = logs[0]
		return true
	}, 5*time.Second, 25*time.Millisecond, "no %s email was logged for team %d", emailType, teamID)

	return found
}

func TestRegisterTeam(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		logRepo := repository.NewEmailLogRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		metadata := &businessflow.ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test"}

		_, err := fixtures.CreateCurrentSeason(2026)
		require.NoError(t, err)

		t.Run("RegistersIntoCurrentSeason", func(t *testing.T) {
			mailer := services.NewMockMailer()
			flow := newTeamFlow(testDB, mailer)

			resp, err := flow.Register(ctx, registerRequest("Robo Wolves", "wolves@example.com"), metadata)
			require.NoError(t, err)
			assert.Equal(t, "Robo Wolves", resp.Team.Name)
			assert.Equal(t, models.TeamStatusPending.String(), resp.Team.Status)
			assert.Equal(t, "junior", resp.Team.League)
			assert.NotEmpty(t, resp.Team.UUID)

			// The captain gets a confirmation, and the attempt is on record
			entry := waitForTeamEmail(t, logRepo, resp.Team.ID, models.EmailTypeRegistrationConfirmation)
			assert.Equal(t, "wolves@example.com", entry.ToEmail)
			assert.Equal(t, models.EmailStatusSent, entry.Status)

			mails := mailer.GetSentMails()
			require.Len(t, mails, 1)
			assert.Contains(t, mails[0].Subject, "Robo Wolves")
		})

		t.Run("DeliveryFailureDoesNotFailRegistration", func(t *testing.T) {
			mailer := services.NewMockMailer()
			mailer.FailFor("bounce@example.com", services.ErrMailerNotConfigured)
			flow := newTeamFlow(testDB, mailer)

			resp, err := flow.Register(ctx, registerRequest("Broken Team", "bounce@example.com"), metadata)
			require.NoError(t, err)

			entry := waitForTeamEmail(t, logRepo, resp.Team.ID, models.EmailTypeRegistrationConfirmation)
			assert.Equal(t, models.EmailStatusFailed, entry.Status)
			require.NotNil(t, entry.ErrorMessage)
			assert.Contains(t, *entry.ErrorMessage, "not configured")
		})

		t.Run("RejectsDuplicateNameInSeason", func(t *testing.T) {
			flow := newTeamFlow(testDB, services.NewMockMailer())

			_, err := flow.Register(ctx, registerRequest("Taken Name", "first@example.com"), metadata)
			require.NoError(t, err)

			_, err = flow.Register(ctx, registerRequest("Taken Name", "second@example.com"), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsTeamNameTaken(err))
		})

		t.Run("RejectsWhenRulesNotAccepted", func(t *testing.T) {
			flow := newTeamFlow(testDB, services.NewMockMailer())

			req := registerRequest("No Rules", "norules@example.com")
			req.RulesAccepted = false

			_, err := flow.Register(ctx, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsRulesNotAccepted(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRegisterTeamSeasonGates(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		seasonRepo := repository.NewSeasonRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		metadata := &businessflow.ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test"}
		flow := newTeamFlow(testDB, services.NewMockMailer())

		t.Run("RejectsWithoutCurrentSeason", func(t *testing.T) {
			// A season exists but none is marked current
			_, err := fixtures.CreateTestSeason(2025)
			require.NoError(t, err)

			_, err = flow.Register(ctx, registerRequest("Early Birds", "early@example.com"), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsNoCurrentSeason(err))
		})

		t.Run("RejectsWhenRegistrationClosed", func(t *testing.T) {
			season, err := fixtures.CreateCurrentSeason(2026)
			require.NoError(t, err)

			season.RegistrationOpen = utils.ToPtr(false)
			require.NoError(t, seasonRepo.Update(ctx, season))

			_, err = flow.Register(ctx, registerRequest("Late Birds", "late@example.com"), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsRegistrationClosed(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUpdateTeamStatus(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		logRepo := repository.NewEmailLogRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		metadata := &businessflow.ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test"}

		admin, err := fixtures.CreateTestAdmin(models.AdminRoleAdmin)
		require.NoError(t, err)
		season, err := fixtures.CreateCurrentSeason(2026)
		require.NoError(t, err)

		t.Run("ApprovesPendingTeamAndNotifiesCaptain", func(t *testing.T) {
			team, err := fixtures.CreateTestTeam(season.ID, models.TeamStatusPending, "approve-me@example.com")
			require.NoError(t, err)

			mailer := services.NewMockMailer()
			flow := newTeamFlow(testDB, mailer)

			resp, err := flow.UpdateStatus(ctx, &dto.UpdateTeamStatusRequest{
				TeamID:  team.ID,
				AdminID: admin.ID,
				Status:  "approved",
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.TeamStatusApproved.String(), resp.Team.Status)

			entry := waitForTeamEmail(t, logRepo, team.ID, models.EmailTypeTeamStatusUpdate)
			assert.Equal(t, "approve-me@example.com", entry.ToEmail)
			require.NotNil(t, entry.SentBy)
			assert.Equal(t, admin.ID, *entry.SentBy)
		})

		t.Run("NotifyOptOutSkipsEmail", func(t *testing.T) {
			team, err := fixtures.CreateTestTeam(season.ID, models.TeamStatusPending, "quiet@example.com")
			require.NoError(t, err)

			mailer := services.NewMockMailer()
			flow := newTeamFlow(testDB, mailer)

			_, err = flow.UpdateStatus(ctx, &dto.UpdateTeamStatusRequest{
				TeamID:  team.ID,
				AdminID: admin.ID,
				Status:  "rejected",
				Notify:  utils.ToPtr(false),
			}, metadata)
			require.NoError(t, err)

			assert.Empty(t, mailer.GetSentMails())
		})

		t.Run("RejectsIllegalTransition", func(t *testing.T) {
			team, err := fixtures.CreateTestTeam(season.ID, models.TeamStatusWithdrawn, "terminal@example.com")
			require.NoError(t, err)

			_, err = newTeamFlow(testDB, services.NewMockMailer()).UpdateStatus(ctx, &dto.UpdateTeamStatusRequest{
				TeamID:  team.ID,
				AdminID: admin.ID,
				Status:  "approved",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidStatusTransition(err))
		})

		t.Run("RejectsUnknownTeam", func(t *testing.T) {
			_, err := newTeamFlow(testDB, services.NewMockMailer()).UpdateStatus(ctx, &dto.UpdateTeamStatusRequest{
				TeamID:  999999,
				AdminID: admin.ID,
				Status:  "approved",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsTeamNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
