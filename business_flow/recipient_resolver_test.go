package businessflow_test

import (
	"context"
	"testing"

	businessflow "github.com/avolkov/robocontest/business_flow"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	testingutil "github.com/avolkov/robocontest/testing"
	"github.com/avolkov/robocontest/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Custom email selections never touch the team repository, so these run
// without a database.
func TestResolveCustomEmails(t *testing.T) {
	resolver := businessflow.NewRecipientResolver(nil)
	ctx := context.Background()

	t.Run("DeduplicatesKeepingFirstOccurrence", func(t *testing.T) {
		resolved, err := resolver.Resolve(ctx, businessflow.RecipientSelection{
			TargetType:   models.MailingTargetCustomEmails,
			CustomEmails: []string{"a@example.com", "b@example.com", "a@example.com"},
		})
		require.NoError(t, err)
		require.Len(t, resolved.Recipients, 2)
		assert.Equal(t, "a@example.com", resolved.Recipients[0].Email)
		assert.Equal(t, "b@example.com", resolved.Recipients[1].Email)
		assert.Equal(t, 2, resolved.TotalAvailable)
	})

	t.Run("TrimsWhitespaceAndSkipsBlanks", func(t *testing.T) {
		resolved, err := resolver.Resolve(ctx, businessflow.RecipientSelection{
			TargetType:   models.MailingTargetCustomEmails,
			CustomEmails: []string{"  a@example.com ", "", "   ", "b@example.com"},
		})
		require.NoError(t, err)
		require.Len(t, resolved.Recipients, 2)
		assert.Equal(t, "a@example.com", resolved.Recipients[0].Email)
		assert.Equal(t, "b@example.com", resolved.Recipients[1].Email)
	})

	t.Run("LimitAppliesAfterDeduplication", func(t *testing.T) {
		resolved, err := resolver.Resolve(ctx, businessflow.RecipientSelection{
			TargetType:      models.MailingTargetCustomEmails,
			CustomEmails:    []string{"a@example.com", "a@example.com", "b@example.com", "c@example.com"},
			RecipientsLimit: utils.ToPtr(2),
		})
		require.NoError(t, err)
		require.Len(t, resolved.Recipients, 2)
		assert.Equal(t, "a@example.com", resolved.Recipients[0].Email)
		assert.Equal(t, "b@example.com", resolved.Recipients[1].Email)
		// TotalAvailable counts distinct addresses before the ceiling
		assert.Equal(t, 3, resolved.TotalAvailable)
	})

	t.Run("LimitLargerThanListIsHarmless", func(t *testing.T) {
		resolved, err := resolver.Resolve(ctx, businessflow.RecipientSelection{
			TargetType:      models.MailingTargetCustomEmails,
			CustomEmails:    []string{"a@example.com", "b@example.com"},
			RecipientsLimit: utils.ToPtr(50),
		})
		require.NoError(t, err)
		assert.Len(t, resolved.Recipients, 2)
		assert.Equal(t, 2, resolved.TotalAvailable)
	})

	t.Run("EmptyListResolvesToZeroRecipients", func(t *testing.T) {
		resolved, err := resolver.Resolve(ctx, businessflow.RecipientSelection{
			TargetType: models.MailingTargetCustomEmails,
		})
		require.NoError(t, err)
		assert.Empty(t, resolved.Recipients)
		assert.Zero(t, resolved.TotalAvailable)
	})

	t.Run("UnknownTargetTypeIsRejected", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, businessflow.RecipientSelection{
			TargetType: models.MailingTargetType("everyone"),
		})
		assert.ErrorIs(t, err, businessflow.ErrUnknownTargetType)
	})
}

func TestResolveTeamTargets(t *testing.T) {
	if !testingutil.TestDBAvailable() {
		t.Skip("test database not available")
	}

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		teamRepo := repository.NewTeamRepository(testDB.DB)
		resolver := businessflow.NewRecipientResolver(teamRepo)
		ctx := testingutil.CreateTestContext()

		seasonA, err := fixtures.CreateTestSeason(2026)
		require.NoError(t, err)
		seasonB, err := fixtures.CreateTestSeason(2025)
		require.NoError(t, err)

		// Season A: one pending team and two approved teams sharing an address
		pending, err := fixtures.CreateTestTeam(seasonA.ID, models.TeamStatusPending, "pending@example.com")
		require.NoError(t, err)
		_, err = fixtures.CreateTestTeam(seasonA.ID, models.TeamStatusApproved, "shared@example.com")
		require.NoError(t, err)
		newest, err := fixtures.CreateTestTeam(seasonA.ID, models.TeamStatusApproved, "shared@example.com")
		require.NoError(t, err)

		// Season B: one approved team, out of scope for season A selections
		_, err = fixtures.CreateTestTeam(seasonB.ID, models.TeamStatusApproved, "other-season@example.com")
		require.NoError(t, err)

		t.Run("AllTeamsDeduplicatesSharedAddress", func(t *testing.T) {
			resolved, err := resolver.Resolve(ctx, businessflow.RecipientSelection{
				TargetType:     models.MailingTargetAllTeams,
				TargetSeasonID: &seasonA.ID,
			})
			require.NoError(t, err)
			require.Len(t, resolved.Recipients, 2)

			// Teams arrive newest first; the shared address keeps the newest owner
			assert.Equal(t, "shared@example.com", resolved.Recipients[0].Email)
			require.NotNil(t, resolved.Recipients[0].TeamID)
			assert.Equal(t, newest.ID, *resolved.Recipients[0].TeamID)
			assert.Equal(t, "pending@example.com", resolved.Recipients[1].Email)
			require.NotNil(t, resolved.Recipients[1].TeamID)
			assert.Equal(t, pending.ID, *resolved.Recipients[1].TeamID)
			assert.Equal(t, 2, resolved.TotalAvailable)
		})

		t.Run("ApprovedTeamsExcludesPending", func(t *testing.T) {
			resolved, err := resolver.Resolve(ctx, businessflow.RecipientSelection{
				TargetType:     models.MailingTargetApprovedTeams,
				TargetSeasonID: &seasonA.ID,
			})
			require.NoError(t, err)
			require.Len(t, resolved.Recipients, 1)
			assert.Equal(t, "shared@example.com", resolved.Recipients[0].Email)
		})

		t.Run("PendingTeamsExcludesApproved", func(t *testing.T) {
			resolved, err := resolver.Resolve(ctx, businessflow.RecipientSelection{
				TargetType:     models.MailingTargetPendingTeams,
				TargetSeasonID: &seasonA.ID,
			})
			require.NoError(t, err)
			require.Len(t, resolved.Recipients, 1)
			assert.Equal(t, "pending@example.com", resolved.Recipients[0].Email)
		})

		t.Run("NilSeasonSpansAllSeasons", func(t *testing.T) {
			resolved, err := resolver.Resolve(ctx, businessflow.RecipientSelection{
				TargetType: models.MailingTargetAllTeams,
			})
			require.NoError(t, err)
			assert.Equal(t, 3, resolved.TotalAvailable)

			emails := make([]string, 0, len(resolved.Recipients))
			for _, r := range resolved.Recipients {
				emails = append(emails, r.Email)
			}
			assert.Contains(t, emails, "other-season@example.com")
		})

		t.Run("LimitKeepsNewestRegistrations", func(t *testing.T) {
			season, err := fixtures.CreateTestSeason(2024)
			require.NoError(t, err)

			_, err = fixtures.CreateTeamsWithEmails(season.ID, []string{
				"first@example.com", "second@example.com", "third@example.com",
			})
			require.NoError(t, err)

			resolved, err := resolver.Resolve(ctx, businessflow.RecipientSelection{
				TargetType:      models.MailingTargetApprovedTeams,
				TargetSeasonID:  &season.ID,
				RecipientsLimit: utils.ToPtr(2),
			})
			require.NoError(t, err)
			require.Len(t, resolved.Recipients, 2)
			assert.Equal(t, "third@example.com", resolved.Recipients[0].Email)
			assert.Equal(t, "second@example.com", resolved.Recipients[1].Email)
			assert.Equal(t, 3, resolved.TotalAvailable)
		})

		return nil
	})
	require.NoError(t, err)
}
