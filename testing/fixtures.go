// Package testing provides test utilities and database setup for testing the competition backend
package testing

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAdmin creates an active admin account with a known password
func (tf *TestFixtures) CreateTestAdmin(role models.AdminRole) (*models.Admin, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	admin := &models.Admin{
		UUID:         uuid.New(),
		Email:        fmt.Sprintf("admin.%s@example.com", randomDigits),
		PasswordHash: string(hashedPassword),
		FullName:     "Test Admin",
		Role:         role,
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}

	return admin, nil
}

// CreateTestSeason creates a season with registration open
func (tf *TestFixtures) CreateTestSeason(year int) (*models.Season, error) {
	season := &models.Season{
		Year:             year,
		Name:             fmt.Sprintf("RoboContest %d", year),
		RegistrationOpen: utils.ToPtr(true),
		IsCurrent:        utils.ToPtr(false),
		IsArchived:       utils.ToPtr(false),
	}

	if err := tf.DB.DB.Create(season).Error; err != nil {
		return nil, fmt.Errorf("failed to create test season %d: %w", year, err)
	}

	return season, nil
}

// CreateCurrentSeason creates a season marked as the current one
func (tf *TestFixtures) CreateCurrentSeason(year int) (*models.Season, error) {
	season, err := tf.CreateTestSeason(year)
	if err != nil {
		return nil, err
	}

	season.IsCurrent = utils.ToPtr(true)
	if err := tf.DB.DB.Save(season).Error; err != nil {
		return nil, fmt.Errorf("failed to mark season %d current: %w", year, err)
	}

	return season, nil
}

// CreateTestTeam creates a team in the given season with the given review status
func (tf *TestFixtures) CreateTestTeam(seasonID uint, status models.TeamStatus, email string) (*models.Team, error) {
	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	if email == "" {
		email = fmt.Sprintf("captain.%s@example.com", randomDigits)
	}

	team := &models.Team{
		UUID:          uuid.New(),
		SeasonID:      seasonID,
		Name:          fmt.Sprintf("Team %s", randomDigits),
		Status:        status,
		League:        models.TeamLeagueSenior,
		CaptainName:   "Jane Captain",
		Email:         email,
		MembersCount:  4,
		RulesAccepted: utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(team).Error; err != nil {
		return nil, fmt.Errorf("failed to create test team: %w", err)
	}

	return team, nil
}

// CreateTeamsWithEmails creates one approved team per email, in order. The
// sequential inserts give ascending IDs, so registration order is stable for
// recipient resolution tests.
func (tf *TestFixtures) CreateTeamsWithEmails(seasonID uint, emails []string) ([]*models.Team, error) {
	teams := make([]*models.Team, 0, len(emails))
	for i, email := range emails {
		team, err := tf.CreateTestTeam(seasonID, models.TeamStatusApproved, email)
		if err != nil {
			return nil, fmt.Errorf("failed to create team %d: %w", i, err)
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// CreateTestCampaign creates a draft campaign targeting the given group
func (tf *TestFixtures) CreateTestCampaign(targetType models.MailingTargetType, seasonID *uint) (*models.MailingCampaign, error) {
	randomDigits := fmt.Sprintf("%06d", rand.Intn(900000)+100000)

	campaign := &models.MailingCampaign{
		UUID:           uuid.New(),
		Name:           fmt.Sprintf("Campaign %s", randomDigits),
		Subject:        "Competition update",
		Body:           "Hello teams, here is the latest news.",
		TargetType:     targetType,
		TargetSeasonID: seasonID,
		IsScheduled:    utils.ToPtr(false),
		IsSent:         utils.ToPtr(false),
	}

	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}

	return campaign, nil
}

// CreateScheduledCampaign creates a campaign scheduled at the given time
func (tf *TestFixtures) CreateScheduledCampaign(targetType models.MailingTargetType, scheduledAt time.Time) (*models.MailingCampaign, error) {
	campaign, err := tf.CreateTestCampaign(targetType, nil)
	if err != nil {
		return nil, err
	}

	campaign.IsScheduled = utils.ToPtr(true)
	campaign.ScheduledAt = &scheduledAt
	if err := tf.DB.DB.Save(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to schedule test campaign: %w", err)
	}

	return campaign, nil
}

// CreateTestEmailLog creates a delivery record with the given status
func (tf *TestFixtures) CreateTestEmailLog(campaignID *uint, toEmail string, status models.EmailStatus) (*models.EmailLog, error) {
	logEntry := &models.EmailLog{
		ToEmail:    toEmail,
		Subject:    "Competition update",
		EmailType:  models.EmailTypeMassMailing,
		Status:     status,
		CampaignID: campaignID,
	}

	if status == models.EmailStatusSent {
		logEntry.SentAt = utils.ToPtr(time.Now().UTC())
	}
	if status == models.EmailStatusFailed {
		logEntry.ErrorMessage = utils.ToPtr("smtp: connection refused")
	}

	if err := tf.DB.DB.Create(logEntry).Error; err != nil {
		return nil, fmt.Errorf("failed to create test email log: %w", err)
	}

	return logEntry, nil
}

// CreateTestContactMessage creates an unread contact form submission
func (tf *TestFixtures) CreateTestContactMessage() (*models.ContactMessage, error) {
	randomDigits := fmt.Sprintf("%06d", rand.Intn(900000)+100000)

	message := &models.ContactMessage{
		UUID:      uuid.New(),
		Topic:     models.ContactTopicGeneral,
		Name:      "Visitor",
		Email:     fmt.Sprintf("visitor.%s@example.com", randomDigits),
		Message:   "When does registration open?",
		IsRead:    utils.ToPtr(false),
		IsReplied: utils.ToPtr(false),
	}

	if err := tf.DB.DB.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contact message: %w", err)
	}

	return message, nil
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateTestSession creates an active admin session
func (tf *TestFixtures) CreateTestSession(adminID uint) (*models.AdminSession, error) {
	sessionToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure session token: %w", err)
	}

	refreshToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure refresh token: %w", err)
	}

	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	session := &models.AdminSession{
		CorrelationID: uuid.New(),
		AdminID:       adminID,
		SessionToken:  sessionToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	if err := tf.DB.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	return session, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(adminID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		AdminID:     adminID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}
