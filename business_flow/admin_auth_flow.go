// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/avolkov/robocontest/app/dto"
	"github.com/avolkov/robocontest/app/services"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	"github.com/avolkov/robocontest/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminAuthFlow represents the admin authentication flow used by handlers
type AdminAuthFlow interface {
	InitCaptcha(ctx context.Context) (*dto.AdminCaptchaInitResponse, error)
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	Refresh(ctx context.Context, req *dto.AdminRefreshRequest, metadata *ClientMetadata) (*dto.AdminRefreshResponse, error)
}

// AdminAuthFlowImpl provides captcha-gated login and session refresh
type AdminAuthFlowImpl struct {
	adminRepo    repository.AdminRepository
	sessionRepo  repository.AdminSessionRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	captchaSvc   services.CaptchaService
	db           *gorm.DB
}

func NewAdminAuthFlow(
	adminRepo repository.AdminRepository,
	sessionRepo repository.AdminSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	captchaSvc services.CaptchaService,
	db *gorm.DB,
) AdminAuthFlow {
	return &AdminAuthFlowImpl{
		adminRepo:    adminRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		captchaSvc:   captchaSvc,
		db:           db,
	}
}

func (af *AdminAuthFlowImpl) InitCaptcha(ctx context.Context) (*dto.AdminCaptchaInitResponse, error) {
	if af.captchaSvc == nil {
		return nil, NewBusinessError("CAPTCHA_NOT_AVAILABLE", "Captcha service not available", ErrCaptchaNotAvailable)
	}
	ch, err := af.captchaSvc.GenerateRotate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_INIT_FAILED", "Failed to initialize captcha", err)
	}
	return &dto.AdminCaptchaInitResponse{
		ChallengeID:       ch.ID,
		MasterImageBase64: ch.MasterImageBase64,
		ThumbImageBase64:  ch.ThumbImageBase64,
	}, nil
}

// Login verifies the rotate captcha, checks credentials and opens a new
// session for the admin.
func (af *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	// Validate request
	if req == nil || len(req.Email) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrIncorrectPassword)
	}
	if len(req.ChallengeID) == 0 {
		return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha challenge missing", ErrInvalidCaptcha)
	}

	// Verify captcha first
	if af.captchaSvc == nil || !af.captchaSvc.VerifyRotate(ctx, req.ChallengeID, req.UserAngle) {
		return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha validation failed", ErrInvalidCaptcha)
	}

	var admin *models.Admin

	resp, err := af.WithLoginTransaction(ctx, func(ctx context.Context) (*dto.AdminLoginResponse, error) {
		var err error
		admin, err = af.adminRepo.ByEmail(ctx, req.Email)
		if err != nil {
			return nil, err
		}
		if admin == nil {
			return nil, ErrAdminNotFound
		}

		// Check if account is active
		if !utils.IsTrue(admin.IsActive) {
			return nil, ErrAdminInactive
		}

		// Verify password
		if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
			return nil, ErrIncorrectPassword
		}

		// Create new session
		session, err := af.CreateSession(ctx, admin.ID, metadata)
		if err != nil {
			return nil, err
		}

		if err := af.adminRepo.UpdateLastLogin(ctx, admin.ID, utils.UTCNow()); err != nil {
			return nil, err
		}

		return &dto.AdminLoginResponse{
			Admin:   ToAdminDTO(*admin),
			Session: ToAdminSessionDTO(*session),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Admin login failed: %s", err.Error())
		_ = af.LogAuthAttempt(ctx, admin, models.AuditActionAdminLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Admin login failed", err)
	}

	msg := fmt.Sprintf("Admin logged in successfully: %d", resp.Admin.ID)
	_ = af.LogAuthAttempt(ctx, admin, models.AuditActionAdminLoginSuccess, msg, true, nil, metadata)

	return resp, nil
}

// Refresh rotates a session: the presented refresh token is exchanged for
// a new token pair and the old session row is deactivated. The new row
// keeps the correlation ID so the lineage stays traceable.
func (af *AdminAuthFlowImpl) Refresh(ctx context.Context, req *dto.AdminRefreshRequest, metadata *ClientMetadata) (*dto.AdminRefreshResponse, error) {
	if req == nil || len(req.RefreshToken) == 0 {
		return nil, NewBusinessError("REFRESH_VALIDATION_FAILED", "Refresh token missing", ErrSessionNotFound)
	}

	var admin *models.Admin

	resp, err := af.WithRefreshTransaction(ctx, func(ctx context.Context) (*dto.AdminRefreshResponse, error) {
		session, err := af.sessionRepo.ByRefreshToken(ctx, req.RefreshToken)
		if err != nil {
			return nil, err
		}
		if session == nil || !utils.IsTrue(session.IsActive) {
			return nil, ErrSessionNotFound
		}
		if utils.UTCNow().After(session.ExpiresAt) {
			return nil, ErrSessionExpired
		}

		admin, err = af.adminRepo.ByID(ctx, session.AdminID)
		if err != nil {
			return nil, err
		}
		if admin == nil {
			return nil, ErrAdminNotFound
		}
		if !utils.IsTrue(admin.IsActive) {
			return nil, ErrAdminInactive
		}

		accessToken, refreshToken, err := af.tokenService.RefreshToken(req.RefreshToken)
		if err != nil {
			return nil, err
		}

		// Retire the presented session and open a fresh one in the same lineage
		if err := af.sessionRepo.DeactivateSession(ctx, session.ID); err != nil {
			return nil, err
		}

		next := &models.AdminSession{
			AdminID:       admin.ID,
			CorrelationID: session.CorrelationID,
			SessionToken:  accessToken,
			RefreshToken:  &refreshToken,
			ExpiresAt:     utils.UTCNowAdd(utils.SessionTimeout),
			IsActive:      utils.ToPtr(true),
			IPAddress:     session.IPAddress,
			UserAgent:     session.UserAgent,
		}
		if metadata != nil {
			next.IPAddress = &metadata.IPAddress
			next.UserAgent = &metadata.UserAgent
		}
		if err := af.sessionRepo.Save(ctx, next); err != nil {
			return nil, err
		}

		return &dto.AdminRefreshResponse{
			Session: ToAdminSessionDTO(*next),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Token refresh failed: %s", err.Error())
		_ = af.LogAuthAttempt(ctx, admin, models.AuditActionAdminTokenRefreshed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("REFRESH_FAILED", "Token refresh failed", err)
	}

	msg := "Admin session refreshed"
	if admin != nil {
		msg = fmt.Sprintf("Admin session refreshed: %d", admin.ID)
	}
	_ = af.LogAuthAttempt(ctx, admin, models.AuditActionAdminTokenRefreshed, msg, true, nil, metadata)

	return resp, nil
}

// Private helper methods

func (af *AdminAuthFlowImpl) CreateSession(ctx context.Context, adminID uint, metadata *ClientMetadata) (*models.AdminSession, error) {
	// Generate tokens
	accessToken, refreshToken, err := af.tokenService.GenerateTokens(adminID)
	if err != nil {
		return nil, err
	}

	// Calculate expiry time using constant
	expiresAt := utils.UTCNowAdd(utils.SessionTimeout)

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	// Create session record
	session := &models.AdminSession{
		AdminID:       adminID,
		CorrelationID: uuid.New(),
		SessionToken:  accessToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     expiresAt,
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	err = af.sessionRepo.Save(ctx, session)
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (af *AdminAuthFlowImpl) LogAuthAttempt(ctx context.Context, admin *models.Admin, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var adminID *uint
	if admin != nil {
		adminID = &admin.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		AdminID:      adminID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return af.auditRepo.Save(ctx, audit)
}

func (af *AdminAuthFlowImpl) WithLoginTransaction(ctx context.Context, fn func(context.Context) (*dto.AdminLoginResponse, error)) (*dto.AdminLoginResponse, error) {
	var result *dto.AdminLoginResponse
	var fnErr error

	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (af *AdminAuthFlowImpl) WithRefreshTransaction(ctx context.Context, fn func(context.Context) (*dto.AdminRefreshResponse, error)) (*dto.AdminRefreshResponse, error) {
	var result *dto.AdminRefreshResponse
	var fnErr error

	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
