// Package main provides the main entry point for the RoboContest competition management backend
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avolkov/robocontest/app/handlers"
	"github.com/avolkov/robocontest/app/middleware"
	"github.com/avolkov/robocontest/app/router"
	"github.com/avolkov/robocontest/app/scheduler"
	"github.com/avolkov/robocontest/app/services"
	businessflow "github.com/avolkov/robocontest/business_flow"
	"github.com/avolkov/robocontest/config"
	_ "github.com/avolkov/robocontest/docs"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	"github.com/avolkov/robocontest/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting RoboContest application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Route the standard logger through the configured sink
	setupLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Setup graceful shutdown
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging points the standard logger at the configured output. File
// outputs rotate through lumberjack.
func setupLogging(cfg config.LoggingConfig) {
	if cfg.FilePath == "" {
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	switch cfg.Output {
	case "file":
		log.SetOutput(rotated)
	case "both":
		log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, 30*time.Second)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Seed the initial admin account and a default current season
	if err := ensureInitialData(db, cfg); err != nil {
		return nil, err
	}

	// Initialize repositories
	adminRepo := repository.NewAdminRepository(db)
	sessionRepo := repository.NewAdminSessionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	seasonRepo := repository.NewSeasonRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	contactRepo := repository.NewContactMessageRepository(db)
	campaignRepo := repository.NewMailingCampaignRepository(db)
	emailLogRepo := repository.NewEmailLogRepository(db)

	// Initialize services
	mailer := services.NewSMTPMailer(&cfg.Email)

	// Captcha service guarding public forms and admin login
	var captchaSvc services.CaptchaService
	if cfg.Captcha.Enabled {
		captchaSvc, err = services.NewCaptchaServiceRotate(cfg.Captcha.TTL, cfg.Captcha.AnglePadding, cfg.Captcha.ImageSize)
		if err != nil {
			return nil, err
		}
	}

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Log that services are initialized
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Recipient resolver shared by the campaign flow, the preview
	// endpoint, and the dispatcher
	resolver := businessflow.NewRecipientResolver(teamRepo)

	// Campaign dispatcher with its worker pool and scheduled-campaign loop
	dispatcher := scheduler.NewMailDispatcher(campaignRepo, emailLogRepo, resolver, mailer, rc, cfg.Mailing, cfg.Cache)
	stopDispatcher := dispatcher.Start(context.Background())
	stopFuncs = append(stopFuncs, stopDispatcher)

	// Initialize flows
	adminAuthFlow := businessflow.NewAdminAuthFlow(
		adminRepo,
		sessionRepo,
		auditRepo,
		tokenService,
		captchaSvc,
		db,
	)

	teamFlow := businessflow.NewTeamFlow(
		teamRepo,
		seasonRepo,
		auditRepo,
		emailLogRepo,
		mailer,
		captchaSvc,
		cfg.Email.AdminEmail,
		db,
	)

	seasonFlow := businessflow.NewSeasonFlow(
		seasonRepo,
		teamRepo,
		auditRepo,
		db,
	)

	contactFlow := businessflow.NewContactFlow(
		contactRepo,
		auditRepo,
		emailLogRepo,
		mailer,
		captchaSvc,
		cfg.Email.AdminEmail,
		db,
	)

	campaignFlow := businessflow.NewMailingCampaignFlow(
		campaignRepo,
		seasonRepo,
		auditRepo,
		resolver,
		dispatcher,
		db,
	)

	emailLogFlow := businessflow.NewEmailLogFlow(
		emailLogRepo,
		campaignRepo,
		teamRepo,
		auditRepo,
		resolver,
		mailer,
		rc,
		&cfg.Cache,
		db,
	)

	// Initialize handlers
	adminAuthHandler := handlers.NewAdminAuthHandler(adminAuthFlow)
	teamHandler := handlers.NewTeamHandler(teamFlow)
	seasonHandler := handlers.NewSeasonHandler(seasonFlow)
	contactHandler := handlers.NewContactHandler(contactFlow)
	campaignHandler := handlers.NewMailingCampaignHandler(campaignFlow)
	emailLogHandler := handlers.NewEmailLogHandler(emailLogFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		cfg,
		adminAuthHandler,
		teamHandler,
		seasonHandler,
		contactHandler,
		campaignHandler,
		emailLogHandler,
		authMiddleware,
	)

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// ensureInitialData seeds the records a fresh deployment needs: the
// configured super-admin account and a current season to register into.
func ensureInitialData(db *gorm.DB, cfg *config.ProductionConfig) error {
	adminRepo := repository.NewAdminRepository(db)
	seasonRepo := repository.NewSeasonRepository(db)

	if cfg.Admin.Email != "" {
		if err := ensureSuperAdmin(adminRepo, cfg); err != nil {
			return err
		}
	}

	return ensureCurrentSeason(seasonRepo)
}

func ensureSuperAdmin(adminRepo repository.AdminRepository, cfg *config.ProductionConfig) error {
	existing, err := adminRepo.ByEmail(context.Background(), cfg.Admin.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	admin := models.Admin{
		UUID:         uuid.New(),
		Email:        cfg.Admin.Email,
		PasswordHash: string(hash),
		FullName:     cfg.Admin.FullName,
		Role:         models.AdminRoleSuperAdmin,
		IsActive:     utils.ToPtr(true),
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}
	if err := adminRepo.Save(context.Background(), &admin); err != nil {
		return err
	}

	log.Printf("Seeded initial admin account %s", cfg.Admin.Email)
	return nil
}

func ensureCurrentSeason(seasonRepo repository.SeasonRepository) error {
	current, err := seasonRepo.Current(context.Background())
	if err != nil {
		return err
	}
	if current != nil {
		return nil
	}

	year := utils.UTCNow().Year()
	season := models.Season{
		Year:             year,
		Name:             fmt.Sprintf("RoboContest %d", year),
		RegistrationOpen: utils.ToPtr(true),
		IsCurrent:        utils.ToPtr(true),
		IsArchived:       utils.ToPtr(false),
		CreatedAt:        utils.UTCNow(),
		UpdatedAt:        utils.UTCNow(),
	}
	if err := seasonRepo.Save(context.Background(), &season); err != nil {
		return err
	}

	log.Printf("Seeded default current season %d", year)
	return nil
}
