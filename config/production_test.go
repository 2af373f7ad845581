package config_test

import (
	"testing"
	"time"

	"github.com/avolkov/robocontest/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setBaselineEnv sets the settings that have no safe default and blanks
// every variable the assertions below depend on, so ambient shell
// configuration cannot leak into the test.
func setBaselineEnv(t *testing.T) {
	t.Helper()

	t.Setenv("DB_PASSWORD", "test-db-password")
	t.Setenv("JWT_SECRET_KEY", "test-secret-key-for-jwt-signing-32-chars")
	t.Setenv("ADMIN_PASSWORD", "AdminPass123!")

	for _, key := range []string{
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_SSL_MODE",
		"SERVER_HOST", "SERVER_PORT",
		"JWT_ISSUER", "JWT_AUDIENCE", "JWT_ACCESS_TOKEN_TTL",
		"BCRYPT_COST", "ADMIN_EMAIL",
		"CACHE_REDIS_PREFIX", "CORS_ALLOWED_ORIGINS",
		"MAILING_WORKER_COUNT", "MAILING_QUEUE_SIZE", "MAILING_SEND_CONCURRENCY",
		"MAILING_DISPATCH_LOCK_TTL", "MAILING_SCHEDULER_INTERVAL",
		"APP_ENV",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadProductionConfigDefaults(t *testing.T) {
	setBaselineEnv(t)

	cfg, err := config.LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "robocontest", cfg.Database.Name)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "test-db-password", cfg.Database.Password)

	assert.Equal(t, 8080, cfg.Server.Port)

	assert.Equal(t, "robocontest", cfg.JWT.Issuer)
	assert.Equal(t, "robocontest-api", cfg.JWT.Audience)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTokenTTL)

	assert.Equal(t, 12, cfg.Security.BcryptCost)

	assert.Equal(t, 2, cfg.Mailing.WorkerCount)
	assert.Equal(t, 16, cfg.Mailing.QueueSize)
	assert.Equal(t, 5, cfg.Mailing.SendConcurrency)
	assert.Equal(t, 10*time.Minute, cfg.Mailing.DispatchLockTTL)
	assert.Equal(t, time.Minute, cfg.Mailing.SchedulerInterval)

	assert.Equal(t, "robocontest:", cfg.Cache.RedisPrefix)
	assert.Equal(t, "admin@robocontest.app", cfg.Admin.Email)
	assert.Equal(t, "production", cfg.Deployment.Environment)
}

func TestLoadProductionConfigOverrides(t *testing.T) {
	setBaselineEnv(t)

	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MAILING_WORKER_COUNT", "8")
	t.Setenv("MAILING_SCHEDULER_INTERVAL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("APP_ENV", "development")

	cfg, err := config.LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Mailing.WorkerCount)
	assert.Equal(t, 30*time.Second, cfg.Mailing.SchedulerInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "development", cfg.Deployment.Environment)
}

func TestLoadProductionConfigRejectsMissingSecrets(t *testing.T) {
	setBaselineEnv(t)
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := config.LoadProductionConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
}

func TestValidateProductionConfig(t *testing.T) {
	setBaselineEnv(t)

	valid, err := config.LoadProductionConfig()
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(cfg *config.ProductionConfig)
		wantErr string
	}{
		{
			name:    "ShortJWTSecret",
			mutate:  func(cfg *config.ProductionConfig) { cfg.JWT.SecretKey = "too-short" },
			wantErr: "JWT_SECRET_KEY must be at least 32 characters",
		},
		{
			name:    "MissingDBPassword",
			mutate:  func(cfg *config.ProductionConfig) { cfg.Database.Password = "" },
			wantErr: "DB_PASSWORD is required",
		},
		{
			name:    "BcryptCostOutOfRange",
			mutate:  func(cfg *config.ProductionConfig) { cfg.Security.BcryptCost = 20 },
			wantErr: "BCRYPT_COST must be between 10 and 14",
		},
		{
			name:    "NonPositiveWorkerCount",
			mutate:  func(cfg *config.ProductionConfig) { cfg.Mailing.WorkerCount = 0 },
			wantErr: "MAILING_WORKER_COUNT must be positive",
		},
		{
			name:    "NonPositiveQueueSize",
			mutate:  func(cfg *config.ProductionConfig) { cfg.Mailing.QueueSize = -1 },
			wantErr: "MAILING_QUEUE_SIZE must be positive",
		},
		{
			name: "TLSEnabledWithoutCertFiles",
			mutate: func(cfg *config.ProductionConfig) {
				cfg.Security.TLSEnabled = true
				cfg.Security.TLSCertFile = ""
				cfg.Security.TLSKeyFile = ""
			},
			wantErr: "TLS_CERT_FILE is required",
		},
		{
			name:    "UnknownLogLevel",
			mutate:  func(cfg *config.ProductionConfig) { cfg.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL must be one of",
		},
		{
			name:    "ShortAdminPassword",
			mutate:  func(cfg *config.ProductionConfig) { cfg.Admin.Password = "short" },
			wantErr: "ADMIN_PASSWORD must be at least",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *valid
			tt.mutate(&cfg)

			err := config.ValidateProductionConfig(&cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("ValidConfigPasses", func(t *testing.T) {
		cfg := *valid
		assert.NoError(t, config.ValidateProductionConfig(&cfg))
	})
}
