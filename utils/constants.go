package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Mailing constants
const (
	// EmailBodyPreviewLength is how much of a message body is kept on a
	// delivery record for auditing (the full body lives on the campaign).
	EmailBodyPreviewLength = 500

	// RecipientPreviewSampleSize caps the number of sample addresses
	// returned by the recipients preview endpoint.
	RecipientPreviewSampleSize = 20

	// DispatchLockKeyPrefix namespaces the redis lock guarding a single
	// campaign dispatch.
	DispatchLockKeyPrefix = "mailing:dispatch:"

	// EmailStatsCacheKey is the redis key for the cached delivery log stats.
	EmailStatsCacheKey = "mailing:stats"

	// EmailStatsCacheTTL bounds how stale the cached delivery stats can get.
	EmailStatsCacheTTL = time.Minute
)
