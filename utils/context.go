// Package utils provides utility functions for the application.
package utils

// ContextKey is a dedicated type for request-scoped context values to avoid
// collisions with keys from other packages.
type ContextKey string

// Request-scoped context keys populated by handlers and read by flows for
// audit logging.
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
	AdminIDKey    ContextKey = "admin_id"
)
