package constants

import "time"

const (
	DefaultTimeout        = 10 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	ShutdownTimeout       = 15 * time.Second
)

// Echo context keys
const (
	ContextTokenData = "token_data"
	ContextRequestID = "request_id"
)

// Auth
const (
	AccessTokenCookie = "access_token"
	ScopeTokenAccess  = "access"
	BearerPrefix      = "Bearer "
)

// Redis keys
const (
	RedisKeyRecommendation = "planner:recommendation:"
	RedisKeyMergeLock      = "planner:merge_lock:"
	RedisKeyOAuthState     = "calendar:oauth_state:"
)

const OAuthStateTTL = 10 * time.Minute

// Database pool
const (
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Queue
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)
