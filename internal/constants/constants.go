package constants

import "time"

// Rate-limit counter keys. Tiers are checked in this order.
const (
	SMSRateLimitGlobalKey    = "sms:global"
	SMSRateLimitClientKeyFmt = "sms:client:%s"
	SMSRateLimitPhoneKeyFmt  = "sms:phone:%s"
)

// Used when a request carries no client identifier header.
const UnknownClientID = "unknown"

// Header clients use to identify themselves for per-client rate limits.
// Falls back to the remote address.
const ClientIDHeader = "X-Client-Id"

const (
	SearchQueryTimeout  = 5 * time.Second
	CleanupJobTimeout   = 2 * time.Minute
	ShutdownGracePeriod = 10 * time.Second
	ServerReadTimeout   = 15 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
)

// Fallback messages when a provider gives no text of its own.
const (
	MsgSendFailed   = "Failed to send verification code"
	MsgVerifyFailed = "Failed to verify code"
)
