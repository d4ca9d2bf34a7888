package domain

import "time"

// VerifyOutcome is the terminal state of one verification attempt.
type VerifyOutcome string

const (
	VerifyOK          VerifyOutcome = "OK"
	VerifyBypass      VerifyOutcome = "BYPASS"
	VerifyAlreadyUsed VerifyOutcome = "ALREADY_USED"
	VerifyExpired     VerifyOutcome = "EXPIRED"
	VerifyInvalid     VerifyOutcome = "INVALID"
)

// AccessToken is a one-time verification token bound to an owner and the
// opaque link payload it unlocks. Identified by (owner_id, token, payload).
// The used flag transitions false→true exactly once, through a conditional
// update.
type AccessToken struct {
	OwnerID    int64     `json:"owner_id" dynamodbav:"owner_id"`
	Token      string    `json:"token" dynamodbav:"token"`
	Payload    string    `json:"payload" dynamodbav:"payload"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt  time.Time `json:"expires" dynamodbav:"expires_at"`
	Used       bool      `json:"used" dynamodbav:"used"`
	UsedAt     *time.Time `json:"used_at,omitempty" dynamodbav:"used_at"`
	UseCount   int       `json:"use_count" dynamodbav:"use_count"`
	ClickCount int       `json:"click_count" dynamodbav:"click_count"`
	// TTL is ExpiresAt as Unix seconds, used as the DynamoDB TTL attribute.
	TTL int64 `json:"-" dynamodbav:"ttl"`
}

// Bypass-attempt kinds, one per rejected verification outcome.
const (
	BypassKindInvalidToken = "INVALID_TOKEN"
	BypassKindExpiredToken = "EXPIRED_TOKEN"
	BypassKindTokenReuse   = "TOKEN_REUSE"
	BypassKindAttempt      = "BYPASS_ATTEMPT"
)

// BypassAttempt is an append-only log row recording one rejected
// verification attempt. Rows are never mutated.
type BypassAttempt struct {
	AttemptID string    `json:"id" dynamodbav:"attempt_id"`
	OwnerID   int64     `json:"owner_id" dynamodbav:"owner_id"`
	Kind      string    `json:"kind" dynamodbav:"kind"`
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`
}

// TokenStats aggregates shortener click tracking across all tokens.
type TokenStats struct {
	TotalTokens int     `json:"total_tokens"`
	TotalClicks int     `json:"total_clicks"`
	TotalUsed   int     `json:"total_used"`
	AvgClicks   float64 `json:"avg_clicks"`
}

// BypassStats aggregates bypass attempts per owner.
type BypassStats struct {
	OwnerID     int64     `json:"owner_id"`
	Count       int       `json:"count"`
	Kinds       []string  `json:"kinds"`
	LastAttempt time.Time `json:"last_attempt"`
}
