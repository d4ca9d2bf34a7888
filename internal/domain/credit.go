package domain

import "time"

// Transaction types appended to a credit account's audit log.
const (
	TxnEarned         = "earned"
	TxnSpent          = "spent"
	TxnSet            = "set"
	TxnReset          = "reset"
	TxnExpired        = "expired"
	TxnReferralReward = "referral_reward"
)

// Transaction is an immutable audit record. Entries are appended to the
// owning account and never mutated or removed individually.
type Transaction struct {
	Type      string    `json:"type" dynamodbav:"type"`
	Amount    int       `json:"amount" dynamodbav:"amount"`
	Reason    string    `json:"reason" dynamodbav:"reason"`
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`
}

// CreditAccount holds one owner's balance and referral state. Accounts are
// created lazily on first credit or debit. Balance and expiry move together:
// crediting with a new expiry overwrites it, debiting never touches it. A
// balance whose expiry has passed is logically zero until a sweep or lazy
// read clears it.
type CreditAccount struct {
	OwnerID       int64         `json:"owner_id" dynamodbav:"owner_id"`
	Balance       int           `json:"balance" dynamodbav:"balance"`
	Expiry        *time.Time    `json:"expiry,omitempty" dynamodbav:"expiry"`
	TotalEarned   int           `json:"total_earned" dynamodbav:"total_earned"`
	TotalSpent    int           `json:"total_spent" dynamodbav:"total_spent"`
	ReferralCode  string        `json:"referral_code,omitempty" dynamodbav:"referral_code"`
	ReferredBy    int64         `json:"referred_by,omitempty" dynamodbav:"referred_by"`
	ReferralCount int           `json:"referral_count" dynamodbav:"referral_count"`
	// ReferralRewarded flips once when this owner's first spend pays the
	// referrer out.
	ReferralRewarded bool          `json:"referral_rewarded,omitempty" dynamodbav:"referral_rewarded"`
	Transactions     []Transaction `json:"transactions,omitempty" dynamodbav:"transactions"`
}

// Expired reports whether the account's balance is logically zero because
// its expiry instant has passed.
func (a *CreditAccount) Expired(now time.Time) bool {
	return a.Expiry != nil && now.After(*a.Expiry)
}

// CreditStats aggregates the credit system across all accounts.
type CreditStats struct {
	TotalAccounts  int `json:"total_accounts"`
	TotalBalance   int `json:"total_balance"`
	TotalEarned    int `json:"total_earned"`
	TotalSpent     int `json:"total_spent"`
	TotalReferrals int `json:"total_referrals"`
}
