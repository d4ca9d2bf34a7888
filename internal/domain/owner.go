package domain

import "time"

// Owner is a user of the gate, registered lazily on first contact.
type Owner struct {
	OwnerID       int64      `json:"owner_id" dynamodbav:"owner_id"`
	Banned        bool       `json:"banned" dynamodbav:"banned"`
	Premium       bool       `json:"premium" dynamodbav:"premium"`
	PremiumExpire *time.Time `json:"premium_expire,omitempty" dynamodbav:"premium_expire"`
	CreatedAt     time.Time  `json:"created" dynamodbav:"created_at"`
}

// PremiumActive reports whether premium status is currently in force.
// An elapsed expiry means premium is logically off even before the lazy
// revoke runs.
func (o *Owner) PremiumActive(now time.Time) bool {
	if !o.Premium {
		return false
	}
	return o.PremiumExpire == nil || now.Before(*o.PremiumExpire)
}
