package entities

import (
	"time"
)

// ReferralStatus represents a referral's position in the conversion funnel.
// Transitions only move forward: pending -> signed_up -> first_unlock.
type ReferralStatus string

const (
	ReferralStatusPending     ReferralStatus = "pending"
	ReferralStatusSignedUp    ReferralStatus = "signed_up"
	ReferralStatusFirstUnlock ReferralStatus = "first_unlock"
)

// rank orders funnel statuses so transitions never regress
var referralStatusRank = map[ReferralStatus]int{
	ReferralStatusPending:     0,
	ReferralStatusSignedUp:    1,
	ReferralStatusFirstUnlock: 2,
}

// Advances reports whether moving from the current status to next is a
// forward transition in the funnel.
func (s ReferralStatus) Advances(next ReferralStatus) bool {
	return referralStatusRank[next] > referralStatusRank[s]
}

// Referral represents a referrer's invite code and its conversion state.
// A referrer has exactly one active referral record.
type Referral struct {
	ID             string
	ReferrerID     string         // User who owns the code
	ReferredUserID string         // Set once someone converts with the code
	ReferralCode   string         // Globally unique short code
	Status         ReferralStatus
	CreatedAt      time.Time
	CompletedAt    time.Time // Zero until the referral converts
}

// ReferralStats is a derived projection over a referrer's funnel.
// TotalEarned is recomputed from status counts, never stored.
type ReferralStats struct {
	TotalReferred int64                    `json:"total_referred"`
	TotalEarned   int64                    `json:"total_earned"`
	StatusCounts  map[ReferralStatus]int64 `json:"status_counts"`
}
