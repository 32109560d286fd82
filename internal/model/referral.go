package model

import "time"

type ReferralInfo struct {
	Code         string `json:"code"`
	Invited      int    `json:"invited"`
	RewardDays   int    `json:"reward_days"`
	PendingClaim int    `json:"pending_claim"`
}

type Friend struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Username  *string   `json:"username,omitempty"`
	Claimed   bool      `json:"claimed"`
	JoinedAt  time.Time `json:"joined_at"`
	IsPremium bool      `json:"is_premium"`
}
