package model

import "time"

type User struct {
	ID           int64   `json:"id"`
	TelegramID   int64   `json:"telegram_id"`
	Username     *string `json:"username,omitempty"`
	FirstName    string  `json:"first_name"`
	LastName     *string `json:"last_name,omitempty"`
	LanguageCode string  `json:"language_code"`
	IsPremium    bool    `json:"is_premium"`
	ReferralCode string  `json:"referral_code"`
}

// Session is the backend answer to an auth or refresh call.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user,omitempty"`
}
