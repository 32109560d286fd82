package packets

import "github.com/Nixie-Tech-LLC/islamapp/internal/model"

// returned after a successful initData exchange
type AuthResponse struct {
	Token     string      `json:"token,omitempty"`
	ExpiresAt string      `json:"expires_at,omitempty"`
	User      *model.User `json:"user"`
	Lang      string      `json:"lang"`
}
