package backend

import (
	"context"
	"fmt"

	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

type authRequest struct {
	InitData     string `json:"init_data"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Authenticate exchanges Telegram init data for a backend session and stores
// its tokens. referralCode comes from the Mini App start_param.
func (c *Client) Authenticate(ctx context.Context, referralCode string) (*model.Session, error) {
	c.mu.Lock()
	initData := c.initData
	c.mu.Unlock()

	var s model.Session
	if err := c.postJSON(ctx, authPath, authRequest{InitData: initData, ReferralCode: referralCode}, &s); err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, fmt.Errorf("auth: empty access token")
	}
	if err := c.tokens.Save(ctx, s.AccessToken, s.RefreshToken); err != nil {
		return nil, fmt.Errorf("auth: store tokens: %w", err)
	}
	return &s, nil
}

// Refresh renews the access token with the stored refresh token.
func (c *Client) Refresh(ctx context.Context) error {
	refresh, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if refresh == "" {
		return ErrNoRefreshToken
	}

	var s model.Session
	if err := c.postJSON(ctx, refreshPath, refreshRequest{RefreshToken: refresh}, &s); err != nil {
		return err
	}
	if s.AccessToken == "" {
		return fmt.Errorf("refresh: empty access token")
	}
	if s.RefreshToken == "" {
		s.RefreshToken = refresh
	}
	return c.tokens.Save(ctx, s.AccessToken, s.RefreshToken)
}

// Logout forgets the stored tokens.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.Clear(ctx)
}
