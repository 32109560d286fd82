package backend

import (
	"context"

	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

type claimRequest struct {
	FriendID int64 `json:"friend_id"`
}

func (c *Client) ReferralInfo(ctx context.Context) (*model.ReferralInfo, error) {
	var out model.ReferralInfo
	if err := c.getJSON(ctx, "/api/v1/referal/info", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Friends(ctx context.Context) ([]model.Friend, error) {
	var out []model.Friend
	if err := c.getJSON(ctx, "/api/v1/referal/friends", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ClaimReward(ctx context.Context, friendID int64) error {
	return c.postJSON(ctx, "/api/v1/referal/claim", claimRequest{FriendID: friendID}, nil)
}
