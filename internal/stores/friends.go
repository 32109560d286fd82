package stores

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/Nixie-Tech-LLC/islamapp/internal/backend"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

var ErrAlreadyClaimed = errors.New("reward already claimed")

type FriendsBackend interface {
	ReferralInfo(ctx context.Context) (*model.ReferralInfo, error)
	Friends(ctx context.Context) ([]model.Friend, error)
	ClaimReward(ctx context.Context, friendID int64) error
}

type FriendsData struct {
	Info    *model.ReferralInfo `json:"info"`
	Friends []model.Friend      `json:"friends"`
	Link    string              `json:"link"`
}

type Friends struct {
	*store[FriendsData]

	backend FriendsBackend
	bot     string
}

func NewFriends(b FriendsBackend, botUsername string) *Friends {
	return &Friends{store: newStore(FriendsData{}), backend: b, bot: botUsername}
}

// InviteLink opens the Mini App with code as the start parameter.
func InviteLink(bot, code string) string {
	return fmt.Sprintf("https://t.me/%s?startapp=%s", bot, url.QueryEscape(code))
}

func (f *Friends) Load(ctx context.Context) (FriendsData, error) {
	f.startLoading()

	info, err := f.backend.ReferralInfo(ctx)
	if err != nil {
		f.fail(backend.HumanMessage(err))
		return FriendsData{}, err
	}
	friends, err := f.backend.Friends(ctx)
	if err != nil {
		f.fail(backend.HumanMessage(err))
		return FriendsData{}, err
	}

	data := FriendsData{Info: info, Friends: friends}
	if info.Code != "" {
		data.Link = InviteLink(f.bot, info.Code)
	}
	f.update(func(st *State[FriendsData]) {
		st.Loading = false
		st.Data = data
	})
	return data, nil
}

// Claim collects the premium reward for an invited friend and reloads the
// list so the counters match the backend.
func (f *Friends) Claim(ctx context.Context, friendID int64) (FriendsData, error) {
	for _, fr := range f.Snapshot().Data.Friends {
		if fr.ID == friendID && fr.Claimed {
			return FriendsData{}, ErrAlreadyClaimed
		}
	}
	if err := f.backend.ClaimReward(ctx, friendID); err != nil {
		f.fail(backend.HumanMessage(err))
		return FriendsData{}, err
	}
	return f.Load(ctx)
}
