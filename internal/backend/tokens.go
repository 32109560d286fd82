package backend

import (
	"context"
	"errors"

	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
)

const (
	accessTokenKey  = "accessToken"
	refreshTokenKey = "refreshToken"
)

// TokenStore persists the backend session tokens.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	Save(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// KVTokens keeps tokens in a kv.Store under the same keys the web client
// used in local storage.
type KVTokens struct {
	Store kv.Store
}

func (t KVTokens) AccessToken(ctx context.Context) (string, error) {
	return t.get(ctx, accessTokenKey)
}

func (t KVTokens) RefreshToken(ctx context.Context) (string, error) {
	return t.get(ctx, refreshTokenKey)
}

func (t KVTokens) Save(ctx context.Context, access, refresh string) error {
	if err := t.Store.Set(ctx, accessTokenKey, access, 0); err != nil {
		return err
	}
	if refresh == "" {
		return nil
	}
	return t.Store.Set(ctx, refreshTokenKey, refresh, 0)
}

func (t KVTokens) Clear(ctx context.Context) error {
	return errors.Join(
		t.Store.Delete(ctx, accessTokenKey),
		t.Store.Delete(ctx, refreshTokenKey),
	)
}

func (t KVTokens) get(ctx context.Context, key string) (string, error) {
	v, err := t.Store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	return v, err
}
