// Package telegram validates the initData string the Telegram client hands
// to a Mini App.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingHash  = errors.New("init data: hash is missing")
	ErrBadSignature = errors.New("init data: signature mismatch")
	ErrExpired      = errors.New("init data: expired")
	ErrNoUser       = errors.New("init data: user is missing")
)

type WebAppUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
}

type InitData struct {
	Raw        string
	QueryID    string
	User       WebAppUser
	AuthDate   time.Time
	StartParam string
}

// Validate checks the signature of raw against botToken and rejects data
// older than maxAge (maxAge <= 0 disables the age check).
func Validate(raw, botToken string, maxAge time.Duration) (*InitData, error) {
	return validateAt(raw, botToken, maxAge, time.Now())
}

func validateAt(raw, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("init data: %w", err)
	}
	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrMissingHash
	}

	want := Sign(values, botToken)
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(hash))) {
		return nil, ErrBadSignature
	}

	out := &InitData{
		Raw:        raw,
		QueryID:    values.Get("query_id"),
		StartParam: values.Get("start_param"),
	}
	if ts, err := strconv.ParseInt(values.Get("auth_date"), 10, 64); err == nil {
		out.AuthDate = time.Unix(ts, 0)
	}
	if maxAge > 0 && (out.AuthDate.IsZero() || now.Sub(out.AuthDate) > maxAge) {
		return nil, ErrExpired
	}

	u := values.Get("user")
	if u == "" {
		return nil, ErrNoUser
	}
	if err := json.Unmarshal([]byte(u), &out.User); err != nil {
		return nil, fmt.Errorf("init data: user: %w", err)
	}
	if out.User.ID == 0 {
		return nil, ErrNoUser
	}
	return out, nil
}

// Sign computes the hex hash Telegram puts in the "hash" field: the
// data-check-string (sorted key=value lines without hash) signed with
// HMAC-SHA256 keyed by HMAC-SHA256("WebAppData", botToken).
func Sign(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
