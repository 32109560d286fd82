// Package backend is the HTTP client for the islamapp REST backend. It
// attaches the bearer token and Telegram init data to every call and renews
// the access token once when the backend answers 401.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/metrics"
)

const (
	InitDataHeader = "X-Telegram-Init-Data"

	authPath    = "/api/v1/user/auth/"
	refreshPath = "/api/v1/user/auth/refresh"
)

type Config struct {
	BaseURL    string
	InitData   string
	Tokens     TokenStore
	HTTPClient *http.Client
	// OnSessionExpired runs after a failed refresh, once tokens are cleared.
	OnSessionExpired func()
}

type Client struct {
	baseURL   string
	initData  string
	tokens    TokenStore
	http      *http.Client
	onExpired func()

	mu         sync.Mutex
	refreshing bool
}

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		initData:  cfg.InitData,
		tokens:    cfg.Tokens,
		http:      hc,
		onExpired: cfg.OnSessionExpired,
	}
}

// SetInitData replaces the init data sent with each request, e.g. after the
// Mini App was reopened.
func (c *Client) SetInitData(initData string) {
	c.mu.Lock()
	c.initData = initData
	c.mu.Unlock()
}

// request is a fully buffered call so it can be replayed after a refresh.
type request struct {
	method      string
	path        string
	body        []byte
	contentType string
}

func jsonRequest(method, path string, in any) (request, error) {
	r := request{method: method, path: path}
	if in == nil {
		return r, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return r, fmt.Errorf("failed to marshal request body: %w", err)
	}
	r.body = b
	r.contentType = "application/json"
	return r, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path}, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	req, err := jsonRequest(http.MethodPost, path, in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

// do sends req and, on a 401, refreshes the access token and replays req
// exactly once. A 401 that arrives while another call is refreshing fails
// with ErrRefreshInProgress.
func (c *Client) do(ctx context.Context, req request, out any) error {
	status, body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && req.path != authPath && req.path != refreshPath {
		if err := c.refreshOnce(ctx); err != nil {
			return err
		}
		status, body, err = c.send(ctx, req)
		if err != nil {
			return err
		}
	}
	if status < 200 || status >= 300 {
		return newAPIError(status, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	return nil
}

func (c *Client) refreshOnce(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshing {
		c.mu.Unlock()
		return ErrRefreshInProgress
	}
	c.refreshing = true
	c.mu.Unlock()

	err := c.Refresh(ctx)

	c.mu.Lock()
	c.refreshing = false
	c.mu.Unlock()

	if err == nil {
		metrics.ObserveTokenRefresh("ok")
		return nil
	}
	metrics.ObserveTokenRefresh("failed")
	log.Warn().Err(err).Msg("[backend] token refresh failed, closing session")
	if clearErr := c.tokens.Clear(ctx); clearErr != nil {
		log.Error().Err(clearErr).Msg("[backend] failed to clear tokens")
	}
	if c.onExpired != nil {
		c.onExpired()
	}
	return fmt.Errorf("%w: %v", ErrSessionExpired, err)
}

func (c *Client) send(ctx context.Context, r request) (int, []byte, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	c.mu.Lock()
	initData := c.initData
	c.mu.Unlock()
	if initData != "" {
		req.Header.Set(InitDataHeader, initData)
	}
	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return 0, nil, fmt.Errorf("read access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return 0, nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	metrics.ObserveBackendRequest(r.method, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s %s: %w", r.method, r.path, err)
	}
	log.Debug().Str("method", r.method).Str("path", r.path).Int("status", resp.StatusCode).Msg("[backend] response")
	return resp.StatusCode, b, nil
}
