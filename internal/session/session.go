// Package session keeps one backend session per Telegram user: the backend
// client with its tokens and the feature stores built on top of it.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/backend"
	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
	"github.com/Nixie-Tech-LLC/islamapp/internal/payments"
	"github.com/Nixie-Tech-LLC/islamapp/internal/stores"
	"github.com/Nixie-Tech-LLC/islamapp/internal/telegram"
)

var ErrNoSession = errors.New("no open session for user")

type Options struct {
	BackendURL  string
	GeoURL      string
	BotUsername string
	GeoCacheTTL time.Duration
	ScanTimeout time.Duration
	// IdleTTL is how long a session survives without requests. Zero keeps
	// sessions until logout or a failed refresh.
	IdleTTL    time.Duration
	Poller     payments.Poller
	HTTPClient *http.Client
}

type Session struct {
	UserID int64
	User   *model.User
	Lang   string
	Client *backend.Client

	Geo          *stores.Geo
	Prayers      *stores.Prayers
	Scanner      *stores.Scanner
	Premium      *stores.Premium
	Friends      *stores.Friends
	Translations *stores.Translations
	History      *stores.History
	QA           *stores.QA

	lastUsed time.Time // guarded by Manager.mu
}

type Manager struct {
	kv     kv.Store
	opts   Options
	onOpen func(*Session)
	now    func() time.Time

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager(store kv.Store, opts Options) *Manager {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Poller.Attempts <= 0 {
		opts.Poller = payments.NewPoller(payments.DefaultAttempts, payments.DefaultInterval)
	}
	return &Manager{kv: store, opts: opts, now: time.Now, sessions: make(map[int64]*Session)}
}

// OnOpen registers a hook that runs once for every newly created session,
// before it is handed out.
func (m *Manager) OnOpen(fn func(*Session)) {
	m.onOpen = fn
}

func userScope(id int64) string {
	return fmt.Sprintf("user:%d:", id)
}

// Open returns the session of the user in init, creating and authenticating
// it on first use. The start parameter is passed on as referral code.
func (m *Manager) Open(ctx context.Context, init *telegram.InitData) (*Session, error) {
	if init == nil || init.User.ID == 0 {
		return nil, telegram.ErrNoUser
	}
	id := init.User.ID

	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		s.lastUsed = m.now()
	}
	m.mu.Unlock()
	if ok {
		s.Client.SetInitData(init.Raw)
		return s, nil
	}

	s = m.build(init)
	sess, err := s.Client.Authenticate(ctx, init.StartParam)
	if err != nil {
		log.Error().Err(err).Int64("user", id).Msg("[session] backend authentication failed")
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	s.User = sess.User
	if s.User == nil {
		s.User = userFromInit(init.User)
	}

	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		existing.lastUsed = m.now()
		m.mu.Unlock()
		return existing, nil
	}
	s.lastUsed = m.now()
	m.sessions[id] = s
	m.mu.Unlock()

	if m.onOpen != nil {
		m.onOpen(s)
	}
	log.Info().Int64("user", id).Msg("[session] opened")
	return s, nil
}

func (m *Manager) build(init *telegram.InitData) *Session {
	id := init.User.ID
	local := kv.Scoped(m.kv, userScope(id))

	s := &Session{UserID: id, Lang: init.User.LanguageCode}
	if s.Lang == "" {
		s.Lang = stores.DefaultLanguage
	}
	s.Client = backend.New(backend.Config{
		BaseURL:          m.opts.BackendURL,
		InitData:         init.Raw,
		Tokens:           backend.KVTokens{Store: local},
		HTTPClient:       m.opts.HTTPClient,
		OnSessionExpired: func() { m.Close(id) },
	})

	s.Geo = stores.NewGeo(local, m.opts.GeoURL, m.opts.GeoCacheTTL, m.opts.HTTPClient)
	s.Prayers = stores.NewPrayers(s.Client, s.Geo, local)
	s.Scanner = stores.NewScanner(s.Client, m.opts.ScanTimeout)
	s.Premium = stores.NewPremium(s.Client, m.opts.Poller)
	s.Friends = stores.NewFriends(s.Client, m.opts.BotUsername)
	// Dictionaries are the same for everyone.
	s.Translations = stores.NewTranslations(s.Client, m.kv)
	s.History = stores.NewHistory(s.Client, local)
	s.QA = stores.NewQA(s.Client, local)

	s.Scanner.OnResult(func(res *model.ScanResult) {
		s.History.Add(context.Background(), res)
	})
	return s
}

func userFromInit(u telegram.WebAppUser) *model.User {
	out := &model.User{
		TelegramID:   u.ID,
		FirstName:    u.FirstName,
		LanguageCode: u.LanguageCode,
		IsPremium:    u.IsPremium,
	}
	if u.Username != "" {
		out.Username = &u.Username
	}
	if u.LastName != "" {
		out.LastName = &u.LastName
	}
	return out
}

// Get returns the open session of userID and marks it as used.
func (m *Manager) Get(userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	s.lastUsed = m.now()
	return s, nil
}

// Sweep closes sessions idle for longer than IdleTTL and returns how many
// were dropped. The user signs in again with fresh initData.
func (m *Manager) Sweep() int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var idle []int64
	for id, s := range m.sessions {
		if s.lastUsed.Before(cutoff) {
			idle = append(idle, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	if len(idle) > 0 {
		log.Info().Int("count", len(idle)).Msg("[session] idle sessions closed")
	}
	return len(idle)
}

// Close forgets the session. Stored tokens are left to the backend client,
// which clears them itself when a refresh fails.
func (m *Manager) Close(userID int64) {
	m.mu.Lock()
	_, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if ok {
		log.Info().Int64("user", userID).Msg("[session] closed")
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
