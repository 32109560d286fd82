package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
)

func newTestClient(t *testing.T, srv *httptest.Server, onExpired func()) (*Client, KVTokens) {
	t.Helper()
	tokens := KVTokens{Store: kv.NewMemory()}
	require.NoError(t, tokens.Save(context.Background(), "old", "refresh-1"))
	c := New(Config{
		BaseURL:          srv.URL,
		InitData:         "query_id=AAA&user=%7B%22id%22%3A42%7D&hash=x",
		Tokens:           tokens,
		HTTPClient:       srv.Client(),
		OnSessionExpired: onExpired,
	})
	return c, tokens
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_AttachesHeaders(t *testing.T) {
	var gotAuth, gotInit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotInit = r.Header.Get(InitDataHeader)
		writeJSON(w, http.StatusOK, map[string]any{"active": true})
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, nil)
	st, err := c.PremiumStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Active)
	assert.Equal(t, "Bearer old", gotAuth)
	assert.Contains(t, gotInit, "query_id=AAA")
}

func TestClient_RefreshesAndRetriesOnce(t *testing.T) {
	var refreshes, calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case refreshPath:
			atomic.AddInt32(&refreshes, 1)
			var body refreshRequest
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "refresh-1", body.RefreshToken)
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "new", "refresh_token": "refresh-2"})
		default:
			atomic.AddInt32(&calls, 1)
			if r.Header.Get("Authorization") != "Bearer new" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"active": true})
		}
	}))
	defer srv.Close()

	c, tokens := newTestClient(t, srv, nil)
	st, err := c.PremiumStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Active)
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshes))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	access, _ := tokens.AccessToken(context.Background())
	refresh, _ := tokens.RefreshToken(context.Background())
	assert.Equal(t, "new", access)
	assert.Equal(t, "refresh-2", refresh)
}

func TestClient_ConcurrentUnauthorizedRefreshesOnce(t *testing.T) {
	var refreshes, callsB int32
	refreshStarted := make(chan struct{})
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case refreshPath:
			atomic.AddInt32(&refreshes, 1)
			close(refreshStarted)
			<-release
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "new"})
		case "/api/v1/referal/friends":
			atomic.AddInt32(&callsB, 1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
		default:
			if r.Header.Get("Authorization") != "Bearer new" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"active": true})
		}
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, func() { t.Error("session must not expire") })

	var wg sync.WaitGroup
	var errA error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errA = c.PremiumStatus(context.Background())
	}()

	select {
	case <-refreshStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh never started")
	}

	_, errB := c.Friends(context.Background())
	assert.ErrorIs(t, errB, ErrRefreshInProgress)

	close(release)
	wg.Wait()

	assert.NoError(t, errA)
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshes), "only one refresh POST")
	assert.EqualValues(t, 1, atomic.LoadInt32(&callsB), "B is not retried")
}

func TestClient_RefreshFailureClearsSession(t *testing.T) {
	expired := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == refreshPath {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "refresh token revoked"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
	}))
	defer srv.Close()

	c, tokens := newTestClient(t, srv, func() { expired++ })
	_, err := c.Prices(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, expired)

	access, _ := tokens.AccessToken(context.Background())
	assert.Empty(t, access)
	assert.Equal(t, "session expired, please reopen the app", HumanMessage(err))
}

func TestClient_StillUnauthorizedAfterRefresh(t *testing.T) {
	var refreshes int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == refreshPath {
			atomic.AddInt32(&refreshes, 1)
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "new"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "banned"})
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, nil)
	_, err := c.Prices(context.Background())
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshes))
}

func TestAPIErrorMessages(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"detail":"item not found"}`, "item not found"},
		{`{"detail":[{"loc":["body"],"msg":"field required"}]}`, "field required"},
		{`{"message":"bad image"}`, "bad image"},
		{`{"error":"nope"}`, "nope"},
		{`<html>oops</html>`, "Bad Gateway"},
	}
	for _, tc := range cases {
		err := newAPIError(http.StatusBadGateway, []byte(tc.body))
		assert.Equal(t, tc.want, err.Message, tc.body)
	}
}

func TestAuthenticate_StoresTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, authPath, r.URL.Path)
		var body authRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Contains(t, body.InitData, "query_id=AAA")
		assert.Equal(t, "ref42", body.ReferralCode)
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "a1",
			"refresh_token": "r1",
			"user":          map[string]any{"id": 1, "telegram_id": 42, "first_name": "Amina"},
		})
	}))
	defer srv.Close()

	c, tokens := newTestClient(t, srv, nil)
	s, err := c.Authenticate(context.Background(), "ref42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.User.TelegramID)

	access, _ := tokens.AccessToken(context.Background())
	assert.Equal(t, "a1", access)
}

func TestAnalyzeScan_SendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "label.jpg", hdr.Filename)
		assert.Equal(t, []byte("jpeg-bytes"), data)
		assert.Equal(t, "en", r.FormValue("lang"))
		writeJSON(w, http.StatusOK, map[string]any{"id": "s1", "verdict": "needs_info", "questions": []string{"Is the gelatin bovine?"}})
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, nil)
	res, err := c.AnalyzeScan(context.Background(), ScanImage{
		Filename:    "label.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("jpeg-bytes"),
		Lang:        "en",
	})
	require.NoError(t, err)
	assert.Equal(t, "needs_info", string(res.Verdict))
	assert.Len(t, res.Questions, 1)
}

func TestLocateIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"city": "Kazan", "latitude": 55.79, "longitude": 49.12, "timezone": "Europe/Moscow"})
	}))
	defer srv.Close()

	g, err := LocateIP(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Kazan", g.City)
	assert.InDelta(t, 55.79, g.Latitude, 1e-9)
}
