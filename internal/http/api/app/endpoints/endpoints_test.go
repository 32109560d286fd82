package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
	"github.com/Nixie-Tech-LLC/islamapp/internal/payments"
	"github.com/Nixie-Tech-LLC/islamapp/internal/qibla"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
	"github.com/Nixie-Tech-LLC/islamapp/internal/storage"
	"github.com/Nixie-Tech-LLC/islamapp/internal/telegram"
)

const testSecret = "test-secret"

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fakeBackend() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/user/auth/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, model.Session{AccessToken: "a", RefreshToken: "r", User: &model.User{ID: 1, TelegramID: 42}})
	})
	mux.HandleFunc("/geo", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, model.GeoData{City: "Cairo", Latitude: 30.0444, Longitude: 31.2357, Timezone: "Africa/Cairo"})
	})
	mux.HandleFunc("GET /api/v1/prayers/settings", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusNotFound, map[string]string{"detail": "no settings"})
	})
	mux.HandleFunc("POST /api/v1/prayers/settings", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]bool{"ok": true})
	})
	mux.HandleFunc("/api/v1/prayers", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, model.PrayerTimes{
			Date:     r.URL.Query().Get("date"),
			City:     "Cairo",
			Timezone: "Africa/Cairo",
			Prayers: []model.Prayer{
				{Name: "Fajr", Time: "04:40"}, {Name: "Sunrise", Time: "06:05"}, {Name: "Dhuhr", Time: "12:00"},
				{Name: "Asr", Time: "15:25"}, {Name: "Maghrib", Time: "17:55"}, {Name: "Isha", Time: "19:12"},
			},
		})
	})
	mux.HandleFunc("/api/v1/scanner/analyze", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"id": "scan-1", "verdict": "halal", "summary": "no animal ingredients"})
	})
	mux.HandleFunc("/api/v1/scanner/history", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []model.HistoryItem{{ID: "scan-1", Verdict: model.VerdictHalal}})
	})
	mux.HandleFunc("/api/v1/qa/text/ask", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, model.QAAnswer{Answer: "Yes, if it is plant based."})
	})
	mux.HandleFunc("/api/v1/payments/prices", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []model.PriceItem{{ID: "month", Days: 30, Prices: []model.PriceCurrency{
			{Currency: model.CurrencyTON, Amount: 1.5}, {Currency: model.CurrencyStars, Amount: 100},
		}}})
	})
	mux.HandleFunc("/api/v1/user/premium", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, model.PremiumStatus{Active: true})
	})
	mux.HandleFunc("/api/v1/payments/ton/invoice", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, model.TonInvoice{Payload: "p-1", Address: "EQabc", Amount: "1500000000"})
	})
	mux.HandleFunc("/api/v1/payments/ton/p-1/check", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, model.PaymentStatus{Status: model.PaymentSuccess})
	})
	mux.HandleFunc("/api/v1/payments/stars/invoice", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, model.StarsInvoice{Payload: "s-1", InvoiceLink: "https://t.me/$inv"})
	})
	mux.HandleFunc("/api/v1/referal/info", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, model.ReferralInfo{Code: "ABC", Invited: 1})
	})
	mux.HandleFunc("/api/v1/referal/friends", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []model.Friend{{ID: 9, Name: "Yusuf"}})
	})
	mux.HandleFunc("/api/v1/referal/claim", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]bool{"ok": true})
	})
	mux.HandleFunc("/api/v1/translations", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]string{"hello": "salam:" + r.URL.Query().Get("lang")})
	})
	mux.HandleFunc("/api/v1/analytics/set", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return httptest.NewServer(mux)
}

type testEnv struct {
	router *gin.Engine
	token  string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	srv := fakeBackend()
	t.Cleanup(srv.Close)

	m := session.NewManager(kv.NewMemory(), session.Options{
		BackendURL:  srv.URL,
		GeoURL:      srv.URL + "/geo",
		BotUsername: "islamapp_bot",
		GeoCacheTTL: time.Hour,
		ScanTimeout: time.Second,
		Poller:      payments.NewPoller(3, time.Millisecond),
		HTTPClient:  srv.Client(),
	})
	_, err := m.Open(context.Background(), &telegram.InitData{Raw: "hash=x", User: telegram.WebAppUser{ID: 42, LanguageCode: "en"}})
	require.NoError(t, err)
	token, err := middleware.GenerateJWT(42, testSecret)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/app", Auth: true, SecretKey: testSecret, Sessions: m},
		GeoModule(),
		PrayersModule(),
		QiblaModule(),
		ScannerModule(storage.NewLocalStorage(t.TempDir()), nil),
		QAModule(),
		PremiumModule(),
		FriendsModule(),
		TranslationsModule(),
		AnalyticsModule(),
		DateModule(),
		PaymentsModule(nil),
	)
	return &testEnv{router: r, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestEndpoints_RequireToken(t *testing.T) {
	env := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/app/geo", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other, err := middleware.GenerateJWT(7, testSecret)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/app/geo", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEndpoints_GeoAndQibla(t *testing.T) {
	env := newEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/app/geo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cairo", body["city"])

	w, body = env.do(t, http.MethodGet, "/api/app/qibla?platform=ios&heading=90", nil)
	require.Equal(t, http.StatusOK, w.Code)
	bearing := qibla.Bearing(30.0444, 31.2357)
	assert.InDelta(t, bearing, body["bearing"], 1e-9)
	assert.InDelta(t, qibla.Normalize(bearing-90), body["rotation"], 1e-9)

	for _, q := range []string{"platform=ios&heading=NaN", "platform=android&alpha=Inf", "platform=android&alpha=-inf"} {
		w, body = env.do(t, http.MethodGet, "/api/app/qibla?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.NotEmpty(t, body["error"], q)
	}

	w, _ = env.do(t, http.MethodPost, "/api/app/geo/coordinates", map[string]float64{"latitude": 120, "longitude": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, body = env.do(t, http.MethodPost, "/api/app/geo/coordinates", map[string]float64{"latitude": 21.4225, "longitude": 39.8262})
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 21.4225, body["latitude"], 1e-9)
}

func TestEndpoints_Prayers(t *testing.T) {
	env := newEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/app/prayers?date=2025-03-05", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-03-05", body["date"])
	prayers := body["prayers"].([]any)
	require.Len(t, prayers, 6)
	maghrib := prayers[4].(map[string]any)
	assert.Equal(t, "05:55", maghrib["time_12h"])
	assert.Equal(t, "PM", maghrib["period"])

	w, _ = env.do(t, http.MethodGet, "/api/app/prayers?date=05.03.2025", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, "/api/app/prayers/settings", map[string]int{"method": 3, "school": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, body = env.do(t, http.MethodPut, "/api/app/prayers/settings", map[string]int{"method": 4, "school": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, body["method"])

	w, body = env.do(t, http.MethodGet, "/api/app/prayers/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["school"])
}

func TestEndpoints_ScannerAndHistory(t *testing.T) {
	env := newEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "label.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	require.NoError(t, mw.WriteField("lang", "ru"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/app/scanner/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res model.ScanResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, model.VerdictHalal, res.Verdict)
	assert.True(t, strings.HasPrefix(res.ImageURL, "/uploads/label_"))

	req = httptest.NewRequest(http.MethodPost, "/api/app/scanner/analyze", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer "+env.token)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/app/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "scan-1")
}

func TestEndpoints_QA(t *testing.T) {
	env := newEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/app/qa/ask", map[string]string{"question": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := env.do(t, http.MethodPost, "/api/app/qa/ask", map[string]string{"question": "Is E471 halal?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Is E471 halal?", body["question"])

	w, _ = env.do(t, http.MethodGet, "/api/app/qa", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "plant based")
}

func TestEndpoints_PremiumTon(t *testing.T) {
	env := newEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/app/premium/prices", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/app/premium/ton/invoice", map[string]string{"item_id": "year"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body := env.do(t, http.MethodPost, "/api/app/premium/ton/invoice", map[string]string{"item_id": "month"})
	require.Equal(t, http.StatusOK, w.Code)
	tx := body["transaction"].(map[string]any)
	assert.Len(t, tx["messages"], 1)

	w, body = env.do(t, http.MethodPost, "/api/app/premium/ton/p-1/confirm", map[string]string{"item_id": "month"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.PaymentSuccess, body["status"])

	w, body = env.do(t, http.MethodGet, "/api/app/premium/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["active"])
}

func TestEndpoints_StarsCancelled(t *testing.T) {
	env := newEnv(t)
	w, _ := env.do(t, http.MethodPost, "/api/app/premium/stars/invoice", map[string]string{"item_id": "month"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := env.do(t, http.MethodPost, "/api/app/premium/stars/s-1/confirm", map[string]string{"item_id": "month", "status": "cancelled"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "payment was cancelled", body["error"])

	w, _ = env.do(t, http.MethodPost, "/api/app/premium/stars/s-1/confirm", map[string]string{"status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEndpoints_ConfirmRequiresOwnInvoice(t *testing.T) {
	env := newEnv(t)

	// p-1 exists at the backend but was never invoiced to this user
	w, body := env.do(t, http.MethodPost, "/api/app/premium/ton/p-1/confirm", map[string]string{"item_id": "month"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "payment not found", body["error"])

	w, _ = env.do(t, http.MethodPost, "/api/app/premium/stars/s-1/confirm", map[string]string{"status": "failed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndpoints_Friends(t *testing.T) {
	env := newEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/app/friends", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://t.me/islamapp_bot?startapp=ABC", body["link"])

	w, _ = env.do(t, http.MethodPost, "/api/app/friends/abc/claim", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = env.do(t, http.MethodPost, "/api/app/friends/9/claim", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEndpoints_TranslationsDateAnalyticsPayments(t *testing.T) {
	env := newEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/app/translations/ru", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ru", body["lang"])
	assert.Equal(t, "salam:ru", body["strings"].(map[string]any)["hello"])

	w, body = env.do(t, http.MethodGet, "/api/app/date?format=YYYY-MM-DD&date=2024-03-05T14:07:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-05", body["value"])
	assert.Len(t, body["templates"], 9)
	w, _ = env.do(t, http.MethodGet, "/api/app/date?format=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, http.MethodPost, "/api/app/analytics", map[string]any{"event": "scan_opened"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["event_id"], 36)

	w, _ = env.do(t, http.MethodGet, "/api/app/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
