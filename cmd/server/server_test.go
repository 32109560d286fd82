package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/islamapp/internal/config"
	"github.com/Nixie-Tech-LLC/islamapp/internal/db"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
	"github.com/Nixie-Tech-LLC/islamapp/internal/notify"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
	"github.com/Nixie-Tech-LLC/islamapp/internal/storage"
	"github.com/Nixie-Tech-LLC/islamapp/internal/stores"
)

// fakeJournal mirrors the payments table: unique on provider and payload,
// inserts ignore conflicts, updates match the owner.
type fakeJournal struct {
	records map[string]*model.PaymentRecord
}

func (f *fakeJournal) RecordPayment(_ context.Context, rec *model.PaymentRecord) error {
	key := rec.Provider + "/" + rec.Payload
	if _, ok := f.records[key]; !ok {
		f.records[key] = rec
	}
	return nil
}

func (f *fakeJournal) UpdatePaymentStatus(_ context.Context, userID int64, provider, payload, status string) error {
	rec, ok := f.records[provider+"/"+payload]
	if !ok || rec.UserID != userID {
		return db.ErrPaymentNotFound
	}
	rec.Status = status
	return nil
}

func (f *fakeJournal) ListPayments(context.Context, int64) ([]model.PaymentRecord, error) {
	return nil, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakePublisher) Publish(_ context.Context, _ int64, ev notify.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) Close() {}

func TestPaymentRecorder(t *testing.T) {
	journal := &fakeJournal{records: map[string]*model.PaymentRecord{}}
	pub := &fakePublisher{}
	record := paymentRecorder(journal, pub, 42)

	record(stores.PaymentEvent{Provider: "ton", ItemID: "month", Payload: "p-1", Status: model.PaymentPending})
	require.Contains(t, journal.records, "ton/p-1")
	assert.Empty(t, pub.events)

	record(stores.PaymentEvent{Provider: "ton", ItemID: "month", Payload: "p-1", Status: model.PaymentSuccess})
	assert.Equal(t, model.PaymentSuccess, journal.records["ton/p-1"].Status)
	require.Len(t, pub.events, 1)
	assert.Equal(t, notify.EventPayment, pub.events[0].Type)

	// settled without a recorded invoice
	record(stores.PaymentEvent{Provider: "stars", ItemID: "month", Payload: "s-9", Status: model.PaymentFailed})
	require.Contains(t, journal.records, "stars/s-9")
	assert.EqualValues(t, 42, journal.records["stars/s-9"].UserID)
}

func TestPaymentRecorder_OtherUserCannotSettle(t *testing.T) {
	journal := &fakeJournal{records: map[string]*model.PaymentRecord{}}
	pub := &fakePublisher{}

	paymentRecorder(journal, pub, 42)(stores.PaymentEvent{Provider: "ton", ItemID: "month", Payload: "p-1", Status: model.PaymentPending})
	paymentRecorder(journal, pub, 7)(stores.PaymentEvent{Provider: "ton", ItemID: "month", Payload: "p-1", Status: model.PaymentFailed})

	rec := journal.records["ton/p-1"]
	require.NotNil(t, rec)
	assert.EqualValues(t, 42, rec.UserID)
	assert.Equal(t, model.PaymentPending, rec.Status)
}

func TestPaymentRecorder_TimeoutStaysPending(t *testing.T) {
	journal := &fakeJournal{records: map[string]*model.PaymentRecord{}}
	pub := &fakePublisher{}
	record := paymentRecorder(journal, pub, 42)

	record(stores.PaymentEvent{Provider: "ton", ItemID: "month", Payload: "p-1", Status: model.PaymentPending})
	record(stores.PaymentEvent{Provider: "ton", ItemID: "month", Payload: "p-1", Status: model.PaymentPending})

	assert.Equal(t, model.PaymentPending, journal.records["ton/p-1"].Status)
	assert.Empty(t, pub.events)
}

func TestPaymentRecorder_WithoutJournal(t *testing.T) {
	pub := &fakePublisher{}
	paymentRecorder(nil, pub, 1)(stores.PaymentEvent{Provider: "ton", Payload: "p", Status: model.PaymentSuccess})
	assert.Len(t, pub.events, 1)
}

func TestPrayersNotifier_PublishesOncePerSchedule(t *testing.T) {
	pub := &fakePublisher{}
	notifyFn := prayersNotifier(pub, 1)

	times := &model.PrayerTimes{Date: "2025-03-05"}
	notifyFn(stores.State[stores.PrayersData]{Loading: true})
	notifyFn(stores.State[stores.PrayersData]{Data: stores.PrayersData{Times: times}})
	notifyFn(stores.State[stores.PrayersData]{Data: stores.PrayersData{Times: times}})
	notifyFn(stores.State[stores.PrayersData]{Data: stores.PrayersData{Times: &model.PrayerTimes{Date: "2025-03-06"}}})

	require.Len(t, pub.events, 2)
	assert.Equal(t, notify.EventPrayers, pub.events[0].Type)
}

func TestPrayersNotifier_ConcurrentListeners(t *testing.T) {
	pub := &fakePublisher{}
	notifyFn := prayersNotifier(pub, 1)
	st := stores.State[stores.PrayersData]{Data: stores.PrayersData{Times: &model.PrayerTimes{Date: "2025-03-05"}}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			notifyFn(st)
		}()
	}
	wg.Wait()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.events, 1)
}

func TestRunSweeper_CallsSweepsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	calls := map[string]int{}
	sweep := func(name string) sweepFunc {
		return func() int {
			mu.Lock()
			defer mu.Unlock()
			calls[name]++
			return 1
		}
	}

	done := make(chan struct{})
	go func() {
		runSweeper(ctx, time.Millisecond, map[string]sweepFunc{"a": sweep("a"), "b": sweep("b")})
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls["a"] >= 2 && calls["b"] >= 2
	}, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestRegisterRoutes_HealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		BotToken:          "1:x",
		JWTSecret:         "secret",
		ScanRatePerMinute: 10,
		UploadDir:         t.TempDir(),
	}
	sessions := session.NewManager(kv.NewMemory(), session.Options{})

	r := gin.New()
	RegisterRoutes(r, cfg, sessions, nil, storage.NewLocalStorage(cfg.UploadDir), middleware.NewPerMinute(cfg.ScanRatePerMinute))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "islamapp_http_requests_total"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/app/prayers", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/app/auth", strings.NewReader(`{"init_data":"hash=bad"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
