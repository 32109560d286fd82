package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/db"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
	"github.com/Nixie-Tech-LLC/islamapp/internal/notify"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
	"github.com/Nixie-Tech-LLC/islamapp/internal/stores"
)

const hookTimeout = 5 * time.Second

// sessionHooks attaches the payment journal and user events to every new
// session. journal may be nil.
func sessionHooks(journal db.Store, pub notify.Publisher) func(*session.Session) {
	return func(s *session.Session) {
		s.Premium.OnPayment(paymentRecorder(journal, pub, s.UserID))
		s.Prayers.Subscribe(prayersNotifier(pub, s.UserID))
	}
}

func paymentRecorder(journal db.Store, pub notify.Publisher, userID int64) func(stores.PaymentEvent) {
	return func(ev stores.PaymentEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
		defer cancel()

		if journal != nil {
			if err := journalPayment(ctx, journal, userID, ev); err != nil {
				log.Error().Err(err).Int64("user", userID).Str("payload", ev.Payload).Msg("[journal] failed to record payment")
			}
		}
		if ev.Status == model.PaymentPending {
			return
		}
		if err := pub.Publish(ctx, userID, notify.Event{Type: notify.EventPayment, Data: ev}); err != nil {
			log.Warn().Err(err).Int64("user", userID).Msg("[notify] payment event not delivered")
		}
	}
}

func journalPayment(ctx context.Context, journal db.Store, userID int64, ev stores.PaymentEvent) error {
	rec := &model.PaymentRecord{
		UserID:   userID,
		Provider: ev.Provider,
		ItemID:   ev.ItemID,
		Payload:  ev.Payload,
		Status:   ev.Status,
	}
	if ev.Status == model.PaymentPending {
		return journal.RecordPayment(ctx, rec)
	}
	err := journal.UpdatePaymentStatus(ctx, userID, ev.Provider, ev.Payload, ev.Status)
	if errors.Is(err, db.ErrPaymentNotFound) {
		return journal.RecordPayment(ctx, rec)
	}
	return err
}

// prayersNotifier publishes each newly loaded prayer schedule once.
// Listeners run on the goroutine of whichever request updated the store.
func prayersNotifier(pub notify.Publisher, userID int64) func(stores.State[stores.PrayersData]) {
	var (
		mu   sync.Mutex
		last *model.PrayerTimes
	)
	return func(st stores.State[stores.PrayersData]) {
		times := st.Data.Times
		if st.Loading || times == nil {
			return
		}
		mu.Lock()
		if times == last {
			mu.Unlock()
			return
		}
		last = times
		mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
		defer cancel()
		if err := pub.Publish(ctx, userID, notify.Event{Type: notify.EventPrayers, Data: times}); err != nil {
			log.Warn().Err(err).Int64("user", userID).Msg("[notify] prayers event not delivered")
		}
	}
}
