// Package payments settles premium purchases through TON wallets and
// Telegram Stars. Both flows create a server-side invoice, hand it to the
// user's wallet UI and then poll the backend until the payment settles.
package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

const (
	DefaultAttempts = 20
	DefaultInterval = 3 * time.Second
)

var (
	ErrConfirmationTimeout = errors.New("payment was not confirmed in time")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrPaymentRejected     = errors.New("payment rejected by user")
	ErrItemNotFound        = errors.New("price item not found")
)

// CheckFunc asks the backend for the current status of one payment.
type CheckFunc func(ctx context.Context) (*model.PaymentStatus, error)

// Poller is a fixed-count, fixed-spacing confirmation loop.
type Poller struct {
	Attempts int
	Interval time.Duration
}

func NewPoller(attempts int, interval time.Duration) Poller {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Poller{Attempts: attempts, Interval: interval}
}

// Wait calls check until it reports success or failure, at most Attempts
// times with Interval between calls. A failing check counts as an attempt.
func (p Poller) Wait(ctx context.Context, check CheckFunc) (*model.PaymentStatus, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		st, err := check(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Int("attempt", attempt).Msg("[payments] status check failed")
		case st == nil:
		case st.Status == model.PaymentSuccess:
			return &model.PaymentStatus{Status: model.PaymentSuccess}, nil
		case st.Status == model.PaymentFailed:
			return nil, ErrPaymentFailed
		}

		if attempt == attempts {
			break
		}
		t := time.NewTimer(p.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrConfirmationTimeout, attempts)
}
