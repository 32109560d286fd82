package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/metrics"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

// TonMessage is one outgoing message of a TonConnect transaction.
type TonMessage struct {
	Address string `json:"address"`
	Amount  string `json:"amount"` // nanotons
	Payload string `json:"payload,omitempty"`
}

// TonTransaction is what gets handed to the connected wallet.
type TonTransaction struct {
	ValidUntil int64        `json:"validUntil"`
	Messages   []TonMessage `json:"messages"`
}

// Wallet is the connected TON wallet (TonConnect on the client side). It
// returns the signed message BOC or an error if the user declined.
type Wallet interface {
	SendTransaction(ctx context.Context, tx TonTransaction) (string, error)
}

// ErrWalletDeclined should be returned by Wallet implementations when the
// user closes the confirmation dialog.
var ErrWalletDeclined = errors.New("wallet declined transaction")

type TonBackend interface {
	CreateTonInvoice(ctx context.Context, itemID string) (*model.TonInvoice, error)
	CheckTonPayment(ctx context.Context, payload string) (*model.PaymentStatus, error)
}

type TON struct {
	Backend TonBackend
	Wallet  Wallet
	Poller  Poller
	now     func() time.Time
}

func NewTON(b TonBackend, w Wallet, p Poller) *TON {
	return &TON{Backend: b, Wallet: w, Poller: p, now: time.Now}
}

// Transaction builds the wallet request for an invoice. Invoices without a
// validity window get five minutes.
func (t *TON) Transaction(inv *model.TonInvoice) TonTransaction {
	validUntil := inv.ValidUntil
	if validUntil == 0 {
		validUntil = t.now().Add(5 * time.Minute).Unix()
	}
	payload := inv.Comment
	if payload == "" {
		payload = inv.Payload
	}
	return TonTransaction{
		ValidUntil: validUntil,
		Messages:   []TonMessage{{Address: inv.Address, Amount: inv.Amount, Payload: payload}},
	}
}

// Pay runs the whole purchase: invoice, wallet confirmation, settlement.
func (t *TON) Pay(ctx context.Context, itemID string) (*model.TonInvoice, *model.PaymentStatus, error) {
	inv, err := t.Backend.CreateTonInvoice(ctx, itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("create ton invoice: %w", err)
	}
	if inv.Address == "" || inv.Amount == "" || inv.Payload == "" {
		return inv, nil, fmt.Errorf("create ton invoice: incomplete invoice")
	}

	if _, err := t.Wallet.SendTransaction(ctx, t.Transaction(inv)); err != nil {
		log.Warn().Err(err).Str("payload", inv.Payload).Msg("[payments] ton wallet did not send")
		metrics.ObservePayment("ton", "rejected")
		return inv, nil, fmt.Errorf("%w: %v", ErrPaymentRejected, err)
	}

	st, err := t.WaitForConfirmation(ctx, inv.Payload)
	return inv, st, err
}

// WaitForConfirmation polls the TON check endpoint for payload.
func (t *TON) WaitForConfirmation(ctx context.Context, payload string) (*model.PaymentStatus, error) {
	st, err := t.Poller.Wait(ctx, func(ctx context.Context) (*model.PaymentStatus, error) {
		return t.Backend.CheckTonPayment(ctx, payload)
	})
	metrics.ObservePayment("ton", outcome(err))
	return st, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrConfirmationTimeout):
		return "timeout"
	case errors.Is(err, ErrPaymentFailed):
		return "failed"
	default:
		return "error"
	}
}
