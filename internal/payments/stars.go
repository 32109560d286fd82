package payments

import (
	"context"
	"fmt"

	"github.com/Nixie-Tech-LLC/islamapp/internal/metrics"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

// Statuses reported by Telegram's openInvoice callback.
const (
	InvoicePaid      = "paid"
	InvoiceCancelled = "cancelled"
	InvoiceFailed    = "failed"
	InvoicePending   = "pending"
)

// InvoiceOpener shows a Stars invoice to the user and reports how the
// invoice popup was closed.
type InvoiceOpener interface {
	OpenInvoice(ctx context.Context, link string) (string, error)
}

type StarsBackend interface {
	CreateStarsInvoice(ctx context.Context, itemID string) (*model.StarsInvoice, error)
	CheckStarsPayment(ctx context.Context, payload string) (*model.PaymentStatus, error)
}

type Stars struct {
	Backend StarsBackend
	Opener  InvoiceOpener
	Poller  Poller
}

func NewStars(b StarsBackend, o InvoiceOpener, p Poller) *Stars {
	return &Stars{Backend: b, Opener: o, Poller: p}
}

func (s *Stars) Pay(ctx context.Context, itemID string) (*model.StarsInvoice, *model.PaymentStatus, error) {
	inv, err := s.Backend.CreateStarsInvoice(ctx, itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("create stars invoice: %w", err)
	}
	if inv.InvoiceLink == "" {
		return inv, nil, fmt.Errorf("create stars invoice: empty invoice link")
	}

	status, err := s.Opener.OpenInvoice(ctx, inv.InvoiceLink)
	if err != nil {
		return inv, nil, fmt.Errorf("open invoice: %w", err)
	}
	switch status {
	case InvoiceCancelled:
		metrics.ObservePayment("stars", "rejected")
		return inv, nil, ErrPaymentRejected
	case InvoiceFailed:
		metrics.ObservePayment("stars", "failed")
		return inv, nil, ErrPaymentFailed
	}

	st, err := s.WaitForConfirmation(ctx, inv.Payload)
	return inv, st, err
}

// WaitForConfirmation polls the Stars check endpoint; the Telegram "paid"
// callback alone does not mean the backend has granted premium yet.
func (s *Stars) WaitForConfirmation(ctx context.Context, payload string) (*model.PaymentStatus, error) {
	st, err := s.Poller.Wait(ctx, func(ctx context.Context) (*model.PaymentStatus, error) {
		return s.Backend.CheckStarsPayment(ctx, payload)
	})
	metrics.ObservePayment("stars", outcome(err))
	return st, err
}
