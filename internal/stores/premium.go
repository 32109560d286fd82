package stores

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/backend"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
	"github.com/Nixie-Tech-LLC/islamapp/internal/payments"
)

// ErrUnknownPayment is returned when a confirmation names a payload this
// session never invoiced.
var ErrUnknownPayment = errors.New("unknown payment")

type PremiumBackend interface {
	payments.TonBackend
	payments.StarsBackend
	Prices(ctx context.Context) ([]model.PriceItem, error)
	PremiumStatus(ctx context.Context) (*model.PremiumStatus, error)
}

// PaymentEvent describes one step of a purchase for the journal and for
// user notifications.
type PaymentEvent struct {
	Provider string `json:"provider"`
	ItemID   string `json:"item_id"`
	Payload  string `json:"payload"`
	Status   string `json:"status"`
}

type PremiumData struct {
	Prices []model.PriceItem     `json:"prices"`
	Status *model.PremiumStatus `json:"status"`
}

type Premium struct {
	*store[PremiumData]

	backend   PremiumBackend
	poller    payments.Poller
	onPayment func(PaymentEvent)

	mu       sync.Mutex
	invoices map[string]string // provider/payload -> item id
}

func NewPremium(b PremiumBackend, poller payments.Poller) *Premium {
	return &Premium{
		store:    newStore(PremiumData{}),
		backend:  b,
		poller:   poller,
		invoices: make(map[string]string),
	}
}

func (p *Premium) OnPayment(fn func(PaymentEvent)) {
	p.onPayment = fn
}

func (p *Premium) LoadPrices(ctx context.Context) ([]model.PriceItem, error) {
	p.startLoading()
	prices, err := p.backend.Prices(ctx)
	if err != nil {
		p.fail(backend.HumanMessage(err))
		return nil, err
	}
	p.update(func(st *State[PremiumData]) {
		st.Loading = false
		st.Data.Prices = prices
	})
	return prices, nil
}

func (p *Premium) LoadStatus(ctx context.Context) (*model.PremiumStatus, error) {
	st, err := p.backend.PremiumStatus(ctx)
	if err != nil {
		p.fail(backend.HumanMessage(err))
		return nil, err
	}
	p.update(func(s *State[PremiumData]) {
		s.Data.Status = st
	})
	return st, nil
}

// checkItem rejects items that the loaded price list does not sell in
// currency. Without a loaded price list the backend decides.
func (p *Premium) checkItem(itemID, currency string) error {
	prices := p.Snapshot().Data.Prices
	if len(prices) == 0 {
		return nil
	}
	for _, it := range prices {
		if it.ID == itemID {
			if _, ok := it.Price(currency); ok {
				return nil
			}
			return fmt.Errorf("%w: %s is not sold for %s", payments.ErrItemNotFound, itemID, currency)
		}
	}
	return fmt.Errorf("%w: %s", payments.ErrItemNotFound, itemID)
}

// CreateTonInvoice starts a TON purchase whose transaction is signed by the
// wallet connected in the Mini App.
func (p *Premium) CreateTonInvoice(ctx context.Context, itemID string) (*model.TonInvoice, payments.TonTransaction, error) {
	if err := p.checkItem(itemID, model.CurrencyTON); err != nil {
		return nil, payments.TonTransaction{}, p.reject(err)
	}
	ton := payments.NewTON(p.backend, nil, p.poller)
	inv, err := p.backend.CreateTonInvoice(ctx, itemID)
	if err != nil {
		p.fail(backend.HumanMessage(err))
		return nil, payments.TonTransaction{}, err
	}
	p.issue("ton", itemID, inv.Payload)
	return inv, ton.Transaction(inv), nil
}

// ConfirmTon waits for the backend to see the TON transfer for payload.
// Only payloads invoiced by this session are accepted; the item recorded
// with the invoice wins over itemID.
func (p *Premium) ConfirmTon(ctx context.Context, itemID, payload string) (*model.PaymentStatus, error) {
	itemID, err := p.invoiced("ton", itemID, payload)
	if err != nil {
		return nil, p.reject(err)
	}
	st, err := payments.NewTON(p.backend, nil, p.poller).WaitForConfirmation(ctx, payload)
	return p.settle(ctx, "ton", itemID, payload, st, err)
}

// BuyWithTON runs the full purchase with a wallet the caller controls.
func (p *Premium) BuyWithTON(ctx context.Context, itemID string, w payments.Wallet) (*model.PaymentStatus, error) {
	if err := p.checkItem(itemID, model.CurrencyTON); err != nil {
		return nil, p.reject(err)
	}
	inv, st, err := payments.NewTON(p.backend, w, p.poller).Pay(ctx, itemID)
	payload := ""
	if inv != nil {
		payload = inv.Payload
	}
	return p.settle(ctx, "ton", itemID, payload, st, err)
}

func (p *Premium) CreateStarsInvoice(ctx context.Context, itemID string) (*model.StarsInvoice, error) {
	if err := p.checkItem(itemID, model.CurrencyStars); err != nil {
		return nil, p.reject(err)
	}
	inv, err := p.backend.CreateStarsInvoice(ctx, itemID)
	if err != nil {
		p.fail(backend.HumanMessage(err))
		return nil, err
	}
	p.issue("stars", itemID, inv.Payload)
	return inv, nil
}

// ConfirmStars is called after openInvoice reported invoiceStatus.
func (p *Premium) ConfirmStars(ctx context.Context, itemID, payload, invoiceStatus string) (*model.PaymentStatus, error) {
	itemID, err := p.invoiced("stars", itemID, payload)
	if err != nil {
		return nil, p.reject(err)
	}
	switch invoiceStatus {
	case payments.InvoiceCancelled:
		return p.settle(ctx, "stars", itemID, payload, nil, payments.ErrPaymentRejected)
	case payments.InvoiceFailed:
		return p.settle(ctx, "stars", itemID, payload, nil, payments.ErrPaymentFailed)
	}
	st, err := payments.NewStars(p.backend, nil, p.poller).WaitForConfirmation(ctx, payload)
	return p.settle(ctx, "stars", itemID, payload, st, err)
}

func (p *Premium) BuyWithStars(ctx context.Context, itemID string, o payments.InvoiceOpener) (*model.PaymentStatus, error) {
	if err := p.checkItem(itemID, model.CurrencyStars); err != nil {
		return nil, p.reject(err)
	}
	inv, st, err := payments.NewStars(p.backend, o, p.poller).Pay(ctx, itemID)
	payload := ""
	if inv != nil {
		payload = inv.Payload
	}
	return p.settle(ctx, "stars", itemID, payload, st, err)
}

// issue remembers an invoice handed to this session and journals it.
func (p *Premium) issue(provider, itemID, payload string) {
	if payload == "" {
		return
	}
	p.mu.Lock()
	p.invoices[provider+"/"+payload] = itemID
	p.mu.Unlock()
	p.emit(PaymentEvent{Provider: provider, ItemID: itemID, Payload: payload, Status: model.PaymentPending})
}

func (p *Premium) invoiced(provider, itemID, payload string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	item, ok := p.invoices[provider+"/"+payload]
	if !ok {
		return "", fmt.Errorf("%w: %s %s", ErrUnknownPayment, provider, payload)
	}
	if item == "" {
		item = itemID
	}
	return item, nil
}

// reject puts a locally detected error into the error state.
func (p *Premium) reject(err error) error {
	p.fail(paymentMessage(err))
	return err
}

func (p *Premium) forget(provider, payload string) {
	p.mu.Lock()
	delete(p.invoices, provider+"/"+payload)
	p.mu.Unlock()
}

// settle reports the outcome of a purchase. A confirmation timeout leaves
// the payment pending: it may still settle and can be confirmed again.
func (p *Premium) settle(ctx context.Context, provider, itemID, payload string, st *model.PaymentStatus, err error) (*model.PaymentStatus, error) {
	if err != nil {
		log.Warn().Err(err).Str("provider", provider).Str("payload", payload).Msg("[premium] payment not settled")
		p.fail(paymentMessage(err))
		status := model.PaymentFailed
		if errors.Is(err, payments.ErrConfirmationTimeout) {
			status = model.PaymentPending
		} else {
			p.forget(provider, payload)
		}
		p.emit(PaymentEvent{Provider: provider, ItemID: itemID, Payload: payload, Status: status})
		return nil, err
	}
	p.forget(provider, payload)
	p.emit(PaymentEvent{Provider: provider, ItemID: itemID, Payload: payload, Status: model.PaymentSuccess})
	if _, err := p.LoadStatus(ctx); err != nil {
		log.Error().Err(err).Msg("[premium] failed to refresh status after payment")
	}
	return st, nil
}

func (p *Premium) emit(ev PaymentEvent) {
	if p.onPayment != nil && ev.Payload != "" {
		p.onPayment(ev)
	}
}

func paymentMessage(err error) string {
	switch {
	case errors.Is(err, payments.ErrPaymentRejected):
		return "payment was cancelled"
	case errors.Is(err, payments.ErrPaymentFailed):
		return "payment failed"
	case errors.Is(err, payments.ErrConfirmationTimeout):
		return "payment is still processing, check back later"
	case errors.Is(err, payments.ErrItemNotFound):
		return "this plan is not available"
	case errors.Is(err, ErrUnknownPayment):
		return "payment not found"
	default:
		return backend.HumanMessage(err)
	}
}
