package model

import "time"

// Currency codes accepted by the backend price list.
const (
	CurrencyTON   = "TON"
	CurrencyStars = "XTR"
)

type PriceCurrency struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

type PriceItem struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Days        int             `json:"days"`
	Prices      []PriceCurrency `json:"prices"`
}

// Price returns the amount for a currency, if the item is sold in it.
func (p PriceItem) Price(currency string) (float64, bool) {
	for _, c := range p.Prices {
		if c.Currency == currency {
			return c.Amount, true
		}
	}
	return 0, false
}

type PremiumStatus struct {
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type TonInvoice struct {
	Payload    string `json:"payload"`
	Address    string `json:"address"`
	Amount     string `json:"amount"` // nanotons
	Comment    string `json:"comment,omitempty"`
	ValidUntil int64  `json:"valid_until"`
}

type StarsInvoice struct {
	Payload     string `json:"payload"`
	InvoiceLink string `json:"invoice_link"`
}

const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

type PaymentStatus struct {
	Status string `json:"status"`
}

// PaymentRecord is a row of the gateway payment journal.
type PaymentRecord struct {
	ID        string    `db:"id"          json:"id"`
	UserID    int64     `db:"user_id"     json:"user_id"`
	Provider  string    `db:"provider"    json:"provider"`
	ItemID    string    `db:"item_id"     json:"item_id"`
	Payload   string    `db:"payload"     json:"payload"`
	Status    string    `db:"status"      json:"status"`
	CreatedAt time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt time.Time `db:"updated_at"  json:"updated_at"`
}
