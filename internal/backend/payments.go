package backend

import (
	"context"
	"net/url"

	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

type invoiceRequest struct {
	ItemID string `json:"item_id"`
}

func (c *Client) Prices(ctx context.Context) ([]model.PriceItem, error) {
	var out []model.PriceItem
	if err := c.getJSON(ctx, "/api/v1/payments/prices", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PremiumStatus(ctx context.Context) (*model.PremiumStatus, error) {
	var out model.PremiumStatus
	if err := c.getJSON(ctx, "/api/v1/user/premium", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTonInvoice(ctx context.Context, itemID string) (*model.TonInvoice, error) {
	var out model.TonInvoice
	if err := c.postJSON(ctx, "/api/v1/payments/ton/invoice", invoiceRequest{ItemID: itemID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckTonPayment(ctx context.Context, payload string) (*model.PaymentStatus, error) {
	var out model.PaymentStatus
	if err := c.getJSON(ctx, "/api/v1/payments/ton/"+url.PathEscape(payload)+"/check", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateStarsInvoice(ctx context.Context, itemID string) (*model.StarsInvoice, error) {
	var out model.StarsInvoice
	if err := c.postJSON(ctx, "/api/v1/payments/stars/invoice", invoiceRequest{ItemID: itemID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckStarsPayment(ctx context.Context, payload string) (*model.PaymentStatus, error) {
	var out model.PaymentStatus
	if err := c.getJSON(ctx, "/api/v1/payments/stars/"+url.PathEscape(payload)+"/check", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
