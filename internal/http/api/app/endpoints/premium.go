package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api/app/packets"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
)

// PremiumModule mounts prices, status and the TON and Stars purchase flows.
// Confirm endpoints block while the backend is polled for settlement.
func PremiumModule() api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/premium/prices", prices)
		c.GET("/premium/status", premiumStatus)
		c.POST("/premium/ton/invoice", tonInvoice)
		c.POST("/premium/ton/:payload/confirm", tonConfirm)
		c.POST("/premium/stars/invoice", starsInvoice)
		c.POST("/premium/stars/:payload/confirm", starsConfirm)
	})
}

// GET /api/app/premium/prices
func prices(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	items, err := s.Premium.LoadPrices(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(err, s.Premium.Snapshot().Error)
	}
	return items, nil
}

// GET /api/app/premium/status
func premiumStatus(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	st, err := s.Premium.LoadStatus(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(err, s.Premium.Snapshot().Error)
	}
	return st, nil
}

// POST /api/app/premium/ton/invoice
func tonInvoice(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	var request packets.InvoiceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	inv, tx, err := s.Premium.CreateTonInvoice(ctx.Request.Context(), request.ItemID)
	if err != nil {
		return nil, api.FromError(err, s.Premium.Snapshot().Error)
	}
	return packets.TonInvoiceResponse{Invoice: inv, Transaction: tx}, nil
}

// POST /api/app/premium/ton/:payload/confirm
func tonConfirm(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	var request packets.TonConfirmRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	st, err := s.Premium.ConfirmTon(ctx.Request.Context(), request.ItemID, ctx.Param("payload"))
	if err != nil {
		return nil, api.FromError(err, s.Premium.Snapshot().Error)
	}
	return st, nil
}

// POST /api/app/premium/stars/invoice
func starsInvoice(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	var request packets.InvoiceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	inv, err := s.Premium.CreateStarsInvoice(ctx.Request.Context(), request.ItemID)
	if err != nil {
		return nil, api.FromError(err, s.Premium.Snapshot().Error)
	}
	return inv, nil
}

// POST /api/app/premium/stars/:payload/confirm
func starsConfirm(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	var request packets.StarsConfirmRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	st, err := s.Premium.ConfirmStars(ctx.Request.Context(), request.ItemID, ctx.Param("payload"), request.Status)
	if err != nil {
		return nil, api.FromError(err, s.Premium.Snapshot().Error)
	}
	return st, nil
}
