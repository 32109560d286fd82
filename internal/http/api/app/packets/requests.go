package packets

// body for overriding the IP location with device GPS
type CoordinatesRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

type PrayerSettingsRequest struct {
	Method        int  `json:"method" binding:"min=0,max=23"`
	School        int  `json:"school" binding:"oneof=0 1"`
	Notifications bool `json:"notifications"`
	OffsetMinutes int  `json:"offset_minutes" binding:"min=-60,max=60"`
}

type AskRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
	Lang     string `json:"lang"`
}

type InvoiceRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

type TonConfirmRequest struct {
	ItemID string `json:"item_id"`
}

// Status is what Telegram's openInvoice callback reported.
type StarsConfirmRequest struct {
	ItemID string `json:"item_id"`
	Status string `json:"status" binding:"required,oneof=paid cancelled failed pending"`
}

type AnalyticsRequest struct {
	Event  string            `json:"event" binding:"required,max=64"`
	Params map[string]string `json:"params"`
}
