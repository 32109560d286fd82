package packets

// body for opening a Mini App session
type AuthRequest struct {
	InitData string `json:"init_data" binding:"required"`
}
