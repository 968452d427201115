package dto

type TokenRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Email     string `json:"email"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
