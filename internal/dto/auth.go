package dto

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}
