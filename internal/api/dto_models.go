package api

import "bazaar-backend-go/internal/models"

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SignInResponse is returned by POST /auth/signin. The tokens come straight
// from the identity provider; the client sends IDToken back as a Bearer token.
type SignInResponse struct {
	User         *models.User `json:"user"`
	IDToken      string       `json:"idToken"`
	RefreshToken string       `json:"refreshToken"`
}

// CreateProductResponse is returned by POST /products.
type CreateProductResponse struct {
	ID string `json:"id"`
}
