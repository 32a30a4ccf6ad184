package models

// SignUpRequest represents the request body for creating a new account.
// Field presence is checked by the validators, not binding tags, so the
// responses carry the exact validation messages.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignInRequest represents the request body for signing in with email and password.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateProductRequest represents the text fields of a new listing.
// Prices and year arrive as strings because they are raw form input; the
// validators check format before anything is parsed.
type CreateProductRequest struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	MRP         string   `json:"mrp"`
	AskingPrice string   `json:"askingPrice"`
	Description string   `json:"description"`
	City        string   `json:"city"`
	Year        string   `json:"year"`
	Condition   string   `json:"condition"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}
