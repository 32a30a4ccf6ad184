package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bazaar-backend-go/internal/db"
	"bazaar-backend-go/internal/middleware"
	"bazaar-backend-go/internal/models"
	"bazaar-backend-go/internal/validation"
)

// AuthService is what the auth endpoints need from the account layer: the
// repository operations plus the token-returning sign-in and the profile
// lookup used by /auth/me. *db.FirebaseAuthRepository satisfies it.
type AuthService interface {
	db.AuthRepository
	SignInWithToken(ctx context.Context, email, password string) (*models.User, *db.IdentityToken, error)
	Profile(ctx context.Context, uid string) (*models.User, error)
}

// AuthHandler holds dependencies for authentication-related endpoints.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth AuthService) *AuthHandler {
	if auth == nil {
		panic("AuthService cannot be nil in NewAuthHandler")
	}
	return &AuthHandler{auth: auth}
}

// SignUp handles POST /auth/signup. Input is validated field by field; the
// first failing check is returned verbatim so the client can surface it.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := validation.ValidateEmail(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := validation.ValidateName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Sign up failed", Details: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// SignIn handles POST /auth/signin and returns the user together with the
// identity tokens.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := validation.ValidateEmail(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, token, err := h.auth.SignInWithToken(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Sign in failed", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SignInResponse{
		User:         user,
		IDToken:      token.IDToken,
		RefreshToken: token.RefreshToken,
	})
}

// SignOut handles POST /auth/signout. Token-based auth keeps no server-side
// session, so this only clears the shared session state.
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Sign out failed", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out"})
}

// Me handles GET /auth/me: the profile document of the verified caller. A
// caller whose identity exists but whose profile document was never written
// gets a minimal user back, mirroring the sign-in behavior.
func (h *AuthHandler) Me(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	user, err := h.auth.Profile(c.Request.Context(), caller.UID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusOK, &models.User{UID: caller.UID, Email: caller.Email})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load profile", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}
