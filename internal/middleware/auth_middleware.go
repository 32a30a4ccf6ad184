package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bazaar-backend-go/internal/models"
)

// ErrorResponse is a local definition for sending standardized error messages.
// It mirrors the one in internal/api/dto_models.go to avoid import cycles.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Context keys set by the auth middleware for downstream handlers.
const (
	ContextUserIDKey    = "userID"
	ContextUserEmailKey = "userEmail"
	ContextUserNameKey  = "userDisplayName"
)

// AuthMiddleware provides Gin middleware for Firebase token authentication.
type AuthMiddleware struct {
	firebaseAuthClient *auth.Client
	logger             *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
// It panics if the firebaseAuthClient is nil, as this is a critical setup dependency.
func NewAuthMiddleware(fbAuthClient *auth.Client, logger *zap.Logger) *AuthMiddleware {
	if fbAuthClient == nil {
		panic("Firebase Auth client is not initialized for AuthMiddleware")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{firebaseAuthClient: fbAuthClient, logger: logger}
}

// VerifyToken is a Gin middleware handler function that verifies a Firebase ID
// token from the Authorization header. If valid, it sets the caller's identity
// in the Gin context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}
		idToken := parts[1]

		// Use c.Request.Context() for the VerifyIDToken call as it's request-scoped.
		token, err := m.firebaseAuthClient.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			m.logger.Warn("Failed to verify Firebase ID token", zap.Error(err))
			// Generic message to the client; specifics stay server-side.
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}

		c.Set(ContextUserIDKey, token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set(ContextUserEmailKey, email)
		}
		if name, ok := token.Claims["name"].(string); ok {
			c.Set(ContextUserNameKey, name)
		}

		c.Next()
	}
}

// CallerFromContext rebuilds the verified caller set by VerifyToken.
// Returns nil when the request is unauthenticated.
func CallerFromContext(c *gin.Context) *models.User {
	uid := c.GetString(ContextUserIDKey)
	if uid == "" {
		return nil
	}
	return &models.User{
		UID:   uid,
		Email: c.GetString(ContextUserEmailKey),
		Name:  c.GetString(ContextUserNameKey),
	}
}
