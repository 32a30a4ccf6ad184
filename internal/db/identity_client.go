package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultIdentityEndpoint = "https://identitytoolkit.googleapis.com/v1"

// ErrInvalidCredentials is returned when the identity platform rejects an
// email/password pair.
var ErrInvalidCredentials = errors.New("invalid email or password")

// IdentityClient calls the Google Identity Toolkit REST API. The Admin SDK
// cannot verify passwords, so password sign-in goes through the same REST
// endpoint the mobile SDKs use, keyed by the project's Web API key.
type IdentityClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewIdentityClient creates a client for the given Web API key. An empty
// endpoint selects the production Identity Toolkit URL; tests point it at a
// local server.
func NewIdentityClient(apiKey, endpoint string) *IdentityClient {
	if endpoint == "" {
		endpoint = defaultIdentityEndpoint
	}
	return &IdentityClient{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// IdentityToken is the token material returned by a successful password sign-in.
type IdentityToken struct {
	UID          string
	IDToken      string
	RefreshToken string
}

type signInWithPasswordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInWithPasswordResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword verifies an email/password pair and returns the
// identity's UID and tokens. Credential rejections map to
// ErrInvalidCredentials; transport and server failures are wrapped.
func (c *IdentityClient) SignInWithPassword(ctx context.Context, email, password string) (*IdentityToken, error) {
	body, err := json.Marshal(signInWithPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign-in request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts:signInWithPassword?key=%s", c.endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign-in request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sign-in response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Error bodies are JSON when the identity platform answers itself,
		// but intermediaries can return anything; fall back to the status.
		var payload signInWithPasswordResponse
		if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != nil {
			switch payload.Error.Message {
			case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
				return nil, ErrInvalidCredentials
			}
			return nil, fmt.Errorf("identity platform rejected sign-in: %s", payload.Error.Message)
		}
		return nil, fmt.Errorf("identity platform returned status %d", resp.StatusCode)
	}

	var payload signInWithPasswordResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode sign-in response: %w", err)
	}

	return &IdentityToken{
		UID:          payload.LocalID,
		IDToken:      payload.IDToken,
		RefreshToken: payload.RefreshToken,
	}, nil
}
