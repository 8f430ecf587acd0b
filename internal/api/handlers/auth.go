package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ndeks/nextlevel-backend/internal/api/middleware"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/service"
)

const oauthStateCookie = "oauth_state"

// ExternalProvider is an OAuth identity provider such as Google.
type ExternalProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*service.ExternalProfile, error)
}

type AuthHandler struct {
	authService *service.AuthService
	google      ExternalProvider
	newState    func() (string, error)
}

// NewAuthHandler builds the session endpoints. google may be nil, in which
// case the Google routes answer 404.
func NewAuthHandler(authService *service.AuthService, google ExternalProvider, newState func() (string, error)) *AuthHandler {
	return &AuthHandler{authService: authService, google: google, newState: newState}
}

type AuthResponse struct {
	User         *domain.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type VerifyResponse struct {
	Valid bool         `json:"valid"`
	User  *domain.User `json:"user"`
}

func newAuthResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		User:         result.User,
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	result, err := h.authService.Register(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAuthResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(result))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	accessToken, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{AccessToken: accessToken})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.authService.Verify(r.Context(), principal)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, VerifyResponse{Valid: true, User: user})
}

// GoogleLogin redirects to the Google consent screen with a fresh state
// value, which is also stored in a short-lived cookie.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		WriteError(w, r, fmt.Errorf("%w: google login is not configured", domain.ErrNotFound))
		return
	}

	state, err := h.newState()
	if err != nil {
		WriteError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/users/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		WriteError(w, r, fmt.Errorf("%w: google login is not configured", domain.ErrNotFound))
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		WriteError(w, r, fmt.Errorf("%w: oauth state mismatch", domain.ErrInvalidCredentials))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/users/auth/google", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		WriteError(w, r, fmt.Errorf("%w: authorization code is required", domain.ErrValidationFailed))
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		WriteError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err))
		return
	}

	result, err := h.authService.LoginOrLinkExternal(r.Context(), profile)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(result))
}

func principalFrom(r *http.Request) (*domain.Principal, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return nil, domain.ErrMissingToken
	}
	return principal, nil
}
