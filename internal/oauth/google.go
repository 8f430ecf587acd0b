// Package oauth implements sign-in through external identity providers.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ndeks/nextlevel-backend/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

var ErrMissingSubject = errors.New("identity provider returned no subject")

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string

	// Endpoint and UserInfoURL default to Google's production endpoints.
	Endpoint    oauth2.Endpoint
	UserInfoURL string

	HTTPClient *http.Client
}

// DefaultScopes returns the default Google scopes.
func DefaultScopes() []string {
	return []string{"openid", "email", "profile"}
}

type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       cfg.Scopes,
			Endpoint:     cfg.Endpoint,
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  client,
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

// AuthCodeURL is where the browser is sent to start sign-in.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

type googleUserInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// Exchange trades an authorization code for the signed-in user's profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*service.ExternalProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch user info: unexpected status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	if info.Subject == "" {
		return nil, ErrMissingSubject
	}

	profile := &service.ExternalProfile{
		Provider:    p.Name(),
		ExternalID:  info.Subject,
		DisplayName: info.Name,
	}
	if info.Email != "" {
		profile.Emails = []service.ExternalEmail{{Value: info.Email}}
	}
	return profile, nil
}

// NewState returns a random value for the OAuth state parameter.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
