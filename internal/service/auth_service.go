package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/metrics"
	"github.com/ndeks/nextlevel-backend/internal/repository"
	"github.com/ndeks/nextlevel-backend/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// AuthService owns the session lifecycle. Every successful sign-in
// overwrites the account's stored token pair, so only the most recently
// issued pair is ever accepted.
type AuthService struct {
	userRepo   repository.UserRepository
	codec      *token.Codec
	audit      *AuditService
	metrics    *metrics.Metrics
	bcryptCost int
}

func NewAuthService(userRepo repository.UserRepository, codec *token.Codec, audit *AuditService, m *metrics.Metrics, bcryptCost int) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		codec:      codec,
		audit:      audit,
		metrics:    m,
		bcryptCost: bcryptCost,
	}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (i RegisterInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required, is.Email),
		validation.Field(&i.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&i.Name, validation.Required, validation.Length(1, 255)),
	)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (i LoginInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required),
		validation.Field(&i.Password, validation.Required),
	)
}

// ExternalProfile is what an identity provider reports about a user.
type ExternalProfile struct {
	Provider    string
	ExternalID  string
	Emails      []ExternalEmail
	DisplayName string
}

type ExternalEmail struct {
	Value string
}

// PrimaryEmail returns the first reported address.
func (p *ExternalProfile) PrimaryEmail() string {
	if len(p.Emails) == 0 {
		return ""
	}
	return p.Emails[0].Value
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Email = strings.TrimSpace(input.Email)

	result, err := s.register(ctx, input)
	s.metrics.AuthEvent("register", err)
	if err != nil {
		s.audit.Record(ctx, nil, domain.ActionRegisterFailed, "Registration failed", domain.Metadata{
			"email":  input.Email,
			"reason": err.Error(),
		})
		return nil, err
	}

	s.audit.Record(ctx, &result.User.ID, domain.ActionRegister, "User registered", domain.Metadata{
		"email": result.User.Email,
	})
	return result, nil
}

func (s *AuthService) register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}

	if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, domain.ErrDuplicateAccount
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        input.Email,
		PasswordHash: domain.StringPtr(string(hashed)),
		Name:         input.Name,
		Role:         domain.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.startSession(ctx, user)
}

// Login checks the password and starts a new session, evicting any
// previous one. Unknown emails, password-less accounts and wrong passwords
// all fail with the same error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Email = strings.TrimSpace(input.Email)

	result, err := s.login(ctx, input)
	s.metrics.AuthEvent("login", err)
	if err != nil {
		s.audit.Record(ctx, nil, domain.ActionLoginFailed, "Failed login attempt", domain.Metadata{
			"email":  input.Email,
			"reason": err.Error(),
		})
		return nil, err
	}

	s.audit.Record(ctx, &result.User.ID, domain.ActionLogin, "User logged in", domain.Metadata{
		"email": result.User.Email,
	})
	return result, nil
}

func (s *AuthService) login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.HasPassword() {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

// LoginOrLinkExternal signs in with an external identity. The account is
// found by external id first, then by email (linking the external id onto
// it), and is created only when neither matches.
func (s *AuthService) LoginOrLinkExternal(ctx context.Context, profile *ExternalProfile) (*AuthResult, error) {
	result, method, err := s.loginExternal(ctx, profile)
	s.metrics.AuthEvent("external_login", err)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &result.User.ID, domain.ActionExternalLogin, "User logged in with external identity", domain.Metadata{
		"email":    result.User.Email,
		"provider": profile.Provider,
		"method":   method,
	})
	return result, nil
}

func (s *AuthService) loginExternal(ctx context.Context, profile *ExternalProfile) (*AuthResult, string, error) {
	if profile == nil || profile.ExternalID == "" {
		return nil, "", fmt.Errorf("%w: external id is required", domain.ErrValidationFailed)
	}
	email := strings.TrimSpace(profile.PrimaryEmail())
	if email == "" {
		return nil, "", fmt.Errorf("%w: external profile has no email", domain.ErrValidationFailed)
	}

	user, err := s.userRepo.GetByExternalID(ctx, profile.ExternalID)
	if err == nil {
		result, err := s.startSession(ctx, user)
		return result, "existing", err
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", err
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		user.ExternalID = domain.StringPtr(profile.ExternalID)
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, "", err
		}
		result, err := s.startSession(ctx, user)
		return result, "linked", err
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", err
	}

	user = &domain.User{
		Email:      email,
		Name:       profile.DisplayName,
		Role:       domain.RoleUser,
		ExternalID: domain.StringPtr(profile.ExternalID),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}
	result, err := s.startSession(ctx, user)
	return result, "created", err
}

// Refresh issues a new access token for the session the refresh token
// belongs to. The refresh token itself stays valid until it expires or the
// session is replaced.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, accessToken, err := s.refresh(ctx, refreshToken)
	s.metrics.AuthEvent("refresh", err)
	if err != nil {
		s.audit.Record(ctx, userID, domain.ActionTokenRefreshFailed, "Token refresh failed", domain.Metadata{
			"reason": err.Error(),
		})
		return "", err
	}

	s.audit.Record(ctx, userID, domain.ActionTokenRefresh, "Access token refreshed", nil)
	return accessToken, nil
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*uuid.UUID, string, error) {
	if refreshToken == "" {
		return nil, "", domain.ErrMissingToken
	}

	claims, err := s.codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, "", err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrSessionMismatch
		}
		return nil, "", err
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return &user.ID, "", domain.ErrSessionMismatch
	}

	accessToken, err := s.codec.IssueAccessToken(user)
	if err != nil {
		return &user.ID, "", err
	}
	if err := s.userRepo.UpdateAccessToken(ctx, user.ID, accessToken); err != nil {
		return &user.ID, "", err
	}
	return &user.ID, accessToken, nil
}

// Logout ends the session the access token belongs to. The token is only
// decoded to find the account, so an expired token still logs out.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return domain.ErrMissingToken
	}

	claims, err := s.codec.DecodeAccessTokenUnverified(accessToken)
	if err != nil {
		return err
	}

	err = s.userRepo.ClearSession(ctx, claims.UserID)
	s.metrics.AuthEvent("logout", err)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	s.audit.Record(ctx, &claims.UserID, domain.ActionLogout, "User logged out", nil)
	return nil
}

// Authenticate checks a bearer access token. The token must verify and must
// still be the account's current access token.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error) {
	if accessToken == "" {
		return nil, domain.ErrMissingToken
	}

	claims, err := s.codec.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, err
	}
	if user.AccessToken == nil || *user.AccessToken != accessToken {
		return nil, domain.ErrSessionExpired
	}

	return claims.Principal(), nil
}

// Verify returns the account behind an authenticated principal.
func (s *AuthService) Verify(ctx context.Context, principal *domain.Principal) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &user.ID, domain.ActionTokenVerify, "Token verified", nil)
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	accessToken, err := s.codec.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.codec.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateTokens(ctx, user.ID, accessToken, refreshToken); err != nil {
		return nil, err
	}
	user.AccessToken = &accessToken
	user.RefreshToken = &refreshToken

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
