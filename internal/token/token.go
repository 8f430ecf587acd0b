// Package token signs and verifies the access and refresh tokens handed to
// clients. The two token classes use separate secrets so that a leaked
// secret for one class cannot be used to forge the other.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
)

const (
	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// AccessClaims identify the account and its role for every gated request.
type AccessClaims struct {
	UserID uuid.UUID   `json:"id"`
	Email  string      `json:"email"`
	Name   string      `json:"name"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal returns the request identity carried by the claims.
func (c *AccessClaims) Principal() *domain.Principal {
	return &domain.Principal{
		ID:    c.UserID,
		Email: c.Email,
		Name:  c.Name,
		Role:  c.Role,
	}
}

// RefreshClaims carry only what is needed to find the account again.
type RefreshClaims struct {
	UserID uuid.UUID `json:"id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

func NewCodec(accessSecret, refreshSecret string, opts ...Option) (*Codec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	c := &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) IssueAccessToken(user *domain.User) (string, error) {
	claims := AccessClaims{
		UserID:           user.ID,
		Email:            user.Email,
		Name:             user.Name,
		Role:             user.Role,
		RegisteredClaims: c.registered(user.ID, AccessTokenTTL),
	}
	return c.sign(claims, c.accessSecret)
}

func (c *Codec) IssueRefreshToken(user *domain.User) (string, error) {
	claims := RefreshClaims{
		UserID:           user.ID,
		Email:            user.Email,
		RegisteredClaims: c.registered(user.ID, RefreshTokenTTL),
	}
	return c.sign(claims, c.refreshSecret)
}

// VerifyAccessToken fails with domain.ErrInvalidToken when the token is
// malformed, signed with another key or expired.
func (c *Codec) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(tokenString, claims, c.accessSecret); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.UserID == uuid.Nil {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefreshToken is VerifyAccessToken for refresh tokens and fails with
// domain.ErrInvalidRefreshToken.
func (c *Codec) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(tokenString, claims, c.refreshSecret); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRefreshToken, err)
	}
	if claims.UserID == uuid.Nil {
		return nil, domain.ErrInvalidRefreshToken
	}
	return claims, nil
}

// DecodeAccessTokenUnverified reads the claims without checking the
// signature or expiry. Only use it where the token merely locates an
// account, as logout does.
func (c *Codec) DecodeAccessTokenUnverified(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.UserID == uuid.Nil {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

func (c *Codec) registered(userID uuid.UUID, ttl time.Duration) jwt.RegisteredClaims {
	now := c.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (c *Codec) sign(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *Codec) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	return err
}
