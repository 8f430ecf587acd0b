package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the credential record behind every account. AccessToken and
// RefreshToken hold the only token pair the service currently accepts for
// the account; they are overwritten on every login and cleared on logout.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash *string   `json:"-" gorm:"type:text"`
	Name         string    `json:"name"`
	Role         Role      `json:"role" gorm:"type:varchar(16);not null;default:'user'"`
	ExternalID   *string   `json:"-" gorm:"uniqueIndex"`
	AccessToken  *string   `json:"-" gorm:"type:text"`
	RefreshToken *string   `json:"-" gorm:"type:text"`
	DeviceToken  *string   `json:"-" gorm:"type:text"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// HasPassword reports whether the account can use the password login path.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Principal is the authenticated identity attached to a request once its
// bearer token has passed the gate.
type Principal struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  Role
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// CanActOn reports whether the principal may modify resources owned by userID.
func (p *Principal) CanActOn(userID uuid.UUID) bool {
	return p != nil && (p.ID == userID || p.Role == RoleAdmin)
}

// RequireRole fails with ErrForbidden unless the principal holds role.
func RequireRole(p *Principal, role Role) error {
	if p == nil || p.Role != role {
		return ErrForbidden
	}
	return nil
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
