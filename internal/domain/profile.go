package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile holds the personal details of an account. It is removed together
// with its user through the foreign key.
type Profile struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex"`
	Name        string    `json:"name"`
	LastName    string    `json:"lastName"`
	Avatar      string    `json:"avatar"`
	Address     string    `json:"address" gorm:"type:text"`
	PhoneNumber string    `json:"phoneNumber"`
	Province    string    `json:"provinsi"`
	Regency     string    `json:"kotaKabupaten"`
	District    string    `json:"kecamatan"`
	GithubLink  string    `json:"githubLink"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ValidateComplete checks that every profile field is filled in. Full
// profile replacement requires it.
func (p *Profile) ValidateComplete() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.LastName, validation.Required),
		validation.Field(&p.Avatar, validation.Required, is.URL),
		validation.Field(&p.Address, validation.Required),
		validation.Field(&p.PhoneNumber, validation.Required),
		validation.Field(&p.Province, validation.Required),
		validation.Field(&p.Regency, validation.Required),
		validation.Field(&p.District, validation.Required),
		validation.Field(&p.GithubLink, validation.Required, is.URL),
	)
}

// Apply copies the editable fields of other onto p.
func (p *Profile) Apply(other *Profile) {
	p.Name = other.Name
	p.LastName = other.LastName
	p.Avatar = other.Avatar
	p.Address = other.Address
	p.PhoneNumber = other.PhoneNumber
	p.Province = other.Province
	p.Regency = other.Regency
	p.District = other.District
	p.GithubLink = other.GithubLink
}

// Validate checks the format of the fields that are set.
func (p *Profile) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Avatar, is.URL),
		validation.Field(&p.PhoneNumber, validation.Length(0, 32)),
		validation.Field(&p.GithubLink, is.URL),
	)
}

// FilledFields lists the JSON names of the non-empty editable fields.
func (p *Profile) FilledFields() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"name", p.Name},
		{"lastName", p.LastName},
		{"avatar", p.Avatar},
		{"address", p.Address},
		{"phoneNumber", p.PhoneNumber},
		{"provinsi", p.Province},
		{"kotaKabupaten", p.Regency},
		{"kecamatan", p.District},
		{"githubLink", p.GithubLink},
	}

	var out []string
	for _, f := range fields {
		if f.value != "" {
			out = append(out, f.name)
		}
	}
	return out
}
