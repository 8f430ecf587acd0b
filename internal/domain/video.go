package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Video is an instructional video in the course catalog.
type Video struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title            string    `json:"title" gorm:"not null"`
	Professor        string    `json:"professor" gorm:"not null"`
	Category         string    `json:"category" gorm:"not null;index"`
	VideoURL         string    `json:"videoUrl" gorm:"type:text;not null"`
	PosterURL        string    `json:"posterUrl" gorm:"type:text;not null"`
	Description      string    `json:"description" gorm:"type:text;not null"`
	SkillLevel       string    `json:"skillLevel" gorm:"not null"`
	Students         int       `json:"students" gorm:"not null;default:0"`
	Languages        string    `json:"languages" gorm:"not null"`
	Captions         bool      `json:"captions" gorm:"not null;default:false"`
	Lectures         int       `json:"lectures" gorm:"not null;default:0"`
	Duration         string    `json:"duration" gorm:"not null"`
	InstructorName   string    `json:"instructorName" gorm:"not null"`
	InstructorRole   string    `json:"instructorRole" gorm:"not null"`
	InstructorAvatar string    `json:"instructorAvatar" gorm:"type:text;not null"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (v *Video) Validate() error {
	return validation.ValidateStruct(v,
		validation.Field(&v.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&v.Professor, validation.Required),
		validation.Field(&v.Category, validation.Required),
		validation.Field(&v.VideoURL, validation.Required, is.URL),
		validation.Field(&v.PosterURL, validation.Required, is.URL),
		validation.Field(&v.Description, validation.Required),
		validation.Field(&v.SkillLevel, validation.Required),
		validation.Field(&v.Students, validation.Min(0)),
		validation.Field(&v.Languages, validation.Required),
		validation.Field(&v.Lectures, validation.Min(0)),
		validation.Field(&v.Duration, validation.Required),
		validation.Field(&v.InstructorName, validation.Required),
		validation.Field(&v.InstructorRole, validation.Required),
		validation.Field(&v.InstructorAvatar, validation.Required, is.URL),
	)
}
