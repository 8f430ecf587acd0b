package postgres

import (
	"errors"
	"time"

	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table owned by the service, in migration order.
var Models = []interface{}{
	&domain.User{},
	&domain.Profile{},
	&domain.AuditLogEntry{},
	&domain.Video{},
}

// GormConfig is shared by the server and the test databases. TranslateError
// turns driver-specific unique violations into gorm.ErrDuplicatedKey.
func GormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func NewConnection(databaseURL string, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), GormConfig(level))
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema, including the cascading foreign
// keys from profiles and activity logs to users.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:     NewUserRepository(db),
		Profile:  NewProfileRepository(db),
		AuditLog: NewAuditLogRepository(db),
		Video:    NewVideoRepository(db),
	}
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrDuplicateAccount
	}
	return err
}
