package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports"
)

// userRecord maps the profile service's users table. This service only
// reads it.
type userRecord struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName string    `gorm:"column:full_name"`
	Email    string    `gorm:"column:email"`
}

func (userRecord) TableName() string {
	return "users"
}

type UserDirectory struct {
	db *gorm.DB
}

func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var rec userRecord
	if err := d.db.WithContext(ctx).Take(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &domain.User{ID: rec.ID, FullName: rec.FullName, Email: rec.Email}, nil
}
