package accountstore

import (
	"time"

	"gorm.io/gorm"
)

// User is the persisted account row.
type User struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
	Email        string         `gorm:"size:320;not null;uniqueIndex"`
	PasswordHash string         `gorm:"not null"`
	Active       bool           `gorm:"not null;default:true"`
}

func (User) TableName() string {
	return "users"
}
