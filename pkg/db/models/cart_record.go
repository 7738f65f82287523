package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carstoreapp/carstore-backend/pkg/enums"
)

// CartSchemaVersion tags persisted carts so the shape can migrate later.
const CartSchemaVersion = 1

// CartRecord is the single active cart a user holds across sessions.
type CartRecord struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	SchemaVersion int              `gorm:"column:schema_version;not null;default:1"`
	Status        enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Items         []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartRecord) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
