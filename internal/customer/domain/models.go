package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer is a water-service account holder. AccountID links the row to
// the external identity provider once an account has been provisioned;
// customers created by meter-request approval start without one.
type Customer struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	FullName  string            `gorm:"not null" json:"full_name"`
	NIF       string            `gorm:"type:text;not null;uniqueIndex" json:"nif"`
	Email     string            `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Address   string            `gorm:"type:text" json:"address"`
	Phone     string            `gorm:"type:text" json:"phone"`
	Active    bool              `gorm:"not null;default:true" json:"active"`
	AccountID *string           `gorm:"type:text" json:"account_id,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
