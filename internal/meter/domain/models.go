// Package domain contains persistence models for installed water meters.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status tracks a meter through its installation lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Meter is a physical water meter assigned to a customer. SerialNumber
// is drawn when the record is created and never reused.
type Meter struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID   snowflake.ID `gorm:"not null;index" json:"customer_id"`
	SerialNumber string       `gorm:"type:varchar(32);uniqueIndex" json:"serial_number"`
	Status       Status       `gorm:"type:text;not null;default:pending" json:"status"`
	Active       bool         `gorm:"not null;default:false" json:"active"`
	InstalledAt  *time.Time   `json:"installed_at,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Meter) TableName() string { return "meters" }
