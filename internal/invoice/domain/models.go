// Package domain contains persistence models for issued invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Status tracks an invoice through review. Issuance always starts at
// pending; transitions are an employee action.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Invoice bills one consumption reading. The unique index on
// ConsumptionID is the issuance guard: a second issue attempt for the
// same reading fails at the database regardless of request interleaving.
type Invoice struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	ConsumptionID      snowflake.ID    `gorm:"not null;uniqueIndex" json:"consumption_id"`
	CustomerID         snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	Volume             decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"volume"`
	PricePerCubicMeter decimal.Decimal `gorm:"type:numeric(12,4);not null" json:"price_per_cubic_meter"`
	Total              decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Year               int             `gorm:"not null" json:"year"`
	Month              int             `gorm:"not null" json:"month"`
	Status             Status          `gorm:"type:text;not null;default:pending" json:"status"`
	Read               bool            `gorm:"not null;default:false" json:"read"`
	IssuedAt           time.Time       `gorm:"not null" json:"issued_at"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }
