// Package domain contains persistence models for water consumption readings.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Source records how a reading entered the system.
type Source string

const (
	SourceManual    Source = "manual"
	SourceAutomatic Source = "automatic"
)

// Origin identifies the submission channel. The customer portal
// enforces the monthly deadline; back-office entry does not.
type Origin string

const (
	OriginCustomerAPI Origin = "customer_api"
	OriginBackOffice  Origin = "back_office"
)

// Consumption is one billing-period reading for a customer's meter.
// Reading is the cumulative meter counter; Volume is the delta billed
// against the resolved tariff bracket.
type Consumption struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID      snowflake.ID    `gorm:"not null;index:idx_consumptions_customer_period" json:"customer_id"`
	MeterID         snowflake.ID    `gorm:"not null;index" json:"meter_id"`
	Reading         decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"reading"`
	Volume          decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"volume"`
	TariffBracketID *snowflake.ID   `gorm:"index" json:"tariff_bracket_id,omitempty"`
	Source          Source          `gorm:"type:text;not null;default:manual" json:"source"`
	Year            int             `gorm:"not null;index:idx_consumptions_customer_period" json:"year"`
	Month           int             `gorm:"not null;index:idx_consumptions_customer_period" json:"month"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Consumption) TableName() string { return "consumptions" }

type RecordConsumptionRequest struct {
	CustomerID snowflake.ID    `json:"customer_id"`
	Reading    decimal.Decimal `json:"reading"`
	Origin     Origin          `json:"-"`
}
