// Package domain contains persistence models for tariff brackets.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TariffBracket prices a contiguous range of consumed volume. MaxVolume
// is inclusive; nil means the bracket is unbounded above.
type TariffBracket struct {
	ID                 snowflake.ID     `gorm:"primaryKey" json:"id"`
	MinVolume          decimal.Decimal  `gorm:"type:numeric(12,3);not null" json:"min_volume"`
	MaxVolume          *decimal.Decimal `gorm:"type:numeric(12,3)" json:"max_volume"`
	PricePerCubicMeter decimal.Decimal  `gorm:"type:numeric(12,4);not null" json:"price_per_cubic_meter"`
	CreatedAt          time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (TariffBracket) TableName() string { return "tariff_brackets" }

// Contains reports whether volume falls inside the bracket, bounds inclusive.
func (b TariffBracket) Contains(volume decimal.Decimal) bool {
	if volume.LessThan(b.MinVolume) {
		return false
	}
	if b.MaxVolume == nil {
		return true
	}
	return volume.LessThanOrEqual(*b.MaxVolume)
}
