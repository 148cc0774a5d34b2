// Package seed bootstraps reference data on first start.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	tariffdomain "github.com/hydrosuite/aquabill/internal/tariff/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type defaultBracket struct {
	min   string
	max   string
	price string
}

// Contiguous progressive brackets covering every volume. An open-ended
// top bracket guarantees resolution never fails out of the box.
var defaultBrackets = []defaultBracket{
	{min: "0", max: "5", price: "0.4500"},
	{min: "5", max: "15", price: "0.8500"},
	{min: "15", max: "25", price: "1.2000"},
	{min: "25", max: "", price: "1.6500"},
}

// EnsureDefaultTariffs seeds the bracket table when it is empty so a
// fresh install can bill immediately.
func EnsureDefaultTariffs(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&tariffdomain.TariffBracket{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, bracket := range defaultBrackets {
			min, err := decimal.NewFromString(bracket.min)
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(bracket.price)
			if err != nil {
				return err
			}

			var max *decimal.Decimal
			if bracket.max != "" {
				parsed, err := decimal.NewFromString(bracket.max)
				if err != nil {
					return err
				}
				max = &parsed
			}

			row := tariffdomain.TariffBracket{
				ID:                 node.Generate(),
				MinVolume:          min,
				MaxVolume:          max,
				PricePerCubicMeter: price,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
