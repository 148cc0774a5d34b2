package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bracket *TariffBracket) error
	Update(ctx context.Context, db *gorm.DB, bracket *TariffBracket) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*TariffBracket, error)
	List(ctx context.Context, db *gorm.DB) ([]*TariffBracket, error)
	FindForVolume(ctx context.Context, db *gorm.DB, volume decimal.Decimal) (*TariffBracket, error)
	CountLinkedConsumptions(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
