package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateBracketRequest struct {
	MinVolume          decimal.Decimal  `json:"min_volume"`
	MaxVolume          *decimal.Decimal `json:"max_volume"`
	PricePerCubicMeter decimal.Decimal  `json:"price_per_cubic_meter"`
}

type UpdateBracketRequest struct {
	ID                 string           `json:"id"`
	MinVolume          decimal.Decimal  `json:"min_volume"`
	MaxVolume          *decimal.Decimal `json:"max_volume"`
	PricePerCubicMeter decimal.Decimal  `json:"price_per_cubic_meter"`
}

type Service interface {
	Create(ctx context.Context, req CreateBracketRequest) (TariffBracket, error)
	Update(ctx context.Context, req UpdateBracketRequest) (TariffBracket, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]TariffBracket, error)

	// Resolve finds the bracket pricing the given volume. Bounds are
	// inclusive; when brackets overlap the lowest MinVolume wins.
	Resolve(ctx context.Context, volume decimal.Decimal) (*TariffBracket, error)
}

var (
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
	ErrInvalidRange = errors.New("invalid_volume_range")
	ErrInvalidPrice = errors.New("invalid_price")
	ErrOverlap      = errors.New("overlapping_bracket")
	ErrNoBracket    = errors.New("no_applicable_bracket")
	ErrBracketInUse = errors.New("bracket_in_use")
)
