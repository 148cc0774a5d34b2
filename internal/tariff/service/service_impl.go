package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/internal/clock"
	"github.com/hydrosuite/aquabill/internal/tariff/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tariff.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBracketRequest) (domain.TariffBracket, error) {
	if err := validateRange(req.MinVolume, req.MaxVolume); err != nil {
		return domain.TariffBracket{}, err
	}
	if !req.PricePerCubicMeter.IsPositive() {
		return domain.TariffBracket{}, domain.ErrInvalidPrice
	}

	if err := s.checkOverlap(ctx, req.MinVolume, req.MaxVolume, 0); err != nil {
		return domain.TariffBracket{}, err
	}

	now := s.clock.Now().UTC()
	bracket := domain.TariffBracket{
		ID:                 s.genID.Generate(),
		MinVolume:          req.MinVolume,
		MaxVolume:          req.MaxVolume,
		PricePerCubicMeter: req.PricePerCubicMeter,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Insert(ctx, s.db, &bracket); err != nil {
		return domain.TariffBracket{}, err
	}

	return bracket, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateBracketRequest) (domain.TariffBracket, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.TariffBracket{}, err
	}

	if err := validateRange(req.MinVolume, req.MaxVolume); err != nil {
		return domain.TariffBracket{}, err
	}
	if !req.PricePerCubicMeter.IsPositive() {
		return domain.TariffBracket{}, domain.ErrInvalidPrice
	}

	bracket, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.TariffBracket{}, err
	}
	if bracket == nil {
		return domain.TariffBracket{}, domain.ErrNotFound
	}

	if err := s.checkOverlap(ctx, req.MinVolume, req.MaxVolume, id); err != nil {
		return domain.TariffBracket{}, err
	}

	bracket.MinVolume = req.MinVolume
	bracket.MaxVolume = req.MaxVolume
	bracket.PricePerCubicMeter = req.PricePerCubicMeter
	bracket.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, s.db, bracket); err != nil {
		return domain.TariffBracket{}, err
	}

	return *bracket, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	bracket, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if bracket == nil {
		return domain.ErrNotFound
	}

	linked, err := s.repo.CountLinkedConsumptions(ctx, s.db, id)
	if err != nil {
		return err
	}
	if linked > 0 {
		return domain.ErrBracketInUse
	}

	return s.repo.Delete(ctx, s.db, id)
}

func (s *Service) List(ctx context.Context) ([]domain.TariffBracket, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	brackets := make([]domain.TariffBracket, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		brackets = append(brackets, *item)
	}
	return brackets, nil
}

func (s *Service) Resolve(ctx context.Context, volume decimal.Decimal) (*domain.TariffBracket, error) {
	bracket, err := s.repo.FindForVolume(ctx, s.db, volume)
	if err != nil {
		return nil, err
	}
	if bracket == nil {
		return nil, domain.ErrNoBracket
	}
	return bracket, nil
}

// checkOverlap rejects a range whose interior intersects an existing
// bracket. Adjacent brackets may share a boundary value; resolution
// breaks the tie toward the lower bracket. The bracket table stays
// small, so scanning it beats a dialect-specific range query over
// nullable bounds.
func (s *Service) checkOverlap(ctx context.Context, min decimal.Decimal, max *decimal.Decimal, excludeID snowflake.ID) error {
	existing, err := s.repo.List(ctx, s.db)
	if err != nil {
		return err
	}

	for _, b := range existing {
		if b == nil || b.ID == excludeID {
			continue
		}
		if overlaps(min, max, b.MinVolume, b.MaxVolume) {
			return domain.ErrOverlap
		}
	}
	return nil
}

func overlaps(aMin decimal.Decimal, aMax *decimal.Decimal, bMin decimal.Decimal, bMax *decimal.Decimal) bool {
	if aMax != nil && aMax.LessThanOrEqual(bMin) {
		return false
	}
	if bMax != nil && bMax.LessThanOrEqual(aMin) {
		return false
	}
	return true
}

func validateRange(min decimal.Decimal, max *decimal.Decimal) error {
	if min.IsNegative() {
		return domain.ErrInvalidRange
	}
	if max != nil && max.LessThanOrEqual(min) {
		return domain.ErrInvalidRange
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
