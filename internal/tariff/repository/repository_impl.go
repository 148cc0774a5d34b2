package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/internal/tariff/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, bracket *domain.TariffBracket) error {
	return db.WithContext(ctx).Create(bracket).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, bracket *domain.TariffBracket) error {
	return db.WithContext(ctx).Save(bracket).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.TariffBracket{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.TariffBracket, error) {
	var bracket domain.TariffBracket
	err := db.WithContext(ctx).Where("id = ?", id).First(&bracket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bracket, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.TariffBracket, error) {
	var brackets []*domain.TariffBracket
	err := db.WithContext(ctx).
		Model(&domain.TariffBracket{}).
		Order("min_volume asc").
		Find(&brackets).Error
	if err != nil {
		return nil, err
	}
	return brackets, nil
}

func (r *repo) FindForVolume(ctx context.Context, db *gorm.DB, volume decimal.Decimal) (*domain.TariffBracket, error) {
	var bracket domain.TariffBracket
	err := db.WithContext(ctx).
		Where("min_volume <= ? AND (max_volume IS NULL OR max_volume >= ?)", volume, volume).
		Order("min_volume asc").
		First(&bracket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bracket, nil
}

func (r *repo) CountLinkedConsumptions(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Table("consumptions").
		Where("tariff_bracket_id = ?", id).
		Count(&count).Error
	return count, err
}
