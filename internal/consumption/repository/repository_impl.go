package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/internal/consumption/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, consumption *domain.Consumption) error {
	return db.WithContext(ctx).Create(consumption).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Consumption, error) {
	var consumption domain.Consumption
	err := db.WithContext(ctx).Where("id = ?", id).First(&consumption).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &consumption, nil
}

func (r *repo) FindLastByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (*domain.Consumption, error) {
	var consumption domain.Consumption
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("year desc, month desc, created_at desc").
		First(&consumption).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &consumption, nil
}

func (r *repo) FindByCustomerAndPeriod(ctx context.Context, db *gorm.DB, customerID snowflake.ID, year, month int) (*domain.Consumption, error) {
	var consumption domain.Consumption
	err := db.WithContext(ctx).
		Where("customer_id = ? AND year = ? AND month = ?", customerID, year, month).
		First(&consumption).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &consumption, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*domain.Consumption, error) {
	var consumptions []*domain.Consumption
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("year desc, month desc, created_at desc").
		Find(&consumptions).Error
	if err != nil {
		return nil, err
	}
	return consumptions, nil
}

func (r *repo) ListCustomersMissingPeriod(ctx context.Context, db *gorm.DB, year, month int) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Table("meters").
		Distinct("meters.customer_id").
		Where("meters.active = ?", true).
		Where("meters.customer_id NOT IN (?)",
			db.Table("consumptions").
				Select("customer_id").
				Where("year = ? AND month = ?", year, month),
		).
		Pluck("meters.customer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
