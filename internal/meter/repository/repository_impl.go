package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/internal/meter/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, meter *domain.Meter) error {
	return db.WithContext(ctx).Create(meter).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, meter *domain.Meter) error {
	return db.WithContext(ctx).Save(meter).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Meter, error) {
	var meter domain.Meter
	err := db.WithContext(ctx).Where("id = ?", id).First(&meter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meter, nil
}

func (r *repo) FindBySerial(ctx context.Context, db *gorm.DB, serial string) (*domain.Meter, error) {
	var meter domain.Meter
	err := db.WithContext(ctx).Where("serial_number = ?", serial).First(&meter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meter, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*domain.Meter, error) {
	var meters []*domain.Meter
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at desc").
		Find(&meters).Error
	if err != nil {
		return nil, err
	}
	return meters, nil
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, status domain.Status) ([]*domain.Meter, error) {
	var meters []*domain.Meter
	err := db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at asc").
		Find(&meters).Error
	if err != nil {
		return nil, err
	}
	return meters, nil
}

func (r *repo) FindActiveByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (*domain.Meter, error) {
	var meter domain.Meter
	err := db.WithContext(ctx).
		Where("customer_id = ? AND active = ?", customerID, true).
		Order("created_at desc").
		First(&meter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meter, nil
}
