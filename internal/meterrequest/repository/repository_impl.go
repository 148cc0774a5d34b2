package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/internal/meterrequest/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, request *domain.MeterRequest) error {
	return db.WithContext(ctx).Create(request).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, request *domain.MeterRequest) error {
	return db.WithContext(ctx).Save(request).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.MeterRequest, error) {
	var request domain.MeterRequest
	err := db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repo) FindOpenByContact(ctx context.Context, db *gorm.DB, email, nif string) (*domain.MeterRequest, error) {
	var request domain.MeterRequest
	err := db.WithContext(ctx).
		Where("(email = ? OR nif = ?) AND status = ?", email, nif, domain.StatusPending).
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repo) FindLatestByContact(ctx context.Context, db *gorm.DB, email, nif string) (*domain.MeterRequest, error) {
	query := db.WithContext(ctx)
	switch {
	case email != "" && nif != "":
		query = query.Where("email = ? OR nif = ?", email, nif)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		query = query.Where("nif = ?", nif)
	}

	var request domain.MeterRequest
	err := query.Order("created_at desc").First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, status domain.Status) ([]*domain.MeterRequest, error) {
	var requests []*domain.MeterRequest
	err := db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at asc").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}
