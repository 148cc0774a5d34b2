package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, request *MeterRequest) error
	Update(ctx context.Context, db *gorm.DB, request *MeterRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MeterRequest, error)
	FindOpenByContact(ctx context.Context, db *gorm.DB, email, nif string) (*MeterRequest, error)
	FindLatestByContact(ctx context.Context, db *gorm.DB, email, nif string) (*MeterRequest, error)
	ListByStatus(ctx context.Context, db *gorm.DB, status Status) ([]*MeterRequest, error)
}
