package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, meter *Meter) error
	Update(ctx context.Context, db *gorm.DB, meter *Meter) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Meter, error)
	FindBySerial(ctx context.Context, db *gorm.DB, serial string) (*Meter, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*Meter, error)
	ListByStatus(ctx context.Context, db *gorm.DB, status Status) ([]*Meter, error)
	FindActiveByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (*Meter, error)
}
