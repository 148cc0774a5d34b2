package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByConsumption(ctx context.Context, db *gorm.DB, consumptionID snowflake.ID) (*Invoice, error)
	FindLastByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB) ([]*Invoice, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*Invoice, error)
	ListUnreadByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*Invoice, error)
}
