package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, consumption *Consumption) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Consumption, error)
	FindLastByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (*Consumption, error)
	FindByCustomerAndPeriod(ctx context.Context, db *gorm.DB, customerID snowflake.ID, year, month int) (*Consumption, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*Consumption, error)

	// ListCustomersMissingPeriod returns customers with an active meter
	// and no reading recorded for the given period.
	ListCustomersMissingPeriod(ctx context.Context, db *gorm.DB, year, month int) ([]snowflake.ID, error)
}
