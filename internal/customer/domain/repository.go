package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListCustomerFilter struct {
	Name  string
	Email string
	NIF   string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	FindByEmailOrNIF(ctx context.Context, db *gorm.DB, email, nif string) (*Customer, error)
	FindByAccountID(ctx context.Context, db *gorm.DB, accountID string) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, filter ListCustomerFilter, page pagination.Pagination) ([]*Customer, error)
}
