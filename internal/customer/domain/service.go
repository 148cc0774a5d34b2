package domain

import (
	"context"
	"errors"

	"github.com/hydrosuite/aquabill/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateCustomerRequest struct {
	FullName  string  `json:"full_name"`
	NIF       string  `json:"nif"`
	Email     string  `json:"email"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	AccountID *string `json:"account_id,omitempty"`
}

type ListCustomerRequest struct {
	PageToken string
	PageSize  int32
	Name      string
	Email     string
	NIF       string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (Customer, error)

	// CreateInTx creates the customer on the caller's transaction handle,
	// so flows spanning several aggregates commit or roll back as one.
	CreateInTx(ctx context.Context, tx *gorm.DB, req CreateCustomerRequest) (Customer, error)
	GetByID(ctx context.Context, id string) (Customer, error)
	List(ctx context.Context, req ListCustomerRequest) (ListCustomerResponse, error)
	Deactivate(ctx context.Context, id string) error

	// FindByContact returns the customer matching the email or NIF, or
	// nil when neither is registered.
	FindByContact(ctx context.Context, email, nif string) (*Customer, error)
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrInvalidNIF     = errors.New("invalid_nif")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
	ErrCustomerExists = errors.New("customer_exists")
)
