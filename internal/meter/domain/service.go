package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// Provision creates an approved, active meter for the customer with a
	// freshly assigned serial number. Used by meter-request approval.
	Provision(ctx context.Context, customerID snowflake.ID) (Meter, error)

	// ProvisionInTx is Provision on the caller's transaction handle.
	ProvisionInTx(ctx context.Context, tx *gorm.DB, customerID snowflake.ID) (Meter, error)

	// RequestAdditional files a pending meter for an existing customer,
	// for example a second counter on the same property. The meter stays
	// inactive until an employee approves it.
	RequestAdditional(ctx context.Context, customerID snowflake.ID) (Meter, error)

	// Approve activates a pending meter and stamps its installation time.
	Approve(ctx context.Context, rawID string) (Meter, error)

	// Reject marks a pending meter rejected. It never becomes active.
	Reject(ctx context.Context, rawID string) (Meter, error)

	GetByID(ctx context.Context, rawID string) (Meter, error)
	GetBySerial(ctx context.Context, serial string) (Meter, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]Meter, error)
	ListPending(ctx context.Context) ([]Meter, error)

	// ActiveForCustomer returns the customer's active meter, or
	// ErrNoActiveMeter when none is installed.
	ActiveForCustomer(ctx context.Context, customerID snowflake.ID) (Meter, error)

	Deactivate(ctx context.Context, rawID string) error
}

var (
	ErrInvalidID       = errors.New("invalid_meter_id")
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidSerial   = errors.New("invalid_serial_number")
	ErrNotFound        = errors.New("meter_not_found")
	ErrNoActiveMeter   = errors.New("no_active_meter")
	ErrAlreadyDecided  = errors.New("meter_already_decided")
	ErrSerialExhausted = errors.New("serial_generation_exhausted")
)
