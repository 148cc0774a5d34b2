package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Issue bills the given consumption: the tariff bracket is resolved
	// for its volume, the total is volume times unit price rounded to
	// two decimal places, and the customer is notified. Issuing the
	// same consumption twice returns ErrAlreadyIssued.
	Issue(ctx context.Context, rawConsumptionID string) (Invoice, error)

	GetByID(ctx context.Context, rawID string) (Invoice, error)
	List(ctx context.Context) ([]Invoice, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]Invoice, error)
	ListUnreadByCustomer(ctx context.Context, customerID snowflake.ID) ([]Invoice, error)

	// MarkRead flips the read flag on one of the customer's invoices.
	// Idempotent; invoices of other customers are not reachable.
	MarkRead(ctx context.Context, customerID snowflake.ID, rawID string) error

	// LastByCustomer serves the most recent invoice, or ErrNotFound
	// when none has been issued yet.
	LastByCustomer(ctx context.Context, customerID snowflake.ID) (Invoice, error)

	// RenderPDF produces a printable document for the invoice, scoped
	// to the owning customer.
	RenderPDF(ctx context.Context, customerID snowflake.ID, rawID string) ([]byte, error)
}

var (
	ErrInvalidID       = errors.New("invalid_invoice_id")
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrNotFound        = errors.New("invoice_not_found")
	ErrAlreadyIssued   = errors.New("invoice_already_issued")
)
