package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// NotifyCustomer records an inbox entry for one customer.
	NotifyCustomer(ctx context.Context, customerID snowflake.ID, category Category, message string) (Notification, error)

	// NotifyEmployees records an entry visible to the employee inbox.
	NotifyEmployees(ctx context.Context, category Category, message string) (Notification, error)

	// NotifyAdmins records an account-setup hand-off entry. The customer
	// reference identifies who the account must be created for.
	NotifyAdmins(ctx context.Context, customerID snowflake.ID, category Category, message string) (Notification, error)

	UnreadForCustomer(ctx context.Context, customerID snowflake.ID) ([]Notification, error)
	UnreadForEmployees(ctx context.Context) ([]Notification, error)
	UnreadAccountSetup(ctx context.Context) ([]Notification, error)

	// MarkAllRead marks the customer's unread set as read. Idempotent;
	// other customers' entries are untouched.
	MarkAllRead(ctx context.Context, customerID snowflake.ID) error
}

var (
	ErrInvalidMessage  = errors.New("invalid_message")
	ErrInvalidCustomer = errors.New("invalid_customer")
)
