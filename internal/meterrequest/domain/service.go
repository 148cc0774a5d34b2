package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Submit files a new installation request. A pending request or an
	// existing customer with the same email or NIF is rejected with
	// ErrDuplicateContact.
	Submit(ctx context.Context, req SubmitMeterRequest) (MeterRequest, error)

	// Approve creates the customer account and provisions an active
	// meter, then queues an account-setup hand-off for the admins.
	Approve(ctx context.Context, rawID string) (MeterRequest, error)

	Reject(ctx context.Context, rawID string, notes string) (MeterRequest, error)

	GetByID(ctx context.Context, rawID string) (MeterRequest, error)
	ListPending(ctx context.Context) ([]MeterRequest, error)

	// StatusByContact lets an anonymous requester poll the outcome of
	// their latest request by email or NIF.
	StatusByContact(ctx context.Context, email, nif string) (MeterRequest, error)
}

var (
	ErrInvalidID        = errors.New("invalid_request_id")
	ErrInvalidName      = errors.New("invalid_full_name")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidNIF       = errors.New("invalid_nif")
	ErrInvalidContact   = errors.New("invalid_contact")
	ErrNotFound         = errors.New("meter_request_not_found")
	ErrDuplicateContact = errors.New("duplicate_contact")
	ErrAlreadyDecided   = errors.New("request_already_decided")
)
