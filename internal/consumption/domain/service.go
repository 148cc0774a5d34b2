package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Record stores a manual reading. The counter must be strictly
	// greater than the customer's previous reading; the billed volume
	// is the delta. Portal submissions past the monthly deadline are
	// rejected with ErrDeadlinePassed.
	Record(ctx context.Context, req RecordConsumptionRequest) (Consumption, error)

	// RecordMissing backfills an automatic reading for every customer
	// with an active meter and no reading this period, repeating the
	// previous period's volume. Runs only after the grace window.
	RecordMissing(ctx context.Context) (int, error)

	GetByID(ctx context.Context, rawID string) (Consumption, error)
	History(ctx context.Context, customerID snowflake.ID) ([]Consumption, error)
}

var (
	ErrInvalidID        = errors.New("invalid_consumption_id")
	ErrInvalidCustomer  = errors.New("invalid_customer")
	ErrInvalidReading   = errors.New("invalid_reading")
	ErrReadingNotHigher = errors.New("reading_not_higher_than_previous")
	ErrDeadlinePassed   = errors.New("submission_window_closed")
	ErrPeriodAlreadySet = errors.New("reading_already_recorded_for_period")
	ErrNotFound         = errors.New("consumption_not_found")
)
