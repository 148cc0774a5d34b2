package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/hydrosuite/aquabill/internal/clock"
	customerdomain "github.com/hydrosuite/aquabill/internal/customer/domain"
	customerrepository "github.com/hydrosuite/aquabill/internal/customer/repository"
	customerservice "github.com/hydrosuite/aquabill/internal/customer/service"
	meterdomain "github.com/hydrosuite/aquabill/internal/meter/domain"
	meterrepository "github.com/hydrosuite/aquabill/internal/meter/repository"
	meterservice "github.com/hydrosuite/aquabill/internal/meter/service"
	"github.com/hydrosuite/aquabill/internal/meterrequest/domain"
	"github.com/hydrosuite/aquabill/internal/meterrequest/repository"
	notificationdomain "github.com/hydrosuite/aquabill/internal/notification/domain"
	notificationrepository "github.com/hydrosuite/aquabill/internal/notification/repository"
	notificationservice "github.com/hydrosuite/aquabill/internal/notification/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc           domain.Service
	customers     customerdomain.Service
	meters        meterdomain.Service
	notifications notificationdomain.Service
	db            *gorm.DB
	clock         *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&meterdomain.Meter{},
		&notificationdomain.Notification{},
		&domain.MeterRequest{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2026, time.July, 6, 9, 0, 0, 0, time.UTC))

	customers := customerservice.New(customerservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  customerrepository.Provide(),
	})
	meters := meterservice.New(meterservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  meterrepository.Provide(),
	})
	notifications := notificationservice.New(notificationservice.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   fake,
		Metrics: nil,
		Repo:    notificationrepository.Provide(),
	})

	svc := New(Params{
		DB:            db,
		Log:           log,
		GenID:         node,
		Clock:         fake,
		Repo:          repository.Provide(),
		Customers:     customers,
		Meters:        meters,
		Notifications: notifications,
	})

	return &fixture{
		svc:           svc,
		customers:     customers,
		meters:        meters,
		notifications: notifications,
		db:            db,
		clock:         fake,
	}
}

func submitFixture(email, nif string) domain.SubmitMeterRequest {
	return domain.SubmitMeterRequest{
		FullName: "Maria Alves",
		NIF:      nif,
		Email:    email,
		Address:  "Rua das Flores 12, Lisboa",
		Phone:    "+351912345678",
	}
}

func TestSubmit_CreatesPendingRequestAndNotifiesEmployees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.svc.Submit(ctx, submitFixture("maria@example.pt", "123456789"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, request.Status)
	assert.Nil(t, request.DecidedAt)

	inbox, err := f.notifications.UnreadForEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, notificationdomain.CategoryMeterRequest, inbox[0].Category)
}

func TestSubmit_RejectsDuplicateContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, submitFixture("maria@example.pt", "123456789"))
	require.NoError(t, err)

	// Same email, different NIF.
	_, err = f.svc.Submit(ctx, submitFixture("maria@example.pt", "987654321"))
	assert.ErrorIs(t, err, domain.ErrDuplicateContact)

	// Same NIF, different email.
	_, err = f.svc.Submit(ctx, submitFixture("other@example.pt", "123456789"))
	assert.ErrorIs(t, err, domain.ErrDuplicateContact)
}

func TestSubmit_RejectsExistingCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.customers.Create(ctx, customerdomain.CreateCustomerRequest{
		FullName: "Maria Alves",
		NIF:      "123456789",
		Email:    "maria@example.pt",
	})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, submitFixture("maria@example.pt", "123456789"))
	assert.ErrorIs(t, err, domain.ErrDuplicateContact)
}

func TestApprove_ProvisionsCustomerAndMeter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.svc.Submit(ctx, submitFixture("maria@example.pt", "123456789"))
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, request.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	require.NotNil(t, approved.CustomerID)
	require.NotNil(t, approved.MeterID)
	require.NotNil(t, approved.DecidedAt)

	customer, err := f.customers.GetByID(ctx, approved.CustomerID.String())
	require.NoError(t, err)
	assert.Equal(t, "maria@example.pt", customer.Email)
	assert.True(t, customer.CreatedAt.Equal(f.clock.Now()))

	meter, err := f.meters.ActiveForCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, *approved.MeterID, meter.ID)
	assert.True(t, strings.HasPrefix(meter.SerialNumber, "MTR-"))
	assert.Len(t, meter.SerialNumber, 12)

	setup, err := f.notifications.UnreadAccountSetup(ctx)
	require.NoError(t, err)
	require.Len(t, setup, 1)
	require.NotNil(t, setup[0].CustomerID)
	assert.Equal(t, customer.ID, *setup[0].CustomerID)
}

func TestApprove_SecondDecisionRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.svc.Submit(ctx, submitFixture("maria@example.pt", "123456789"))
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, request.ID.String())
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, request.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)

	_, err = f.svc.Reject(ctx, request.ID.String(), "changed our minds")
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
}

func TestApprove_RollsBackWhenProvisioningFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.svc.Submit(ctx, submitFixture("maria@example.pt", "123456789"))
	require.NoError(t, err)

	// Make the meter insert fail after the customer insert.
	require.NoError(t, f.db.Migrator().DropTable(&meterdomain.Meter{}))

	_, err = f.svc.Approve(ctx, request.ID.String())
	require.Error(t, err)

	// The customer insert must have rolled back with it.
	existing, err := f.customers.FindByContact(ctx, "maria@example.pt", "123456789")
	require.NoError(t, err)
	assert.Nil(t, existing)

	// The request is still pending, so the retry goes through cleanly.
	require.NoError(t, f.db.AutoMigrate(&meterdomain.Meter{}))

	approved, err := f.svc.Approve(ctx, request.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	require.NotNil(t, approved.CustomerID)
	require.NotNil(t, approved.MeterID)
}

func TestReject_RecordsNotesAndDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.svc.Submit(ctx, submitFixture("maria@example.pt", "123456789"))
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, request.ID.String(), "  address outside the service area  ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Equal(t, "address outside the service area", rejected.Notes)
	require.NotNil(t, rejected.DecidedAt)

	// No customer or meter was created.
	existing, err := f.customers.FindByContact(ctx, "maria@example.pt", "123456789")
	require.NoError(t, err)
	assert.Nil(t, existing)
}

func TestStatusByContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StatusByContact(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidContact)

	_, err = f.svc.StatusByContact(ctx, "maria@example.pt", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	request, err := f.svc.Submit(ctx, submitFixture("maria@example.pt", "123456789"))
	require.NoError(t, err)

	status, err := f.svc.StatusByContact(ctx, "maria@example.pt", "")
	require.NoError(t, err)
	assert.Equal(t, request.ID, status.ID)
	assert.Equal(t, domain.StatusPending, status.Status)

	_, err = f.svc.Reject(ctx, request.ID.String(), "")
	require.NoError(t, err)

	status, err = f.svc.StatusByContact(ctx, "", "123456789")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, status.Status)
}

func TestSubmit_ValidatesFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := submitFixture("maria@example.pt", "123456789")
	req.FullName = "  "
	_, err := f.svc.Submit(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	req = submitFixture("not-an-email", "123456789")
	_, err = f.svc.Submit(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	req = submitFixture("maria@example.pt", " ")
	_, err = f.svc.Submit(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidNIF)
}
