package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/hydrosuite/aquabill/internal/clock"
	"github.com/hydrosuite/aquabill/internal/consumption/domain"
	"github.com/hydrosuite/aquabill/internal/consumption/repository"
	meterdomain "github.com/hydrosuite/aquabill/internal/meter/domain"
	tariffdomain "github.com/hydrosuite/aquabill/internal/tariff/domain"
	tariffrepository "github.com/hydrosuite/aquabill/internal/tariff/repository"
	tariffservice "github.com/hydrosuite/aquabill/internal/tariff/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockMeterService struct {
	mock.Mock
}

func (m *mockMeterService) Provision(ctx context.Context, customerID snowflake.ID) (meterdomain.Meter, error) {
	args := m.Called(ctx, customerID)
	meter, _ := args.Get(0).(meterdomain.Meter)
	return meter, args.Error(1)
}

func (m *mockMeterService) ProvisionInTx(ctx context.Context, tx *gorm.DB, customerID snowflake.ID) (meterdomain.Meter, error) {
	args := m.Called(ctx, tx, customerID)
	meter, _ := args.Get(0).(meterdomain.Meter)
	return meter, args.Error(1)
}

func (m *mockMeterService) RequestAdditional(ctx context.Context, customerID snowflake.ID) (meterdomain.Meter, error) {
	args := m.Called(ctx, customerID)
	meter, _ := args.Get(0).(meterdomain.Meter)
	return meter, args.Error(1)
}

func (m *mockMeterService) Approve(ctx context.Context, rawID string) (meterdomain.Meter, error) {
	args := m.Called(ctx, rawID)
	meter, _ := args.Get(0).(meterdomain.Meter)
	return meter, args.Error(1)
}

func (m *mockMeterService) Reject(ctx context.Context, rawID string) (meterdomain.Meter, error) {
	args := m.Called(ctx, rawID)
	meter, _ := args.Get(0).(meterdomain.Meter)
	return meter, args.Error(1)
}

func (m *mockMeterService) GetByID(ctx context.Context, rawID string) (meterdomain.Meter, error) {
	args := m.Called(ctx, rawID)
	meter, _ := args.Get(0).(meterdomain.Meter)
	return meter, args.Error(1)
}

func (m *mockMeterService) GetBySerial(ctx context.Context, serial string) (meterdomain.Meter, error) {
	args := m.Called(ctx, serial)
	meter, _ := args.Get(0).(meterdomain.Meter)
	return meter, args.Error(1)
}

func (m *mockMeterService) ListPending(ctx context.Context) ([]meterdomain.Meter, error) {
	args := m.Called(ctx)
	meters, _ := args.Get(0).([]meterdomain.Meter)
	return meters, args.Error(1)
}

func (m *mockMeterService) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]meterdomain.Meter, error) {
	args := m.Called(ctx, customerID)
	meters, _ := args.Get(0).([]meterdomain.Meter)
	return meters, args.Error(1)
}

func (m *mockMeterService) ActiveForCustomer(ctx context.Context, customerID snowflake.ID) (meterdomain.Meter, error) {
	args := m.Called(ctx, customerID)
	meter, _ := args.Get(0).(meterdomain.Meter)
	return meter, args.Error(1)
}

func (m *mockMeterService) Deactivate(ctx context.Context, rawID string) error {
	args := m.Called(ctx, rawID)
	return args.Error(0)
}

type mockTariffService struct {
	mock.Mock
}

func (m *mockTariffService) Create(ctx context.Context, req tariffdomain.CreateBracketRequest) (tariffdomain.TariffBracket, error) {
	args := m.Called(ctx, req)
	bracket, _ := args.Get(0).(tariffdomain.TariffBracket)
	return bracket, args.Error(1)
}

func (m *mockTariffService) Update(ctx context.Context, req tariffdomain.UpdateBracketRequest) (tariffdomain.TariffBracket, error) {
	args := m.Called(ctx, req)
	bracket, _ := args.Get(0).(tariffdomain.TariffBracket)
	return bracket, args.Error(1)
}

func (m *mockTariffService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockTariffService) List(ctx context.Context) ([]tariffdomain.TariffBracket, error) {
	args := m.Called(ctx)
	brackets, _ := args.Get(0).([]tariffdomain.TariffBracket)
	return brackets, args.Error(1)
}

func (m *mockTariffService) Resolve(ctx context.Context, volume decimal.Decimal) (*tariffdomain.TariffBracket, error) {
	args := m.Called(ctx, volume)
	bracket, _ := args.Get(0).(*tariffdomain.TariffBracket)
	return bracket, args.Error(1)
}

type fixture struct {
	svc     domain.Service
	db      *gorm.DB
	clock   *clock.FakeClock
	meters  *mockMeterService
	tariffs *mockTariffService
	node    *snowflake.Node
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Consumption{}, &meterdomain.Meter{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(now)
	meters := &mockMeterService{}
	tariffs := &mockTariffService{}

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Metrics: nil,
		Repo:    repository.Provide(),
		Meters:  meters,
		Tariffs: tariffs,
	})

	return &fixture{svc: svc, db: db, clock: fake, meters: meters, tariffs: tariffs, node: node}
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func bracketFixture(node *snowflake.Node, price string) *tariffdomain.TariffBracket {
	return &tariffdomain.TariffBracket{
		ID:                 node.Generate(),
		MinVolume:          dec("0"),
		PricePerCubicMeter: dec(price),
	}
}

func midMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 10, 9, 0, 0, 0, time.UTC)
}

func TestRecord_FirstReadingBillsFullCounter(t *testing.T) {
	f := newFixture(t, midMonth(2026, time.March))
	ctx := context.Background()

	customerID := f.node.Generate()
	meter := meterdomain.Meter{ID: f.node.Generate(), CustomerID: customerID, Active: true}
	f.meters.On("ActiveForCustomer", mock.Anything, customerID).Return(meter, nil)
	f.tariffs.On("Resolve", mock.Anything, mock.Anything).Return(bracketFixture(f.node, "0.85"), nil)

	consumption, err := f.svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("100"),
		Origin:     domain.OriginCustomerAPI,
	})
	require.NoError(t, err)

	assert.True(t, consumption.Volume.Equal(dec("100")))
	assert.True(t, consumption.Reading.Equal(dec("100")))
	assert.Equal(t, domain.SourceManual, consumption.Source)
	assert.Equal(t, 2026, consumption.Year)
	assert.Equal(t, 3, consumption.Month)
	require.NotNil(t, consumption.TariffBracketID)
}

func TestRecord_SubsequentReadingBillsDelta(t *testing.T) {
	f := newFixture(t, midMonth(2026, time.March))
	ctx := context.Background()

	customerID := f.node.Generate()
	meter := meterdomain.Meter{ID: f.node.Generate(), CustomerID: customerID, Active: true}
	f.meters.On("ActiveForCustomer", mock.Anything, customerID).Return(meter, nil)
	f.tariffs.On("Resolve", mock.Anything, mock.Anything).Return(bracketFixture(f.node, "0.85"), nil)

	_, err := f.svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("100"),
		Origin:     domain.OriginCustomerAPI,
	})
	require.NoError(t, err)

	f.clock.Set(midMonth(2026, time.April))

	consumption, err := f.svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("120.5"),
		Origin:     domain.OriginCustomerAPI,
	})
	require.NoError(t, err)

	assert.True(t, consumption.Volume.Equal(dec("20.5")))
	assert.Equal(t, 4, consumption.Month)
}

func TestRecord_RejectsNonIncreasingReading(t *testing.T) {
	f := newFixture(t, midMonth(2026, time.March))
	ctx := context.Background()

	customerID := f.node.Generate()
	meter := meterdomain.Meter{ID: f.node.Generate(), CustomerID: customerID, Active: true}
	f.meters.On("ActiveForCustomer", mock.Anything, customerID).Return(meter, nil)
	f.tariffs.On("Resolve", mock.Anything, mock.Anything).Return(bracketFixture(f.node, "0.85"), nil)

	_, err := f.svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("100"),
		Origin:     domain.OriginBackOffice,
	})
	require.NoError(t, err)

	f.clock.Set(midMonth(2026, time.April))

	_, err = f.svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("100"),
		Origin:     domain.OriginBackOffice,
	})
	assert.ErrorIs(t, err, domain.ErrReadingNotHigher)
}

func TestRecord_PortalClosesAfterDeadline(t *testing.T) {
	f := newFixture(t, time.Date(2026, time.March, 26, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	customerID := f.node.Generate()

	_, err := f.svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("100"),
		Origin:     domain.OriginCustomerAPI,
	})
	assert.ErrorIs(t, err, domain.ErrDeadlinePassed)

	// Back-office entry ignores the portal deadline.
	meter := meterdomain.Meter{ID: f.node.Generate(), CustomerID: customerID, Active: true}
	f.meters.On("ActiveForCustomer", mock.Anything, customerID).Return(meter, nil)
	f.tariffs.On("Resolve", mock.Anything, mock.Anything).Return(bracketFixture(f.node, "0.85"), nil)

	_, err = f.svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("100"),
		Origin:     domain.OriginBackOffice,
	})
	require.NoError(t, err)
}

func TestRecord_OneReadingPerPeriod(t *testing.T) {
	f := newFixture(t, midMonth(2026, time.March))
	ctx := context.Background()

	customerID := f.node.Generate()
	meter := meterdomain.Meter{ID: f.node.Generate(), CustomerID: customerID, Active: true}
	f.meters.On("ActiveForCustomer", mock.Anything, customerID).Return(meter, nil)
	f.tariffs.On("Resolve", mock.Anything, mock.Anything).Return(bracketFixture(f.node, "0.85"), nil)

	_, err := f.svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("100"),
		Origin:     domain.OriginCustomerAPI,
	})
	require.NoError(t, err)

	_, err = f.svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("110"),
		Origin:     domain.OriginCustomerAPI,
	})
	assert.ErrorIs(t, err, domain.ErrPeriodAlreadySet)
}

func TestRecord_RequiresActiveMeter(t *testing.T) {
	f := newFixture(t, midMonth(2026, time.March))
	ctx := context.Background()

	customerID := f.node.Generate()
	f.meters.On("ActiveForCustomer", mock.Anything, customerID).
		Return(meterdomain.Meter{}, meterdomain.ErrNoActiveMeter)

	_, err := f.svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("100"),
		Origin:     domain.OriginCustomerAPI,
	})
	assert.ErrorIs(t, err, meterdomain.ErrNoActiveMeter)
}

func TestRecordMissing_WaitsForGraceWindow(t *testing.T) {
	f := newFixture(t, time.Date(2026, time.March, 20, 9, 0, 0, 0, time.UTC))

	recorded, err := f.svc.RecordMissing(context.Background())
	require.NoError(t, err)
	assert.Zero(t, recorded)
	f.meters.AssertNotCalled(t, "ActiveForCustomer", mock.Anything, mock.Anything)
}

func TestRecordMissing_RepeatsPreviousPeriod(t *testing.T) {
	f := newFixture(t, midMonth(2026, time.March))
	ctx := context.Background()

	customerID := f.node.Generate()
	meter := meterdomain.Meter{
		ID:           f.node.Generate(),
		CustomerID:   customerID,
		SerialNumber: "MTR-AB12CD34",
		Status:       meterdomain.StatusApproved,
		Active:       true,
	}
	require.NoError(t, f.db.Create(&meter).Error)

	f.meters.On("ActiveForCustomer", mock.Anything, customerID).Return(meter, nil)
	f.tariffs.On("Resolve", mock.Anything, mock.Anything).Return(bracketFixture(f.node, "0.85"), nil)

	_, err := f.svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("100"),
		Origin:     domain.OriginCustomerAPI,
	})
	require.NoError(t, err)

	f.clock.Set(time.Date(2026, time.April, 21, 9, 0, 0, 0, time.UTC))

	recorded, err := f.svc.RecordMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, recorded)

	var backfilled domain.Consumption
	err = f.db.Where("customer_id = ? AND year = ? AND month = ?", customerID, 2026, 4).
		First(&backfilled).Error
	require.NoError(t, err)

	assert.True(t, backfilled.Reading.Equal(dec("200")), "counter advances by the repeated volume")
	assert.True(t, backfilled.Volume.Equal(dec("100")))
	assert.Equal(t, domain.SourceAutomatic, backfilled.Source)

	// The next sweep finds nothing left to fill.
	recorded, err = f.svc.RecordMissing(ctx)
	require.NoError(t, err)
	assert.Zero(t, recorded)
}

func TestRecordMissing_ToleratesMissingBracket(t *testing.T) {
	f := newFixture(t, midMonth(2026, time.March))
	ctx := context.Background()

	customerID := f.node.Generate()
	meter := meterdomain.Meter{
		ID:           f.node.Generate(),
		CustomerID:   customerID,
		SerialNumber: "MTR-EF56AB78",
		Status:       meterdomain.StatusApproved,
		Active:       true,
	}
	require.NoError(t, f.db.Create(&meter).Error)

	bracketID := f.node.Generate()
	seed := domain.Consumption{
		ID:              f.node.Generate(),
		CustomerID:      customerID,
		MeterID:         meter.ID,
		Reading:         dec("50"),
		Volume:          dec("50"),
		TariffBracketID: &bracketID,
		Source:          domain.SourceManual,
		Year:            2026,
		Month:           3,
		CreatedAt:       f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&seed).Error)

	f.meters.On("ActiveForCustomer", mock.Anything, customerID).Return(meter, nil)
	f.tariffs.On("Resolve", mock.Anything, mock.Anything).
		Return((*tariffdomain.TariffBracket)(nil), tariffdomain.ErrNoBracket)

	f.clock.Set(time.Date(2026, time.April, 25, 9, 0, 0, 0, time.UTC))

	recorded, err := f.svc.RecordMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, recorded)

	var backfilled domain.Consumption
	err = f.db.Where("customer_id = ? AND year = ? AND month = ?", customerID, 2026, 4).
		First(&backfilled).Error
	require.NoError(t, err)
	assert.Nil(t, backfilled.TariffBracketID)
}

// The delta is what gets billed: a counter at 150 after 100 lands in the
// low bracket even though the counter itself is past its upper bound.
func TestRecord_DeltaResolvesAgainstConfiguredBrackets(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Consumption{}, &meterdomain.Meter{}, &tariffdomain.TariffBracket{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(midMonth(2026, time.March))
	meters := &mockMeterService{}
	tariffs := tariffservice.New(tariffservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  tariffrepository.Provide(),
	})

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Metrics: nil,
		Repo:    repository.Provide(),
		Meters:  meters,
		Tariffs: tariffs,
	})

	ctx := context.Background()
	upTo50 := dec("50")
	low, err := tariffs.Create(ctx, tariffdomain.CreateBracketRequest{
		MinVolume:          dec("0"),
		MaxVolume:          &upTo50,
		PricePerCubicMeter: dec("1.00"),
	})
	require.NoError(t, err)
	_, err = tariffs.Create(ctx, tariffdomain.CreateBracketRequest{
		MinVolume:          dec("50"),
		PricePerCubicMeter: dec("0.80"),
	})
	require.NoError(t, err)

	customerID := node.Generate()
	meter := meterdomain.Meter{ID: node.Generate(), CustomerID: customerID, Active: true}
	meters.On("ActiveForCustomer", mock.Anything, customerID).Return(meter, nil)

	_, err = svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("100"),
		Origin:     domain.OriginBackOffice,
	})
	require.NoError(t, err)

	fake.Set(midMonth(2026, time.April))

	consumption, err := svc.Record(ctx, domain.RecordConsumptionRequest{
		CustomerID: customerID,
		Reading:    dec("150"),
		Origin:     domain.OriginBackOffice,
	})
	require.NoError(t, err)

	assert.True(t, consumption.Volume.Equal(dec("50")))
	require.NotNil(t, consumption.TariffBracketID)
	assert.Equal(t, low.ID, *consumption.TariffBracketID)
}

func TestHistory_ReturnsCustomerReadings(t *testing.T) {
	f := newFixture(t, midMonth(2026, time.March))
	ctx := context.Background()

	customerID := f.node.Generate()
	meter := meterdomain.Meter{ID: f.node.Generate(), CustomerID: customerID, Active: true}
	f.meters.On("ActiveForCustomer", mock.Anything, customerID).Return(meter, nil)
	f.tariffs.On("Resolve", mock.Anything, mock.Anything).Return(bracketFixture(f.node, "0.85"), nil)

	for i, reading := range []string{"100", "130"} {
		f.clock.Set(midMonth(2026, time.March+time.Month(i)))
		_, err := f.svc.Record(ctx, domain.RecordConsumptionRequest{
			CustomerID: customerID,
			Reading:    dec(reading),
			Origin:     domain.OriginBackOffice,
		})
		require.NoError(t, err)
	}

	history, err := f.svc.History(ctx, customerID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
