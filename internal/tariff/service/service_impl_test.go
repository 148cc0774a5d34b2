package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/hydrosuite/aquabill/internal/clock"
	consumptiondomain "github.com/hydrosuite/aquabill/internal/consumption/domain"
	"github.com/hydrosuite/aquabill/internal/tariff/domain"
	"github.com/hydrosuite/aquabill/internal/tariff/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.TariffBracket{}, &consumptiondomain.Consumption{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(testNow),
		Repo:  repository.Provide(),
	})
	return svc, db
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

func TestResolve_InclusiveBounds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bracket, err := svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("0"),
		MaxVolume:          decPtr("50"),
		PricePerCubicMeter: dec("0.50"),
	})
	require.NoError(t, err)
	assert.True(t, bracket.CreatedAt.Equal(testNow))

	for _, volume := range []string{"0", "25.5", "50"} {
		bracket, err := svc.Resolve(ctx, dec(volume))
		require.NoError(t, err, "volume %s", volume)
		assert.True(t, bracket.PricePerCubicMeter.Equal(dec("0.50")))
	}
}

func TestResolve_LowestBracketWinsOnSharedBoundary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("0"),
		MaxVolume:          decPtr("50"),
		PricePerCubicMeter: dec("0.50"),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("50"),
		MaxVolume:          nil,
		PricePerCubicMeter: dec("1.50"),
	})
	require.NoError(t, err)

	bracket, err := svc.Resolve(ctx, dec("50"))
	require.NoError(t, err)
	assert.True(t, bracket.PricePerCubicMeter.Equal(dec("0.50")), "boundary volume must price at the lower bracket")

	bracket, err = svc.Resolve(ctx, dec("50.001"))
	require.NoError(t, err)
	assert.True(t, bracket.PricePerCubicMeter.Equal(dec("1.50")))
}

func TestResolve_NoBracket(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("10"),
		MaxVolume:          decPtr("20"),
		PricePerCubicMeter: dec("0.50"),
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, dec("5"))
	assert.ErrorIs(t, err, domain.ErrNoBracket)
}

func TestCreate_RejectsInteriorOverlap(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("0"),
		MaxVolume:          decPtr("50"),
		PricePerCubicMeter: dec("0.50"),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("40"),
		MaxVolume:          decPtr("60"),
		PricePerCubicMeter: dec("0.75"),
	})
	assert.ErrorIs(t, err, domain.ErrOverlap)

	// Open-ended bracket overlapping the interior.
	_, err = svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("10"),
		MaxVolume:          nil,
		PricePerCubicMeter: dec("0.75"),
	})
	assert.ErrorIs(t, err, domain.ErrOverlap)
}

func TestCreate_ValidatesRangeAndPrice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("-1"),
		MaxVolume:          nil,
		PricePerCubicMeter: dec("0.50"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("10"),
		MaxVolume:          decPtr("10"),
		PricePerCubicMeter: dec("0.50"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("0"),
		MaxVolume:          nil,
		PricePerCubicMeter: dec("0"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestDelete_RefusesBracketInUse(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	bracket, err := svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("0"),
		MaxVolume:          nil,
		PricePerCubicMeter: dec("0.50"),
	})
	require.NoError(t, err)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	bracketID := bracket.ID
	consumption := consumptiondomain.Consumption{
		ID:              node.Generate(),
		CustomerID:      node.Generate(),
		MeterID:         node.Generate(),
		Reading:         dec("10"),
		Volume:          dec("10"),
		TariffBracketID: &bracketID,
		Source:          consumptiondomain.SourceManual,
		Year:            2026,
		Month:           8,
	}
	require.NoError(t, db.Create(&consumption).Error)

	err = svc.Delete(ctx, bracket.ID.String())
	assert.ErrorIs(t, err, domain.ErrBracketInUse)
}

func TestUpdate_AllowsTouchingBoundaries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	lower, err := svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("0"),
		MaxVolume:          decPtr("40"),
		PricePerCubicMeter: dec("0.50"),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateBracketRequest{
		MinVolume:          dec("40"),
		MaxVolume:          nil,
		PricePerCubicMeter: dec("1.00"),
	})
	require.NoError(t, err)

	// Extending the lower bracket up to the neighbor's min stays legal.
	updated, err := svc.Update(ctx, domain.UpdateBracketRequest{
		ID:                 lower.ID.String(),
		MinVolume:          dec("0"),
		MaxVolume:          decPtr("40"),
		PricePerCubicMeter: dec("0.60"),
	})
	require.NoError(t, err)
	assert.True(t, updated.PricePerCubicMeter.Equal(dec("0.60")))
}
