package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/hydrosuite/aquabill/internal/clock"
	"github.com/hydrosuite/aquabill/internal/notification/domain"
	"github.com/hydrosuite/aquabill/internal/notification/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Notification{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clock.NewFakeClock(time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)),
		Metrics: nil,
		Repo:    repository.Provide(),
	})
	return svc, node
}

func TestNotifyCustomer_AppearsUnread(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	customerID := node.Generate()
	notification, err := svc.NotifyCustomer(ctx, customerID, domain.CategoryInvoiceIssued, "Your invoice is ready.")
	require.NoError(t, err)
	assert.False(t, notification.Read)

	unread, err := svc.UnreadForCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Your invoice is ready.", unread[0].Message)
	assert.Equal(t, domain.CategoryInvoiceIssued, unread[0].Category)

	// Customer entries never leak into the employee inbox.
	employee, err := svc.UnreadForEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, employee)
}

func TestNotify_RejectsBlankMessage(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	_, err := svc.NotifyCustomer(ctx, node.Generate(), domain.CategoryGeneral, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	_, err = svc.NotifyEmployees(ctx, domain.CategoryGeneral, "")
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)
}

func TestNotify_EmptyCategoryDefaultsToGeneral(t *testing.T) {
	svc, node := newTestService(t)

	notification, err := svc.NotifyCustomer(context.Background(), node.Generate(), "", "Welcome.")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryGeneral, notification.Category)
}

func TestMarkAllRead_ScopedToOneCustomer(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	first := node.Generate()
	second := node.Generate()

	for _, id := range []snowflake.ID{first, second} {
		_, err := svc.NotifyCustomer(ctx, id, domain.CategoryGeneral, "Reading reminder.")
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAllRead(ctx, first))

	unread, err := svc.UnreadForCustomer(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, unread)

	unread, err = svc.UnreadForCustomer(ctx, second)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	// Repeating the call is a no-op.
	require.NoError(t, svc.MarkAllRead(ctx, first))
}

func TestMarkAllRead_LeavesAdminQueueAlone(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	customerID := node.Generate()
	_, err := svc.NotifyCustomer(ctx, customerID, domain.CategoryInvoiceIssued, "Your invoice is ready.")
	require.NoError(t, err)
	_, err = svc.NotifyAdmins(ctx, customerID, domain.CategoryAccountSetup, "Set up portal access for Maria Alves.")
	require.NoError(t, err)

	// The admin entry references the same customer; the portal action
	// must not clear it.
	require.NoError(t, svc.MarkAllRead(ctx, customerID))

	unread, err := svc.UnreadForCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, unread)

	setup, err := svc.UnreadAccountSetup(ctx)
	require.NoError(t, err)
	require.Len(t, setup, 1)
	require.NotNil(t, setup[0].CustomerID)
	assert.Equal(t, customerID, *setup[0].CustomerID)
}

func TestUnreadAccountSetup_FiltersByCategory(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	customerID := node.Generate()
	_, err := svc.NotifyAdmins(ctx, customerID, domain.CategoryAccountSetup, "Set up portal access for Maria Alves.")
	require.NoError(t, err)

	_, err = svc.NotifyEmployees(ctx, domain.CategoryMeterRequest, "New meter request received.")
	require.NoError(t, err)

	setup, err := svc.UnreadAccountSetup(ctx)
	require.NoError(t, err)
	require.Len(t, setup, 1)
	assert.Equal(t, domain.CategoryAccountSetup, setup[0].Category)
	require.NotNil(t, setup[0].CustomerID)
	assert.Equal(t, customerID, *setup[0].CustomerID)

	// Both land in the employee inbox.
	employee, err := svc.UnreadForEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, employee, 2)
}
