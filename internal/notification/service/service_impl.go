package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/internal/clock"
	"github.com/hydrosuite/aquabill/internal/notification/domain"
	"github.com/hydrosuite/aquabill/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics
	Repo    domain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
	repo    domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("notification.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
		repo:    p.Repo,
	}
}

func (s *Service) NotifyCustomer(ctx context.Context, customerID snowflake.ID, category domain.Category, message string) (domain.Notification, error) {
	if customerID == 0 {
		return domain.Notification{}, domain.ErrInvalidCustomer
	}
	return s.dispatch(ctx, &customerID, false, category, message)
}

func (s *Service) NotifyEmployees(ctx context.Context, category domain.Category, message string) (domain.Notification, error) {
	return s.dispatch(ctx, nil, true, category, message)
}

func (s *Service) NotifyAdmins(ctx context.Context, customerID snowflake.ID, category domain.Category, message string) (domain.Notification, error) {
	if customerID == 0 {
		return domain.Notification{}, domain.ErrInvalidCustomer
	}
	return s.dispatch(ctx, &customerID, true, category, message)
}

func (s *Service) dispatch(ctx context.Context, customerID *snowflake.ID, forEmployee bool, category domain.Category, message string) (domain.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.Notification{}, domain.ErrInvalidMessage
	}
	if category == "" {
		category = domain.CategoryGeneral
	}

	notification := domain.Notification{
		ID:          s.genID.Generate(),
		Message:     message,
		Category:    category,
		CustomerID:  customerID,
		ForEmployee: forEmployee,
		Read:        false,
		CreatedAt:   s.clock.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &notification); err != nil {
		return domain.Notification{}, err
	}

	s.metrics.NotificationDispatched(ctx, string(category))
	s.log.Debug("notification dispatched",
		zap.String("notification_id", notification.ID.String()),
		zap.String("category", string(category)),
		zap.Bool("for_employee", forEmployee),
	)

	return notification, nil
}

func (s *Service) UnreadForCustomer(ctx context.Context, customerID snowflake.ID) ([]domain.Notification, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	items, err := s.repo.UnreadByCustomer(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	return dereference(items), nil
}

func (s *Service) UnreadForEmployees(ctx context.Context) ([]domain.Notification, error) {
	items, err := s.repo.UnreadForEmployees(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return dereference(items), nil
}

func (s *Service) UnreadAccountSetup(ctx context.Context) ([]domain.Notification, error) {
	items, err := s.repo.UnreadByCategory(ctx, s.db, domain.CategoryAccountSetup)
	if err != nil {
		return nil, err
	}
	return dereference(items), nil
}

func (s *Service) MarkAllRead(ctx context.Context, customerID snowflake.ID) error {
	if customerID == 0 {
		return domain.ErrInvalidCustomer
	}
	_, err := s.repo.MarkAllRead(ctx, s.db, customerID)
	return err
}

func dereference(items []*domain.Notification) []domain.Notification {
	notifications := make([]domain.Notification, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		notifications = append(notifications, *item)
	}
	return notifications
}
