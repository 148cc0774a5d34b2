package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/hydrosuite/aquabill/internal/clock"
	"github.com/hydrosuite/aquabill/internal/meter/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serialAttempts = 5

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("meter.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Provision(ctx context.Context, customerID snowflake.ID) (domain.Meter, error) {
	return s.ProvisionInTx(ctx, s.db, customerID)
}

func (s *Service) ProvisionInTx(ctx context.Context, tx *gorm.DB, customerID snowflake.ID) (domain.Meter, error) {
	if customerID == 0 {
		return domain.Meter{}, domain.ErrInvalidCustomer
	}

	serial, err := s.nextSerial(ctx, tx)
	if err != nil {
		return domain.Meter{}, err
	}

	now := s.clock.Now().UTC()
	meter := domain.Meter{
		ID:           s.genID.Generate(),
		CustomerID:   customerID,
		SerialNumber: serial,
		Status:       domain.StatusApproved,
		Active:       true,
		InstalledAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, tx, &meter); err != nil {
		return domain.Meter{}, err
	}

	s.log.Info("meter provisioned",
		zap.String("meter_id", meter.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("serial_number", serial),
	)

	return meter, nil
}

func (s *Service) RequestAdditional(ctx context.Context, customerID snowflake.ID) (domain.Meter, error) {
	if customerID == 0 {
		return domain.Meter{}, domain.ErrInvalidCustomer
	}

	serial, err := s.nextSerial(ctx, s.db)
	if err != nil {
		return domain.Meter{}, err
	}

	now := s.clock.Now().UTC()
	meter := domain.Meter{
		ID:           s.genID.Generate(),
		CustomerID:   customerID,
		SerialNumber: serial,
		Status:       domain.StatusPending,
		Active:       false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, &meter); err != nil {
		return domain.Meter{}, err
	}

	s.log.Info("additional meter requested",
		zap.String("meter_id", meter.ID.String()),
		zap.String("customer_id", customerID.String()),
	)

	return meter, nil
}

func (s *Service) Approve(ctx context.Context, rawID string) (domain.Meter, error) {
	meter, err := s.pendingByID(ctx, rawID)
	if err != nil {
		return domain.Meter{}, err
	}

	now := s.clock.Now().UTC()
	meter.Status = domain.StatusApproved
	meter.Active = true
	meter.InstalledAt = &now
	meter.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, meter); err != nil {
		return domain.Meter{}, err
	}

	s.log.Info("meter approved", zap.String("meter_id", meter.ID.String()))
	return *meter, nil
}

func (s *Service) Reject(ctx context.Context, rawID string) (domain.Meter, error) {
	meter, err := s.pendingByID(ctx, rawID)
	if err != nil {
		return domain.Meter{}, err
	}

	meter.Status = domain.StatusRejected
	meter.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, s.db, meter); err != nil {
		return domain.Meter{}, err
	}

	s.log.Info("meter rejected", zap.String("meter_id", meter.ID.String()))
	return *meter, nil
}

func (s *Service) pendingByID(ctx context.Context, rawID string) (*domain.Meter, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	meter, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if meter == nil {
		return nil, domain.ErrNotFound
	}
	if meter.Status != domain.StatusPending {
		return nil, domain.ErrAlreadyDecided
	}
	return meter, nil
}

// nextSerial draws "MTR-" plus the first 8 hex characters of a UUID,
// retrying on the unlikely collision with an existing serial.
func (s *Service) nextSerial(ctx context.Context, db *gorm.DB) (string, error) {
	for i := 0; i < serialAttempts; i++ {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		serial := "MTR-" + strings.ToUpper(raw[:8])

		existing, err := s.repo.FindBySerial(ctx, db, serial)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return serial, nil
		}
	}
	return "", domain.ErrSerialExhausted
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Meter, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Meter{}, err
	}

	meter, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Meter{}, err
	}
	if meter == nil {
		return domain.Meter{}, domain.ErrNotFound
	}
	return *meter, nil
}

func (s *Service) GetBySerial(ctx context.Context, serial string) (domain.Meter, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return domain.Meter{}, domain.ErrInvalidSerial
	}

	meter, err := s.repo.FindBySerial(ctx, s.db, serial)
	if err != nil {
		return domain.Meter{}, err
	}
	if meter == nil {
		return domain.Meter{}, domain.ErrNotFound
	}
	return *meter, nil
}

func (s *Service) ListPending(ctx context.Context) ([]domain.Meter, error) {
	items, err := s.repo.ListByStatus(ctx, s.db, domain.StatusPending)
	if err != nil {
		return nil, err
	}

	meters := make([]domain.Meter, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		meters = append(meters, *item)
	}
	return meters, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]domain.Meter, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}

	items, err := s.repo.ListByCustomer(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}

	meters := make([]domain.Meter, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		meters = append(meters, *item)
	}
	return meters, nil
}

func (s *Service) ActiveForCustomer(ctx context.Context, customerID snowflake.ID) (domain.Meter, error) {
	if customerID == 0 {
		return domain.Meter{}, domain.ErrInvalidCustomer
	}

	meter, err := s.repo.FindActiveByCustomer(ctx, s.db, customerID)
	if err != nil {
		return domain.Meter{}, err
	}
	if meter == nil {
		return domain.Meter{}, domain.ErrNoActiveMeter
	}
	return *meter, nil
}

func (s *Service) Deactivate(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	meter, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if meter == nil {
		return domain.ErrNotFound
	}

	meter.Active = false
	meter.UpdatedAt = s.clock.Now().UTC()
	return s.repo.Update(ctx, s.db, meter)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
