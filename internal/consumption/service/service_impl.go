package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/internal/clock"
	"github.com/hydrosuite/aquabill/internal/consumption/domain"
	meterdomain "github.com/hydrosuite/aquabill/internal/meter/domain"
	"github.com/hydrosuite/aquabill/internal/observability/metrics"
	tariffdomain "github.com/hydrosuite/aquabill/internal/tariff/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// Portal submissions close after this day of the month.
	submissionDeadlineDay = 25

	// Missing readings are backfilled only once this day has passed.
	backfillGraceDay = 20
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics
	Repo    domain.Repository
	Meters  meterdomain.Service
	Tariffs tariffdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
	repo    domain.Repository
	meters  meterdomain.Service
	tariffs tariffdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("consumption.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
		repo:    p.Repo,
		meters:  p.Meters,
		tariffs: p.Tariffs,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordConsumptionRequest) (domain.Consumption, error) {
	if req.CustomerID == 0 {
		return domain.Consumption{}, domain.ErrInvalidCustomer
	}
	if !req.Reading.IsPositive() {
		return domain.Consumption{}, domain.ErrInvalidReading
	}

	now := s.clock.Now().UTC()
	if req.Origin == domain.OriginCustomerAPI && now.Day() > submissionDeadlineDay {
		return domain.Consumption{}, domain.ErrDeadlinePassed
	}

	meter, err := s.meters.ActiveForCustomer(ctx, req.CustomerID)
	if err != nil {
		return domain.Consumption{}, err
	}

	var consumption domain.Consumption
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByCustomerAndPeriod(ctx, tx, req.CustomerID, now.Year(), int(now.Month()))
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrPeriodAlreadySet
		}

		last, err := s.repo.FindLastByCustomer(ctx, tx, req.CustomerID)
		if err != nil {
			return err
		}

		volume := req.Reading
		if last != nil {
			if req.Reading.LessThanOrEqual(last.Reading) {
				return domain.ErrReadingNotHigher
			}
			volume = req.Reading.Sub(last.Reading)
		}

		bracket, err := s.tariffs.Resolve(ctx, volume)
		if err != nil {
			return err
		}

		consumption = domain.Consumption{
			ID:              s.genID.Generate(),
			CustomerID:      req.CustomerID,
			MeterID:         meter.ID,
			Reading:         req.Reading,
			Volume:          volume,
			TariffBracketID: &bracket.ID,
			Source:          domain.SourceManual,
			Year:            now.Year(),
			Month:           int(now.Month()),
			CreatedAt:       now,
		}
		return s.repo.Insert(ctx, tx, &consumption)
	})
	if err != nil {
		return domain.Consumption{}, err
	}

	s.metrics.ReadingRecorded(ctx, string(domain.SourceManual))
	s.log.Info("reading recorded",
		zap.String("consumption_id", consumption.ID.String()),
		zap.String("customer_id", req.CustomerID.String()),
		zap.String("volume", consumption.Volume.String()),
	)

	return consumption, nil
}

func (s *Service) RecordMissing(ctx context.Context) (int, error) {
	now := s.clock.Now().UTC()
	if now.Day() <= backfillGraceDay {
		return 0, nil
	}

	customerIDs, err := s.repo.ListCustomersMissingPeriod(ctx, s.db, now.Year(), int(now.Month()))
	if err != nil {
		return 0, err
	}

	recorded := 0
	for _, customerID := range customerIDs {
		if err := s.backfill(ctx, customerID, now); err != nil {
			s.log.Warn("backfill failed",
				zap.String("customer_id", customerID.String()),
				zap.Error(err),
			)
			continue
		}
		recorded++
	}

	if recorded > 0 {
		s.log.Info("missing readings backfilled",
			zap.Int("count", recorded),
			zap.Int("year", now.Year()),
			zap.Int("month", int(now.Month())),
		)
	}
	return recorded, nil
}

// backfill repeats the customer's previous period. The new counter
// advances by the previous volume so the next manual reading still
// bills a correct delta.
func (s *Service) backfill(ctx context.Context, customerID snowflake.ID, now time.Time) error {
	meter, err := s.meters.ActiveForCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByCustomerAndPeriod(ctx, tx, customerID, now.Year(), int(now.Month()))
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		last, err := s.repo.FindLastByCustomer(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if last == nil {
			// Nothing to repeat until the first manual reading exists.
			return nil
		}

		var bracketID *snowflake.ID
		bracket, err := s.tariffs.Resolve(ctx, last.Volume)
		switch {
		case err == nil:
			bracketID = &bracket.ID
		case errors.Is(err, tariffdomain.ErrNoBracket):
			// Backfilled rows may stay unpriced; issuance re-resolves.
		default:
			return err
		}

		consumption := domain.Consumption{
			ID:              s.genID.Generate(),
			CustomerID:      customerID,
			MeterID:         meter.ID,
			Reading:         last.Reading.Add(last.Volume),
			Volume:          last.Volume,
			TariffBracketID: bracketID,
			Source:          domain.SourceAutomatic,
			Year:            now.Year(),
			Month:           int(now.Month()),
			CreatedAt:       now,
		}
		if err := s.repo.Insert(ctx, tx, &consumption); err != nil {
			return err
		}

		s.metrics.ReadingRecorded(ctx, string(domain.SourceAutomatic))
		return nil
	})
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Consumption, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Consumption{}, err
	}

	consumption, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Consumption{}, err
	}
	if consumption == nil {
		return domain.Consumption{}, domain.ErrNotFound
	}
	return *consumption, nil
}

func (s *Service) History(ctx context.Context, customerID snowflake.ID) ([]domain.Consumption, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}

	items, err := s.repo.ListByCustomer(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}

	consumptions := make([]domain.Consumption, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		consumptions = append(consumptions, *item)
	}
	return consumptions, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
