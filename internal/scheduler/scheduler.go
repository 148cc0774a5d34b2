// Package scheduler periodically backfills readings customers failed to
// submit before the grace window closed.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/hydrosuite/aquabill/internal/clock"
	consumptiondomain "github.com/hydrosuite/aquabill/internal/consumption/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependencies")

type Params struct {
	fx.In

	Log            *zap.Logger
	Clock          clock.Clock
	ConsumptionSvc consumptiondomain.Service
	Config         Config `optional:"true"`
}

type Scheduler struct {
	log            *zap.Logger
	cfg            Config
	clock          clock.Clock
	consumptionSvc consumptiondomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.ConsumptionSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:            p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:            p.Config.withDefaults(),
		clock:          p.Clock,
		consumptionSvc: p.ConsumptionSvc,
	}, nil
}

// RunOnce executes a single backfill sweep. The consumption service
// decides whether the grace window has passed.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	start := s.clock.Now()
	recorded, err := s.consumptionSvc.RecordMissing(ctx)
	if err != nil {
		s.log.Warn("backfill sweep failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return err
	}

	if recorded > 0 {
		s.log.Info("backfill sweep completed",
			zap.Int("recorded", recorded),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
