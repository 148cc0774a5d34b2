package meter

import (
	"github.com/hydrosuite/aquabill/internal/meter/repository"
	"github.com/hydrosuite/aquabill/internal/meter/service"
	"go.uber.org/fx"
)

var Module = fx.Module("meter.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
