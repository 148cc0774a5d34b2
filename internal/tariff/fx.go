package tariff

import (
	"github.com/hydrosuite/aquabill/internal/tariff/repository"
	"github.com/hydrosuite/aquabill/internal/tariff/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tariff.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
