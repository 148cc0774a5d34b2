package consumption

import (
	"github.com/hydrosuite/aquabill/internal/consumption/repository"
	"github.com/hydrosuite/aquabill/internal/consumption/service"
	"go.uber.org/fx"
)

var Module = fx.Module("consumption.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
