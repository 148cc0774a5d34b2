package meterrequest

import (
	"github.com/hydrosuite/aquabill/internal/meterrequest/repository"
	"github.com/hydrosuite/aquabill/internal/meterrequest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("meterrequest.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
