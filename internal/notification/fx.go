package notification

import (
	"github.com/hydrosuite/aquabill/internal/notification/repository"
	"github.com/hydrosuite/aquabill/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
