package invoice

import (
	"github.com/hydrosuite/aquabill/internal/invoice/repository"
	"github.com/hydrosuite/aquabill/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
