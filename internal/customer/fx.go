package customer

import (
	"github.com/hydrosuite/aquabill/internal/customer/repository"
	"github.com/hydrosuite/aquabill/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
