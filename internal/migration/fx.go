package migration

import (
	"github.com/hydrosuite/aquabill/internal/config"
	consumptiondomain "github.com/hydrosuite/aquabill/internal/consumption/domain"
	customerdomain "github.com/hydrosuite/aquabill/internal/customer/domain"
	invoicedomain "github.com/hydrosuite/aquabill/internal/invoice/domain"
	meterdomain "github.com/hydrosuite/aquabill/internal/meter/domain"
	meterrequestdomain "github.com/hydrosuite/aquabill/internal/meterrequest/domain"
	notificationdomain "github.com/hydrosuite/aquabill/internal/notification/domain"
	"github.com/hydrosuite/aquabill/internal/seed"
	tariffdomain "github.com/hydrosuite/aquabill/internal/tariff/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite installs rely on gorm's schema sync.
			if err := conn.AutoMigrate(
				&customerdomain.Customer{},
				&meterdomain.Meter{},
				&meterrequestdomain.MeterRequest{},
				&tariffdomain.TariffBracket{},
				&consumptiondomain.Consumption{},
				&invoicedomain.Invoice{},
				&notificationdomain.Notification{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultTariffs(conn)
	}),
)
