package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/internal/clock"
	"github.com/hydrosuite/aquabill/internal/config"
	"github.com/hydrosuite/aquabill/internal/migration"
	"github.com/hydrosuite/aquabill/internal/observability"
	"github.com/hydrosuite/aquabill/internal/scheduler"
	"github.com/hydrosuite/aquabill/internal/server"
	"github.com/hydrosuite/aquabill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
