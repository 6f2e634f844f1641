package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/pabloguineab/debugcv-sub002/internal/clock"
	"github.com/pabloguineab/debugcv-sub002/internal/config"
	"github.com/pabloguineab/debugcv-sub002/internal/db"
	"github.com/pabloguineab/debugcv-sub002/internal/entitlement"
	"github.com/pabloguineab/debugcv-sub002/internal/events"
	"github.com/pabloguineab/debugcv-sub002/internal/logger"
	"github.com/pabloguineab/debugcv-sub002/internal/migration"
	"github.com/pabloguineab/debugcv-sub002/internal/observability"
	"github.com/pabloguineab/debugcv-sub002/internal/plan"
	"github.com/pabloguineab/debugcv-sub002/internal/quota"
	"github.com/pabloguineab/debugcv-sub002/internal/resource"
	"github.com/pabloguineab/debugcv-sub002/internal/seed"
	"github.com/pabloguineab/debugcv-sub002/internal/server"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		fx.Provide(quota.DefaultPolicy),
		fx.Invoke(func(policy quota.Policy) error {
			// A tier/action pair missing from the table is a
			// programming defect; abort boot, never a request.
			return policy.Validate()
		}),
		db.Module,
		clock.Module,
		fx.Provide(events.NewOutbox),
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if !cfg.IsProduction() && cfg.SeedDemoData {
				return seed.EnsureDemoPrincipal(conn)
			}
			return nil
		}),
		plan.Module,
		entitlement.Module,
		resource.Module,
		server.Module,
	)
	app.Run()
}
