// @title           Credora API
// @version         1.0
// @description     Credora customer reliability & operations API
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@credora.dev

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api
// @Schemes 	http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/credora/internal/activity"
	"github.com/smallbiznis/credora/internal/apikey"
	"github.com/smallbiznis/credora/internal/audit"
	"github.com/smallbiznis/credora/internal/clock"
	"github.com/smallbiznis/credora/internal/config"
	"github.com/smallbiznis/credora/internal/customer"
	"github.com/smallbiznis/credora/internal/dashboard"
	"github.com/smallbiznis/credora/internal/events"
	"github.com/smallbiznis/credora/internal/feedback"
	"github.com/smallbiznis/credora/internal/invoice"
	"github.com/smallbiznis/credora/internal/migration"
	"github.com/smallbiznis/credora/internal/observability"
	"github.com/smallbiznis/credora/internal/project"
	"github.com/smallbiznis/credora/internal/ratelimit"
	"github.com/smallbiznis/credora/internal/rating"
	"github.com/smallbiznis/credora/internal/rating/sweep"
	"github.com/smallbiznis/credora/internal/receipt"
	"github.com/smallbiznis/credora/internal/seed"
	"github.com/smallbiznis/credora/internal/server"
	"github.com/smallbiznis/credora/internal/webhook"
	"github.com/smallbiznis/credora/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, log *zap.Logger) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if err := seed.EnsureMainOrg(conn, node); err != nil {
				return err
			}
			if !cfg.IsCloud() && cfg.Bootstrap.EnsureDefaultOrgAndKey {
				return seed.EnsureMainOrgAndKey(conn, node, log)
			}
			return nil
		}),

		customer.Module,
		invoice.Module,
		receipt.Module,
		project.Module,
		feedback.Module,
		activity.Module,
		events.Module,
		rating.Module,
		sweep.Module,
		webhook.Module,
		audit.Module,
		apikey.Module,
		dashboard.Module,
		ratelimit.Module,

		server.Module,
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
