package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"stagegate/internal/bootstrap/config"
	"stagegate/internal/bootstrap/database"
	"stagegate/internal/bootstrap/logging"
	"stagegate/internal/errs"
	"stagegate/internal/infrastructure/events"
	"stagegate/internal/infrastructure/metrics"
	sqliterepo "stagegate/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "stagegate/internal/infrastructure/persistence/sqlite/uow"
	"stagegate/internal/ports"
	gateuc "stagegate/internal/usecase/gate"
	signoffuc "stagegate/internal/usecase/signoff"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewGateRepository,
			fx.As(new(ports.GateRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewSignoffRepository,
			fx.As(new(ports.SignoffRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewApproverRepository,
			fx.As(new(ports.ActorDirectory)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideMetricResolver),
	fx.Provide(providePublisher),
	fx.Provide(gateuc.NewService),
	fx.Provide(signoffuc.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

// provideMetricResolver exposes the TOML-backed resolver plus the concrete
// type so the serve command can attach the file watcher.
func provideMetricResolver(ctx context.Context, cfg config.Config) (*metrics.StaticResolver, ports.MetricResolver, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	resolver, err := metrics.NewStaticResolver(cfg.Metrics.Source)
	if err != nil {
		// A missing metrics file is a degraded mode, not a startup failure:
		// every lookup resolves to zero until the file appears.
		logging.Warn(logCtx, "metrics source unavailable, lookups resolve to zero",
			slog.String("source", cfg.Metrics.Source),
			slog.Any("err", errs.Loggable(err)),
		)
		resolver = metrics.NewEmptyResolver(cfg.Metrics.Source)
	}
	return resolver, resolver, nil
}

func providePublisher(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return events.NewNoopPublisher(), nil
	}

	publisher, err := events.NewNATSPublisher(cfg.Events.URL, cfg.Events.SubjectPrefix)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			publisher.Close()
			return nil
		},
	})

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx")),
		"audit event publisher connected", slog.String("url", cfg.Events.URL))
	return publisher, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}
