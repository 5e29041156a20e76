package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/classtrack/modules/accounts"
	"github.com/dmitrymomot/classtrack/modules/notifications"
	"github.com/dmitrymomot/classtrack/modules/school"
	"github.com/dmitrymomot/classtrack/pkg/config"
	"github.com/dmitrymomot/classtrack/pkg/dispatch"
	"github.com/dmitrymomot/classtrack/pkg/httpserver"
	"github.com/dmitrymomot/classtrack/pkg/identity"
	"github.com/dmitrymomot/classtrack/pkg/logger"
	"github.com/dmitrymomot/classtrack/pkg/notification"
	"github.com/dmitrymomot/classtrack/pkg/pg"
	"github.com/dmitrymomot/classtrack/pkg/realtime"
	"github.com/dmitrymomot/classtrack/pkg/roster"
)

type appConfig struct {
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("Server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var appCfg appConfig
	if err := config.Load(&appCfg); err != nil {
		return err
	}
	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return err
	}
	var acctCfg accounts.Config
	if err := config.Load(&acctCfg); err != nil {
		return err
	}
	var relayCfg realtime.RelayConfig
	if err := config.Load(&relayCfg); err != nil {
		return err
	}

	log := logger.New(logger.WithEnvironment(appCfg.AppEnv, "classtrack"))
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	rosterStore := roster.NewPgStore(pool)
	notifStore := notification.NewPgStore(pool)

	registry := realtime.NewRegistry(realtime.WithLogger(log))

	// Pushes go straight to the local registry unless a relay is configured,
	// in which case they travel through Redis so every instance delivers to
	// the connections it holds.
	var pusher dispatch.Pusher = registry
	if relayCfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(relayCfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()

		relay, err := realtime.NewRelay(rdb, registry, relayCfg, log)
		if err != nil {
			return err
		}
		go func() {
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				log.ErrorContext(ctx, "Realtime relay stopped", logger.Error(err))
			}
		}()
		pusher = relay
	}

	alloc := identity.New(rosterStore.UserIDExists, rosterStore.UsernameExists)
	engine := dispatch.NewEngine(notifStore, pusher, rosterStore, dispatch.WithLogger(log))

	accountsSvc := accounts.NewService(rosterStore, alloc, acctCfg, accounts.WithLogger(log))
	accountsHandler := accounts.NewHandler(accountsSvc)
	notifHandler := notifications.NewHandler(notifStore, engine, pusher, accountsSvc,
		notifications.WithLogger(log))
	schoolHandler := school.NewHandler(rosterStore, engine, school.WithLogger(log))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.HealthCheckHandler(ctx, log, pg.Healthcheck(pool)))
	r.Mount("/accounts", accountsHandler.Router())
	r.Get("/ws", notifHandler.WSHandler(registry))

	r.Group(func(authed chi.Router) {
		authed.Use(accounts.Middleware(accountsSvc))
		authed.Mount("/notifications", notifHandler.Router())
		authed.Mount("/", schoolHandler.Router())
	})

	srv := httpserver.New(
		httpserver.WithAddr(appCfg.ServerAddr),
		httpserver.WithLogger(log),
	)
	return srv.Run(ctx, r)
}
