package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"albumd/pkg/bus"
	"albumd/pkg/cache"
	"albumd/pkg/db"
	"albumd/pkg/mediastore"
	"albumd/pkg/render"
	"albumd/pkg/telemetry"
	"albumd/services/admission"
	"albumd/services/api"
	"albumd/services/api/internal/config"
	"albumd/services/api/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	traceMiddleware := func(next http.Handler) http.Handler { return next }
	if cfg.OTLPEndpoint != "" {
		shutdownTelemetry, middleware, _, err := telemetry.Init(ctx, version.Name)
		if err != nil {
			log.Fatal().Err(err).Msg("init telemetry")
		}
		traceMiddleware = middleware
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	pool, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open database pool")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	orm, err := db.ConnectORM(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect orm")
	}
	defer func() {
		if err := db.CloseORM(orm); err != nil {
			log.Error().Err(err).Msg("close orm")
		}
	}()

	if err := api.SeedPackages(ctx, orm); err != nil {
		log.Fatal().Err(err).Msg("seed packages")
	}

	store, err := api.NewStore(pool, orm)
	if err != nil {
		log.Fatal().Err(err).Msg("build store")
	}

	var eventBus *bus.Bus
	if cfg.NATSURL != "" {
		eventBus, err = bus.New(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect nats")
		}
		defer eventBus.Close()

		reconciler, err := admission.NewReconciler(pool, eventBus)
		if err != nil {
			log.Fatal().Err(err).Msg("build admission reconciler")
		}
		if err := reconciler.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("start admission reconciler")
		}
		defer func() {
			if err := reconciler.Close(); err != nil {
				log.Error().Err(err).Msg("close admission reconciler")
			}
		}()
	}

	var media *mediastore.Client
	if cfg.MediaBucket != "" {
		media, err = mediastore.NewClientFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("init media store")
		}
	}

	readCache, err := cache.NewFromEnv(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("init cache")
	}
	if readCache != nil {
		defer func() {
			if err := readCache.Close(); err != nil {
				log.Error().Err(err).Msg("close cache")
			}
		}()
	}

	renderer, err := render.New()
	if err != nil {
		log.Fatal().Err(err).Msg("init renderer")
	}

	app, err := api.New(store, eventBus, media, readCache, renderer, api.Config{
		APIBase:        cfg.APIBaseURL,
		InviteTTL:      cfg.InviteTTL,
		MediaBucket:    cfg.MediaBucket,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build api")
	}

	routes, err := app.Routes()
	if err != nil {
		log.Fatal().Err(err).Msg("build routes")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           traceMiddleware(routes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("version", version.Version).Msg("starting albumd-api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
}
