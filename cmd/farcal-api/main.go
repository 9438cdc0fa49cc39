// README: Entry point; loads config, opens the fare model, serves the HTTP API until signalled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	_ "go.uber.org/automaxprocs"

	"farcal/internal/config"
	httptransport "farcal/internal/http"
	"farcal/internal/http/middleware"
	"farcal/internal/inference"
	"farcal/internal/infra"
	"farcal/internal/logger"
	"farcal/internal/metrics"
	"farcal/internal/modules/fare"
)

func main() {
	if err := run(inference.LoadONNX); err != nil {
		log.Fatal().Err(err).Msg("farcal-api stopped")
	}
}

// run returns instead of exiting so every deferred teardown below runs.
func run(load inference.Loader) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.App.Name, cfg.App.Env, cfg.Log.Level); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	metrics.Init(metrics.Config{
		Address:      cfg.Metrics.StatsdAddr,
		SamplingRate: cfg.Metrics.SamplingRate,
		AppName:      cfg.App.Name,
		Env:          cfg.App.Env,
	})
	defer metrics.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := inference.Open(inference.Options{
		Path:              cfg.Model.Path,
		RuntimeLibrary:    cfg.Model.RuntimeLibrary,
		Inputs:            fare.InputNames,
		ModelType:         cfg.Model.Type,
		MaxConcurrentRuns: cfg.Model.MaxConcurrentRuns,
	}, load)
	if err != nil {
		return fmt.Errorf("open fare model: %w", err)
	}
	// Close waits for batches still held by requests the drain cut off.
	defer func() {
		if err := engine.Close(); err != nil {
			log.Error().Err(err).Msg("close fare model")
		}
	}()

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init rate limiter: %w", err)
	}
	defer closeLimiter()

	router, err := httptransport.NewRouter(httptransport.RouterDeps{
		Fare:           fare.NewService(engine),
		Model:          engine,
		Limiter:        limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Env:            cfg.App.Env,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	server := httptransport.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout)
	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("http server")
	}
	return nil
}

// newLimiter picks a shared Redis limiter when redis.addr is set, an
// in-process one otherwise, and none when the limit is zero.
func newLimiter(ctx context.Context, cfg config.Config) (middleware.Limiter, func(), error) {
	noop := func() {}
	perMinute := cfg.RateLimit.RequestsPerMinute
	if perMinute == 0 {
		return nil, noop, nil
	}
	if cfg.Redis.Addr == "" {
		log.Info().Int("requests_per_minute", perMinute).Msg("using in-process rate limiter")
		return infra.NewLocalLimiter(perMinute, cfg.RateLimit.Burst), noop, nil
	}
	rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return nil, noop, err
	}
	log.Info().Str("redis", cfg.Redis.Addr).Int("requests_per_minute", perMinute).Msg("using redis rate limiter")
	return infra.NewRedisLimiter(rdb, perMinute), func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}
	}, nil
}
