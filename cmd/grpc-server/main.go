package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/thejerf/suture/v4"

	"stagehub/internal/app"
	"stagehub/internal/grpcserver"
	"stagehub/internal/logging"
	"stagehub/internal/refresh"
	"stagehub/pkg/utils"
)

// grpc-server runs the refresh scheduler behind the gRPC API only, for
// deployments that do not expose HTTP.
func main() {
	_ = godotenv.Load()

	cfg, err := utils.LoadConfig()
	if err != nil {
		boot := logging.New(logging.Config{})
		boot.Fatal().Err(err).Msg("config load failed")
	}
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if cfg.Server.GRPCAddr == "" {
		logger.Fatal().Msg("server.grpc_addr is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	if err := a.Service.LoadLatest(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not restore last snapshot")
	}

	sched, err := refresh.NewScheduler(a.Service, refresh.SchedulerConfig{
		Times:      cfg.Refresh.Times,
		Location:   a.Location,
		RunOnStart: cfg.Refresh.RunOnStart,
		Mode:       refresh.ModeScheduled,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad refresh schedule")
	}

	sup := suture.New("stagehub-grpc", suture.Spec{EventHook: logging.SutureHook(logger)})
	sup.Add(&grpcserver.Service{
		Addr:   cfg.Server.GRPCAddr,
		Server: grpcserver.NewGRPCServer(grpcserver.NewServer(a.Service), logger),
	})
	sup.Add(sched)

	logger.Info().Str("addr", cfg.Server.GRPCAddr).Strs("sources", a.Sources.Names()).Msg("gRPC server starting")
	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("supervisor stopped")
	}
}
