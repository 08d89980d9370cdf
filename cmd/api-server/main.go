package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"stagehub/internal/app"
	"stagehub/internal/auth"
	"stagehub/internal/grpcserver"
	"stagehub/internal/logging"
	"stagehub/internal/performance"
	"stagehub/internal/refresh"
	synchub "stagehub/internal/sync"
	"stagehub/pkg/utils"
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := utils.LoadConfig()
	if err != nil {
		boot := logging.New(logging.Config{})
		boot.Fatal().Err(err).Msg("config load failed")
	}
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := synchub.NewHub(logger)

	a, err := app.Build(ctx, cfg, hub, logger)
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

	router := newRouter(cfg, a, hub, logger)

	sup := suture.New("stagehub", suture.Spec{EventHook: logging.SutureHook(logger)})
	sup.Add(app.NewHTTPService(&http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}, cfg.Server.ShutdownTimeout))
	if cfg.Server.GRPCAddr != "" {
		sup.Add(&grpcserver.Service{
			Addr:   cfg.Server.GRPCAddr,
			Server: grpcserver.NewGRPCServer(grpcserver.NewServer(a.Service), logger),
		})
	}
	if cfg.Server.TCPAddr != "" {
		sup.Add(synchub.NewServer(cfg.Server.TCPAddr, hub))
	}
	sup.Add(sched)

	logger.Info().
		Str("http", cfg.Server.HTTPAddr).
		Str("grpc", cfg.Server.GRPCAddr).
		Str("tcp", cfg.Server.TCPAddr).
		Strs("sources", a.Sources.Names()).
		Strs("refresh_times", cfg.Refresh.Times).
		Str("timezone", cfg.Refresh.Timezone).
		Msg("stagehub starting")

	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("supervisor stopped")
	}
	logger.Info().Msg("servers stopped")
}

func newRouter(cfg *utils.Config, a *app.App, hub *synchub.Hub, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinMiddleware(logger))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		st := a.Service.Status()
		stats := hub.Stats()
		if !st.HasCache {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"reason":      "no snapshot published yet",
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"data_count":  st.DataCount,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"sources":     a.Service.Sources(),
			"taxonomy":    a.Taxonomy.Version(),
			"store":       cfg.Store.Backend,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", synchub.WSHandler(hub))

	var catalog performance.Catalog
	if a.KOPIS != nil {
		catalog = a.KOPIS
	}
	perf := performance.NewHandler(a.Service, catalog, a.Location)
	perf.RegisterRoutes(router.Group("/api"))

	tokens := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	admin := auth.Admin{Username: cfg.Auth.AdminUser, PasswordHash: cfg.Auth.AdminPasswordHash}
	if !admin.Enabled() {
		logger.Warn().Msg("admin password hash not set, admin login disabled")
	}
	auth.NewHandler(admin, tokens).RegisterRoutes(router.Group("/auth"))

	protected := router.Group("/admin")
	protected.Use(auth.AuthMiddleware(tokens))
	perf.RegisterAdminRoutes(protected)

	return router
}
