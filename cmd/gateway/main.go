package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/bulletinboard/board-gateway/internal/config"
	"github.com/bulletinboard/board-gateway/internal/db"
	"github.com/bulletinboard/board-gateway/internal/gateway"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/bulletinboard/board-gateway/internal/sessions"
	"github.com/bulletinboard/board-gateway/internal/tokenrefresher"
	"github.com/bulletinboard/board-gateway/internal/views"
	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

func main() {
	// Logging setup
	slog.SetDefault(jsonLogger)
	// Load configuration, Config() also validates it
	ch := config.NewConfigHandler()
	gwConfig, err := ch.Config()
	if err != nil {
		slog.Error("loading the configuration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("loaded config", "config", gwConfig)
	// Set log level to "debug" if activated
	if gwConfig.DebugMode {
		logLevel.Set(slog.LevelDebug)
	}
	// Only the log level is applied without a restart
	ch.HandleChanges(func(newConfig config.Config, err error) {
		if err != nil {
			slog.Error("the changed configuration is invalid and was ignored", "error", err)
			return
		}
		if newConfig.DebugMode {
			logLevel.Set(slog.LevelDebug)
		} else {
			logLevel.Set(slog.LevelInfo)
		}
		slog.Info("configuration reloaded", "debugMode", newConfig.DebugMode)
	})
	ch.Watch()
	// Setup
	e := echo.New()
	e.HTTPErrorHandler = gateway.HTTPErrorHandler
	e.Pre(
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: gateway.RequestIDGenerator(models.ULIDGenerator{})}),
		middleware.RemoveTrailingSlash(),
	)
	e.Use(middleware.Recover())
	// The banner and the port do not respect the logger formatting we set below so we remove them
	// the port will be logged further down when the server starts.
	e.HideBanner = true
	e.HidePort = true
	// Setup template renderer
	tr, err := views.NewTemplateRenderer()
	if err != nil {
		slog.Error("Template renderer initialization failed", "error", err)
		os.Exit(1)
	}
	tr.Register(e)
	// Rate limiting
	if gwConfig.Server.RateLimits.Enabled {
		e.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(gwConfig.Server.RateLimits.Rate),
					Burst:     gwConfig.Server.RateLimits.Burst,
					ExpiresIn: 3 * time.Minute,
				}),
		),
		)
	}
	// CORS
	if len(gwConfig.Server.AllowOrigin) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     gwConfig.Server.AllowOrigin,
			AllowCredentials: true,
		}))
	}
	// Sentry
	if gwConfig.Monitoring.Sentry.Enabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              string(gwConfig.Monitoring.Sentry.Dsn),
			TracesSampleRate: gwConfig.Monitoring.Sentry.SampleRate,
			Environment:      gwConfig.Monitoring.Sentry.Environment,
		})
		if err != nil {
			slog.Error("sentry initialization failed", "error", err)
		}
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}
	// Prometheus
	if gwConfig.Monitoring.Prometheus.Enabled {
		e.Use(echoprometheus.NewMiddleware("board_gateway"))
		go func() {
			metrics := echo.New()
			metrics.HideBanner = true
			metrics.HidePort = true
			metrics.GET("/metrics", echoprometheus.NewHandler())
			err := metrics.Start(fmt.Sprintf(":%d", gwConfig.Monitoring.Prometheus.Port))
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("prometheus server failed to start", "error", err)
				os.Exit(1)
			}
		}()
	}
	// Initialize the credential store
	dbOptions := []db.RedisAdapterOption{
		db.WithRedisConfig(gwConfig.Redis),
		db.WithCredentialTTL(gwConfig.Sessions.MaxTTL()),
	}
	if gwConfig.Login.TokenEncryption.Enabled {
		slog.Info("redis encryption is enabled")
		dbOptions = append(dbOptions, db.WithEncryption(string(gwConfig.Login.TokenEncryption.SecretKey)))
	}
	dbAdapter, err := db.NewRedisAdapter(dbOptions...)
	if err != nil {
		slog.Error("DB adapter initialization failed", "error", err)
		os.Exit(1)
	}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := dbAdapter.Ping(pingCtx); err != nil {
		slog.Error("the credential store is not reachable yet", "error", err)
	}
	cancelPing()
	// Refresh metrics
	refreshMetrics, err := tokenrefresher.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		slog.Error("refresh metrics initialization failed", "error", err)
		os.Exit(1)
	}
	// Browser sessions
	registry, err := sessions.NewRegistry(
		sessions.WithCredentialRepository(dbAdapter),
		sessions.WithMetrics(refreshMetrics),
		sessions.WithAPIConfig(gwConfig.API),
		sessions.WithLoginConfig(gwConfig.Login),
		sessions.WithSessionConfig(gwConfig.Sessions),
	)
	if err != nil {
		slog.Error("failed to initialize sessions", "error", err)
		os.Exit(1)
	}
	if err := registry.StartSweeping(); err != nil {
		slog.Error("failed to schedule the session sweep", "error", err)
		os.Exit(1)
	}
	// Version
	buildInfo, ok := debug.ReadBuildInfo()
	version := ""
	if ok && buildInfo != nil {
		version = buildInfo.Main.Version
	}
	// Gateway routes
	server, err := gateway.NewServer(
		gateway.WithRegistry(registry),
		gateway.WithHealthChecker(dbAdapter),
		gateway.WithVersion(version),
		gateway.WithLandingURL(gwConfig.Login.LandingURL),
		gateway.WithReportConcurrency(gwConfig.API.ReportConcurrency),
	)
	if err != nil {
		slog.Error("gateway handlers initialization failed", "error", err)
		os.Exit(1)
	}
	server.RegisterHandlers(e, requestLogger, gateway.RequestIDToContext)
	// Start server
	address := fmt.Sprintf("%s:%d", gwConfig.Server.Host, gwConfig.Server.Port)
	slog.Info("starting the server on address " + address)
	go func() {
		err := e.Start(address)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("the server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()
	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("received signal to shut down the server")
	registry.StopSweeping()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		slog.Error("shutting down the server gracefully failed", "error", err)
		os.Exit(1)
	}
	sentry.Flush(2 * time.Second)
}
