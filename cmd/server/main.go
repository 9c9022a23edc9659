package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"employee-portal/internal/api"
	"employee-portal/internal/config"
	"employee-portal/internal/handlers"
	"employee-portal/internal/logging"
	"employee-portal/internal/middleware"
	"employee-portal/internal/tracing"
	"employee-portal/pkg/websocket"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logging.NewLogger(logging.ParseLevel("error"), "text").Error("config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Initialize OpenTelemetry tracing
	shutdownTracing, err := tracing.InitTracer(context.Background(), tracing.Config{
		ServiceName: tracing.ServiceName,
		Environment: cfg.AppEnv,
		PrettyPrint: !cfg.IsProduction(),
		Logger:      logger,
	})
	if err != nil {
		logger.Error("tracing init", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	hubRef := websocket.NewHubRef(websocket.NewHub(logger))
	go func() {
		for {
			panicked := false
			currentHub, ok := hubRef.Get()
			if !ok || currentHub == nil {
				time.Sleep(1 * time.Second)
				hubRef.Set(websocket.NewHub(logger))
				continue
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						panicked = true
						logger.Error("hub.Run panic", "panic", r, "stack", string(debug.Stack()))
					}
				}()
				currentHub.Run()
			}()

			// Only restart on panic; a normal return means Stop was called.
			if !panicked {
				return
			}
			// Clients still holding the dead hub must not block on it.
			currentHub.Stop()
			hubRef.Set(websocket.NewHub(logger))
			time.Sleep(1 * time.Second)
		}
	}()

	handlers.SetLogger(logger)
	handlers.SetWebSocketOriginPolicy(!cfg.IsProduction(), cfg.WSAllowedOrigins)
	handlers.SetHubProvider(hubRef.Get)

	backend := api.New(cfg.BackendURL, cfg.BackendTimeout, api.WithLogger(logger))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(middleware.RequestID(), middleware.RequestLogger(logger))
	r.Use(middleware.DevCORS(cfg))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	pages := r.Group("")
	pages.Use(middleware.Session(cfg, logger), middleware.Guard(cfg.Routes))
	handlers.RegisterAuthRoutes(pages, backend, cfg)
	handlers.RegisterEmployeeRoutes(pages, backend, cfg)
	handlers.RegisterCustomerRoutes(pages, backend, cfg)
	handlers.RegisterSessionEventRoutes(pages, cfg)

	// cfg.Addr is fully resolved by config.LoadFromEnv() (BACKEND_ADDR or PORT).
	addr := cfg.Addr

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "backend", cfg.BackendURL, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	if h, ok := hubRef.Get(); ok && h != nil {
		h.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}
