package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/app"
	"github.com/cmlabs-hris/attendance-control/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-control/internal/handler/http"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/jwt"
	serviceAuth "github.com/cmlabs-hris/attendance-control/internal/service/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	services := app.NewServices(cfg, stores)
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	authService := serviceAuth.NewAuthService(stores.Users, JWTService)

	authHandler := appHTTP.NewAuthHandler(authService)
	attendanceHandler := appHTTP.NewAttendanceHandler(services.Attendance)
	correctionHandler := appHTTP.NewCorrectionHandler(services.Corrections)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
			LogLevel:       cfg.SlogLevel(),
		},
		JWTService,
		stores.Users,
		authHandler,
		attendanceHandler,
		correctionHandler,
	)

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler(ctx)
		cron.NewAttendanceJobs(services.Corrections, cron.CleanupConfig{
			LookbackDays:     cfg.Cron.LookbackDays,
			AtHour:           cfg.Cron.CleanupHour,
			Workers:          cfg.Attendance.CleanupWorkers,
			IncludeAlternate: stores.Registry.HasAlternate(),
		}).RegisterJobs(scheduler)
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
