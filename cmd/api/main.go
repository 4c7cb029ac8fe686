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

	"github.com/cmlabs-hris/campus-attendance-go/internal/config"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/campus-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/campus-attendance-go/internal/repository/cache"
	"github.com/cmlabs-hris/campus-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/campus-attendance-go/internal/service/attendance"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).
		With(slog.String("app", cfg.App.Name), slog.String("env", cfg.App.Env)))

	ctx := context.Background()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var reportCache attendance.ReportCache
	if addr := cfg.RedisAddr(); addr != "" {
		redisClient, err := database.NewRedisClient(ctx, database.RedisOptions{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Error("Error connecting to redis", "addr", addr, "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		reportCache = cache.NewReportCache(redisClient, cfg.Redis.TTL)
	} else {
		slog.Info("REDIS_HOST not set, dashboard caching disabled")
		reportCache = cache.NewNoopReportCache()
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	studentRepo := postgresql.NewStudentRepository(db)

	svc := attendanceService.NewAttendanceService(
		postgresql.NewTransactor(db),
		attendanceRepo,
		studentRepo,
		reportCache,
		attendanceService.Options{
			Threshold:   cfg.Analytics.DefaultThreshold,
			StrictDates: cfg.Analytics.StrictDates,
		},
	)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()

	scheduler := cron.NewScheduler()
	if cfg.Analytics.ScanEnabled {
		cron.NewAtRiskJobs(svc, hub, cfg.Analytics.ScanInterval).RegisterJobs(scheduler)
		slog.Info("Background jobs enabled", "jobs", scheduler.JobNames())
		scheduler.Start()
		defer scheduler.Stop()
	}

	attendanceHandler := appHTTP.NewAttendanceHandler(svc)
	analyticsHandler := appHTTP.NewAnalyticsHandler(svc, JWTService, hub, cfg.Analytics.DefaultThreshold)

	router := appHTTP.NewRouter(cfg, JWTService, attendanceHandler, analyticsHandler)

	// No write timeout: SSE connections stay open.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}
