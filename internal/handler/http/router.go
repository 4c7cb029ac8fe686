package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/campus-attendance-go/internal/config"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/campus-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(cfg *config.Config, JWTService jwt.Service, attendanceHandler AttendanceHandler, analyticsHandler AnalyticsHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
		Level:       cfg.SlogLevel(),
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// SSE streams authenticate with a short-lived token in the query string
		r.Get("/analytics/at-risk/stream", analyticsHandler.StreamAtRisk)
		r.Get("/me/attendance/stream", analyticsHandler.StreamMine)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Get("/stream-token", analyticsHandler.GetStreamToken)

			r.With(middleware.RequirePermission(user.PermissionAnalyticsCompute)).
				Post("/analytics/compute", analyticsHandler.Compute)

			r.With(middleware.RequirePermission(user.PermissionAnalyticsAtRisk)).
				Get("/analytics/at-risk", analyticsHandler.AtRisk)

			r.Get("/me/attendance/dashboard", attendanceHandler.GetMyDashboard)

			r.Route("/students/{studentID}/attendance", func(r chi.Router) {
				r.Use(middleware.RequireStudentScope("studentID"))

				r.Get("/dashboard", attendanceHandler.GetDashboard)
				r.Get("/summary", attendanceHandler.GetSummary)
				r.Get("/projection", attendanceHandler.GetProjection)
				r.Get("/subjects", attendanceHandler.GetSubjects)
				r.Get("/trend/monthly", attendanceHandler.GetMonthlyTrend)
				r.Get("/trend/daily", attendanceHandler.GetDailyTrend)
				r.Get("/calendar", attendanceHandler.GetCalendar)
				r.Get("/records", attendanceHandler.ListRecords)

				// Staff only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireStaff)
					r.Use(middleware.RequirePermission(user.PermissionAttendanceManage))
					r.Post("/records", attendanceHandler.CreateRecord)
					r.Delete("/records/{recordID}", attendanceHandler.DeleteRecord)
				})
			})
		})
	})
	return r
}
