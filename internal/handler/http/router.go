package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Env            string
	AllowedOrigins []string
	LogLevel       slog.Level
}

func NewRouter(
	cfg RouterConfig,
	JWTService jwt.Service,
	users user.UserRepository,
	authHandler AuthHandler,
	attendanceHandler AttendanceHandler,
	correctionHandler CorrectionHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-control"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService, users))

			r.Post("/auth/logout", authHandler.Logout)

			r.With(middleware.RequirePermission(user.PermissionAttendanceView)).
				Get("/departments", attendanceHandler.Departments)

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceView))
					r.Get("/", attendanceHandler.List)
					r.Get("/incomplete", attendanceHandler.Incomplete)
					r.Get("/users/{userID}/days/{date}", attendanceHandler.GetDay)
				})

				r.With(middleware.RequirePermission(user.PermissionReportsExport)).
					Get("/export", attendanceHandler.Export)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceEdit))
					r.Put("/users/{userID}/days/{date}/marks", correctionHandler.SaveMarks)
					r.Post("/users/{userID}/days/{date}/autofix", correctionHandler.AutoFix)
					r.Post("/users/{userID}/days/{date}/resolve", correctionHandler.Resolve)

					r.Post("/marks", correctionHandler.AddMark)
					r.Delete("/marks", correctionHandler.DeleteMark)
					r.Patch("/marks", correctionHandler.ReassignMark)

					r.Post("/commands", correctionHandler.Command)
				})

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/clean-duplicates", correctionHandler.CleanDuplicates)
				})
			})
		})
	})
	return r
}
