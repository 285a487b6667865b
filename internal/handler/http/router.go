package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/vatsinhr/settlement-backend-go/internal/config"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/auth"
	"github.com/vatsinhr/settlement-backend-go/internal/handler/http/middleware"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/jwt"
)

func NewRouter(
	cfg *config.Config,
	jwtService jwt.Service,
	authHandler AuthHandler,
	employeeHandler EmployeeHandler,
	settlementHandler SettlementHandler,
	notificationHandler NotificationHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "settlement-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.CORSOrigin},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  parseLogLevel(cfg.App.LogLevel),
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
		})

		r.Route("/notifications", func(r chi.Router) {
			// SSE: EventSource cannot set an Authorization header, so the
			// stream endpoint authenticates itself with a short-lived token.
			r.Get("/stream", notificationHandler.Stream)

			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
				r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

				r.Get("/", notificationHandler.List)
				r.Get("/stream-token", notificationHandler.GetStreamToken)
				r.Put("/{id}/read", notificationHandler.MarkRead)
			})
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", employeeHandler.List)
				r.Get("/{id}", employeeHandler.Get)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(auth.RoleAdmin))
					r.Post("/", employeeHandler.Create)
					r.Post("/{id}/archive", employeeHandler.Archive)
				})
			})

			r.Route("/settlement", func(r chi.Router) {
				r.Get("/distributions", settlementHandler.ListDistributions)

				r.Route("/cycles", func(r chi.Router) {
					// Opening a cycle is admin only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireRole(auth.RoleAdmin))
						r.Post("/", settlementHandler.OpenCycle)
					})

					r.Route("/{cycleId}", func(r chi.Router) {
						r.Get("/status", settlementHandler.GetCycleStatus)
						r.Get("/payslips", settlementHandler.ListPayslips)
						r.Get("/audit", settlementHandler.ListAudit)

						// Verification and disbursement commands
						r.Group(func(r chi.Router) {
							r.Use(middleware.RequireRole(auth.RoleAdmin, auth.RoleAuditor))
							r.Post("/verify", settlementHandler.VerifyBatch)
							r.Post("/payslips/{employeeId}/verify", settlementHandler.VerifyOne)
							r.Post("/disburse", settlementHandler.Disburse)
						})
					})
				})
			})
		})
	})
	return r
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
