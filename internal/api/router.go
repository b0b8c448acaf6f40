package api

import (
	"context"
	"net/http"
	"time"

	"skillwise/internal/api/handler"
	"skillwise/internal/api/middleware"
	"skillwise/internal/app/service"
	"skillwise/internal/common"
	"skillwise/internal/common/security"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/config"
	"skillwise/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Store       repository.Store
	Log         *logger.Logger
	AuthLimiter *middleware.RateLimiter

	AuthService       *service.AuthService
	UserService       *service.UserService
	GoalService       *service.GoalService
	ChallengeService  *service.ChallengeService
	CompletionService *service.CompletionService
	SubmissionService *service.SubmissionService
	ProgressService   *service.ProgressService
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.Monitor)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AppConfig.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Puts the verified access token, if any, in the request context.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.Store.Ping(ctx); err != nil {
			deps.Log.Warn("health check failed", "error", err)
			common.RespondWithError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		common.RespondWithData(w, http.StatusOK, "OK", nil)
	})
	r.With(middleware.BasicAuth("metrics", config.AppConfig.MetricsUser, config.AppConfig.MetricsPassword)).
		Handle("/metrics", promhttp.Handler())

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(deps.AuthService)
		v1.Route("/auth", func(auth chi.Router) {
			auth.Group(func(public chi.Router) {
				if deps.AuthLimiter != nil {
					public.Use(deps.AuthLimiter.Middleware)
				}
				authHandler.RegisterRoutes(public)
			})
			auth.Group(func(protected chi.Router) {
				protected.Use(middleware.Authenticator)
				authHandler.RegisterProtectedRoutes(protected)
			})
		})

		v1.Group(func(protected chi.Router) {
			protected.Use(middleware.Authenticator)

			protected.Route("/users", handler.NewUserHandler(deps.UserService).RegisterRoutes)
			protected.Route("/goals", handler.NewGoalHandler(deps.GoalService).RegisterRoutes)

			submissionHandler := handler.NewSubmissionHandler(deps.SubmissionService)
			challengeHandler := handler.NewChallengeHandler(deps.ChallengeService, deps.CompletionService, submissionHandler)
			protected.Route("/challenges", challengeHandler.RegisterRoutes)

			protected.Route("/progress", handler.NewProgressHandler(deps.ProgressService).RegisterRoutes)
		})
	})

	return r
}
