// Package reviewservice собирает HTTP-приложение сервиса ревью.
package reviewservice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/review-service/internal/http/handlers/admin/analytics"
	"github.com/magabrotheeeer/review-service/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/review-service/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/review-service/internal/http/handlers/health"
	reviewcreate "github.com/magabrotheeeer/review-service/internal/http/handlers/review/create"
	sessionend "github.com/magabrotheeeer/review-service/internal/http/handlers/session/end"
	sessionstart "github.com/magabrotheeeer/review-service/internal/http/handlers/session/start"
	"github.com/magabrotheeeer/review-service/internal/http/handlers/session/warning"
	"github.com/magabrotheeeer/review-service/internal/http/handlers/subscription/filesize"
	"github.com/magabrotheeeer/review-service/internal/http/handlers/subscription/trial"
	"github.com/magabrotheeeer/review-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/review-service/internal/lib/metrics"
	adminservice "github.com/magabrotheeeer/review-service/internal/services/admin"
	authservice "github.com/magabrotheeeer/review-service/internal/services/auth"
	reviewsvc "github.com/magabrotheeeer/review-service/internal/services/review"
	sessionservice "github.com/magabrotheeeer/review-service/internal/services/session"
	subservice "github.com/magabrotheeeer/review-service/internal/services/subscription"
)

// Services: сервисы, которые обслуживают маршруты.
type Services struct {
	Auth         *authservice.AuthService
	Subscription *subservice.SubscriptionService
	Session      *sessionservice.SessionService
	Review       *reviewsvc.ReviewService
	Admin        *adminservice.AdminService
	Health       map[string]health.Checker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, limiter *middlewarectx.RateLimiter) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)
		r.Get("/health", health.New(logger, svc.Health).ServeHTTP)

		// Аноним получает нулевое предупреждение
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.OptionalJWTMiddleware(svc.Auth, logger))
			r.Get("/sessions/warning", warning.New(logger, svc.Session).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Get("/subscription/trial", trial.New(logger, svc.Subscription).ServeHTTP)
			r.Post("/subscription/file-size", filesize.New(logger, svc.Subscription).ServeHTTP)
			r.Get("/admin/analytics", analytics.New(logger, svc.Admin).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.SubscriptionStatusMiddleware(logger, svc.Subscription))
				r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))
				r.Post("/sessions", sessionstart.New(logger, svc.Session).ServeHTTP)
				r.Post("/sessions/end", sessionend.New(logger, svc.Session).ServeHTTP)
				r.Post("/reviews", reviewcreate.New(logger, svc.Review).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
