package reviewservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/review-service/internal/cache"
	"github.com/magabrotheeeer/review-service/internal/config"
	"github.com/magabrotheeeer/review-service/internal/http/handlers/health"
	"github.com/magabrotheeeer/review-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/review-service/internal/lib/gemini"
	"github.com/magabrotheeeer/review-service/internal/lib/jwt"
	"github.com/magabrotheeeer/review-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	"github.com/magabrotheeeer/review-service/internal/migrations"
	adminservice "github.com/magabrotheeeer/review-service/internal/services/admin"
	analysisservice "github.com/magabrotheeeer/review-service/internal/services/analysis"
	analyticsservice "github.com/magabrotheeeer/review-service/internal/services/analytics"
	authservice "github.com/magabrotheeeer/review-service/internal/services/auth"
	reviewsvc "github.com/magabrotheeeer/review-service/internal/services/review"
	sessionservice "github.com/magabrotheeeer/review-service/internal/services/session"
	subservice "github.com/magabrotheeeer/review-service/internal/services/subscription"
	"github.com/magabrotheeeer/review-service/internal/storage"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New поднимает зависимости и собирает HTTP-сервер. RabbitMQ необязателен:
// без RABBITMQ_URL события сессий только пишутся в журнал.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.reviewservice.New"

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = storage.CheckDatabaseReady(ctx, db); err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var publisher sessionservice.EventPublisher
	if cfg.RabbitMQURL != "" {
		a.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.ReviewQueues())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = rabbitmq.NewPublisher(a.ch)
	} else {
		logger.Warn("rabbitmq url is empty, session events are not published")
	}

	var analyzer reviewsvc.Analyzer
	if cfg.Analysis.APIKey != "" {
		generator, err := gemini.New(ctx, cfg.Analysis.APIKey, cfg.Analysis.Model, cfg.Analysis.MaxOutputTokens)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		analysis, err := analysisservice.NewAnalysisService(logger, generator, a.cache, cfg.Analysis.CacheTTL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		analyzer = analysis
	} else {
		logger.Warn("analysis api key is empty, code review is unavailable")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	analytics := analyticsservice.NewAnalyticsService(db, cfg.ReviewPolicy)
	subscriptions := subservice.NewSubscriptionService(logger, db, nil)
	sessions := sessionservice.NewSessionService(logger, db, analytics, publisher, cfg.ReviewPolicy.CoolingPeriodHours, nil)

	services := Services{
		Auth:         authservice.NewAuthService(db, jwtMaker, cfg.Trial.Period),
		Subscription: subscriptions,
		Session:      sessions,
		Review:       reviewsvc.NewReviewService(logger, db, analytics, analyzer, nil),
		Admin:        adminservice.NewAdminService(analytics, nil),
		Health: map[string]health.Checker{
			"postgres": db,
			"redis":    a.cache,
		},
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services, middlewarectx.NewRateLimiter(cfg.RateLimit, cfg.RateBurst))

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
