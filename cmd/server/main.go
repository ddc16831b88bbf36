package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tourkit/modules/identity"
	"github.com/dmitrymomot/tourkit/pkg/async"
	"github.com/dmitrymomot/tourkit/pkg/config"
	"github.com/dmitrymomot/tourkit/pkg/cookie"
	"github.com/dmitrymomot/tourkit/pkg/email"
	"github.com/dmitrymomot/tourkit/pkg/httpserver"
	"github.com/dmitrymomot/tourkit/pkg/jwt"
	"github.com/dmitrymomot/tourkit/pkg/logger"
	"github.com/dmitrymomot/tourkit/pkg/password"
	"github.com/dmitrymomot/tourkit/pkg/pg"
	"github.com/dmitrymomot/tourkit/pkg/ratelimiter"
	"github.com/dmitrymomot/tourkit/pkg/redis"
)

type appConfig struct {
	AppName     string `env:"APP_NAME" envDefault:"tourkit"`
	Environment string `env:"APP_ENV" envDefault:"development"`

	Logger   logger.Config
	Server   httpserver.Config
	Postgres pg.Config
	Redis    redis.Config
	Email    email.Config
	Identity identity.Config

	// Per-client budget on the credential endpoints: login and
	// forgot-password share it, everything else is unmetered.
	AuthRateLimit       int           `env:"AUTH_RATE_LIMIT" envDefault:"10"`
	AuthRateLimitWindow time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"1m"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Logger, logger.WithService(cfg.AppName))

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.Postgres, log.With(logger.Component("migrations"))); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close redis client", logger.Error(err))
		}
	}()

	sender, err := buildSender(cfg, log)
	if err != nil {
		return err
	}

	hasher, err := password.New(password.DefaultParams())
	if err != nil {
		return err
	}

	tokens, err := jwt.New([]byte(cfg.Identity.SigningKey), cfg.Identity.TokenTTL)
	if err != nil {
		return err
	}

	notifier := identity.NewEmailNotifier(sender, cfg.AppName, cfg.Email.SupportEmail)

	svc := identity.NewService(
		identity.NewPostgresStorage(pool),
		hasher,
		tokens,
		notifier,
		identity.WithLogger(log.With(logger.Component("identity"))),
		identity.WithResetTokenTTL(cfg.Identity.ResetTokenTTL),
		identity.WithNotifyTimeout(cfg.Identity.NotifyTimeout),
		identity.WithHashPool(async.NewPool(cfg.Identity.HashPoolSize)),
	)

	cookies := cookie.New(cookie.WithSecure(cfg.Identity.CookieSecure))
	handler := identity.NewHandler(svc, cookies, cfg.Identity, log.With(logger.Component("http")))
	guard := identity.NewGuard(svc, cookies, cfg.Identity.CookieName, handler.RenderError)

	authLimit, err := authRateLimiter(cfg, redisClient)
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
	)
	router.Get("/health", httpserver.HealthCheckHandler(log,
		pool.Ping,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	))
	router.Mount("/api/v1/users", handler.Routes(guard,
		ratelimiter.Middleware(authLimit, ratelimiter.KeyByIP)))

	return httpserver.New(cfg.Server, log).Run(ctx, router)
}

// buildSender picks the provider-backed sender when Postmark credentials are
// configured and the log-only dev sender otherwise.
func buildSender(cfg appConfig, log *slog.Logger) (email.Sender, error) {
	if cfg.Email.PostmarkServerToken != "" {
		return email.NewPostmarkSender(cfg.Email)
	}
	if cfg.Environment != "development" {
		log.Warn("postmark is not configured, outbound email is log-only")
	}
	return email.NewDevSender(log.With(logger.Component("email"))), nil
}

func authRateLimiter(cfg appConfig, client *goredis.Client) (*ratelimiter.Bucket, error) {
	return ratelimiter.NewBucket(
		ratelimiter.NewRedisStore(client, "auth"),
		ratelimiter.Config{
			Capacity:       cfg.AuthRateLimit,
			RefillRate:     cfg.AuthRateLimit,
			RefillInterval: cfg.AuthRateLimitWindow,
		},
	)
}
