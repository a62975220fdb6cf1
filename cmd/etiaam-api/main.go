// Command etiaam-api runs the ETIAAM HTTP API and its database migrations.
//
//	@title						ETIAAM API
//	@version					1.0
//	@description				Health-research backend: consented registration, profiles, evaluations and work plans.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/etiaam/etiaam-api/internal/api"
	"github.com/etiaam/etiaam-api/internal/core/ports"
	"github.com/etiaam/etiaam-api/internal/core/service"
	"github.com/etiaam/etiaam-api/internal/infrastructure/cache"
	"github.com/etiaam/etiaam-api/internal/infrastructure/config"
	"github.com/etiaam/etiaam-api/internal/infrastructure/db/postgres"
	redisstore "github.com/etiaam/etiaam-api/internal/infrastructure/db/redis"
	"github.com/etiaam/etiaam-api/internal/infrastructure/http/handlers"
	"github.com/etiaam/etiaam-api/internal/infrastructure/security"
	"github.com/etiaam/etiaam-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "etiaam-api",
		Short:         "ETIAAM health-research API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	for _, sub := range []struct{ use, short string }{
		{"up", "Apply pending migrations"},
		{"down", "Roll back the last migration"},
		{"status", "Show migration status"},
	} {
		command := sub.use
		cmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.Context(), command)
			},
		})
	}
	return cmd
}

func loadConfig(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "etiaam-api",
	})
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, log, nil
}

func runMigrate(ctx context.Context, command string) error {
	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, command); err != nil {
		return err
	}
	log.Info().Str("command", command).Msg("migrations finished")
	return nil
}

func runServer(ctx context.Context) error {
	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.UsingDevSecret() {
		log.Warn().Msg("JWT_SECRET not set, signing tokens with the development secret")
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().Int32("max_conns", cfg.Postgres.MaxConns).Msg("connected to postgres")

	checks := map[string]handlers.Check{"postgres": pool.Ping}
	idempotency, closeStore := newIdempotencyStore(ctx, cfg, log, checks)
	defer closeStore()

	deps := wire(cfg, log, pool, idempotency)
	deps.ReadinessChecks = checks
	if deps.TrustedProxies, err = cfg.TrustedProxyNets(); err != nil {
		return err
	}
	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// newIdempotencyStore prefers Redis and falls back to an in-process cache
// when REDIS_ADDR is empty or unreachable.
func newIdempotencyStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, checks map[string]handlers.Check) (ports.IdempotencyStore, func()) {
	fallback := func() (ports.IdempotencyStore, func()) {
		return cache.NewIdempotencyStore(cfg.Idempotency.TTL, 10*time.Minute), func() {}
	}
	if cfg.Redis.Addr == "" {
		log.Info().Msg("REDIS_ADDR not set, idempotency keys kept in memory")
		return fallback()
	}

	client, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, idempotency keys kept in memory")
		return fallback()
	}
	checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	return redisstore.NewIdempotencyStore(client), func() { _ = client.Close() }
}

func wire(cfg *config.Config, log zerolog.Logger, pool *pgxpool.Pool, idempotency ports.IdempotencyStore) api.Deps {
	users := postgres.NewUserRepository(pool)
	consents := postgres.NewConsentRepository(pool)
	profiles := postgres.NewProfileRepository(pool)
	evaluations := postgres.NewEvaluationRepository(pool, log.With().Str("component", "evaluations").Logger())
	competencies := postgres.NewCompetencyRepository(pool, log.With().Str("component", "competencies").Logger())
	plans := postgres.NewPlanRepository(pool)
	tx := postgres.NewTransactor(pool)

	jwt := security.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	hasher := security.NewArgon2Hasher(security.DefaultArgon2Params)

	return api.Deps{
		Logger:        log,
		Tokens:        jwt,
		Auth:          service.NewAuthService(users, consents, tx, hasher, jwt, log.With().Str("component", "auth").Logger()),
		Profiles:      service.NewProfileService(users, profiles, evaluations, plans, log.With().Str("component", "profiles").Logger()),
		Evaluations:   service.NewEvaluationService(users, evaluations, competencies, idempotency, cfg.Idempotency.TTL, log.With().Str("component", "evaluations").Logger()),
		Plans:         service.NewPlanService(users, plans, tx, idempotency, cfg.Idempotency.TTL, log.With().Str("component", "plans").Logger()),
		CORSOrigins:   cfg.CORSOrigins,
		AuthRateRPS:   cfg.RateLimit.RPS,
		AuthRateBurst: cfg.RateLimit.Burst,
	}
}
