package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"survey-builder/internal/app"
	"survey-builder/internal/config"
	"survey-builder/internal/generation"
	"survey-builder/internal/generator"
	"survey-builder/internal/infra/memory"
	pgstore "survey-builder/internal/infra/postgres"
	redisstore "survey-builder/internal/infra/redis"
	"survey-builder/internal/infra/sqlite"
	"survey-builder/internal/storage"
	transport "survey-builder/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the survey builder server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := resolvePort(portFlag, cfg.Server.Port)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	cacheTTL := config.TTLDuration(cfg.Cache.TTL, 24*time.Hour)
	var (
		cache     app.SurveyCache
		responses app.ResponseRepository
	)
	switch {
	case pool != nil:
		cache = pgstore.NewSurveyCache(pool)
		responses = pgstore.NewResponseRepository(pool)
	case cfg.SQLite.Path != "":
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		cache, responses = db, db
	default:
		responses = memory.NewResponseStore()
		if redisClient != nil {
			cache = redisstore.NewSurveyCache(redisClient, cacheTTL)
		} else {
			cache = memory.NewSurveyCache(cacheTTL)
		}
	}

	primary, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	surveys := app.NewSurveyService(cache, responses, primary,
		app.WithFallback(generator.NewMock()),
		app.WithSurveyLogger(logger.Named("surveys")),
	)

	var kv storage.Backend = memory.NewKV()
	if redisClient != nil {
		kv = redisstore.NewKV(redisClient, "builder:", 0)
	}
	apiBase := cfg.Client.APIBase
	if apiBase == "" {
		apiBase = "http://localhost:" + finalPort
	}
	clientOpts := []generation.Option{
		generation.WithLogger(logger.Named("generation")),
		generation.WithTimeout(config.TTLDuration(cfg.Client.Timeout, 30*time.Second)),
	}
	if len(cfg.Client.Prefixes) > 0 {
		clientOpts = append(clientOpts, generation.WithPrefixes(cfg.Client.Prefixes...))
	}
	factory := app.NewSessionFactory(app.SessionDeps{
		Storage: storage.New(kv, storage.WithLogger(logger.Named("storage"))),
		Client:  app.BindClient(generation.NewClient(apiBase, clientOpts...)),
		Logger:  logger.Named("builder"),
	})

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, redisTTL, factory)
	} else {
		sessions = memory.NewSessionStore(factory)
	}

	gin.SetMode(gin.ReleaseMode)
	router := transport.NewRouter(transport.RouterConfig{
		API:         transport.NewAPIHandler(surveys, logger.Named("api")),
		Builder:     transport.NewWSHandler(app.NewBuilderService(sessions), logger.Named("ws")),
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger.Named("http"),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("starting survey builder", zap.String("port", finalPort), zap.String("generator", cfg.Generator.Provider))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newGenerator(ctx context.Context, cfg config.Config) (app.SurveyGenerator, error) {
	switch cfg.Generator.Provider {
	case "", "mock":
		return generator.NewMock(), nil
	case "genai":
		timeout := config.TTLDuration(cfg.Generator.Timeout, generator.DefaultTimeout)
		return generator.NewGenAI(ctx, cfg.Generator.APIKey, cfg.Generator.Model, timeout, logger.Named("genai"))
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
	}
}
