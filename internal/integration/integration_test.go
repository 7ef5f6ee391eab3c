package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"survey-builder/internal/app"
	"survey-builder/internal/domain"
	"survey-builder/internal/generator"
	pgstore "survey-builder/internal/infra/postgres"
	pgmigrations "survey-builder/internal/infra/postgres/migrations"
	infraredis "survey-builder/internal/infra/redis"
	"survey-builder/internal/storage"
)

func TestGenerateAndRespondEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	gen := &countingGenerator{SurveyGenerator: generator.NewMock()}
	responses := pgstore.NewResponseRepository(pool)
	service := app.NewSurveyService(pgstore.NewSurveyCache(pool), responses, gen)

	req := domain.GenerateRequest{Description: "Onboarding experience", NumQuestions: 4}
	survey, err := service.Generate(ctx, req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if survey.ID != "srv_onboarding_experience" || len(survey.Questions) != 4 {
		t.Fatalf("unexpected survey %s with %d questions", survey.ID, len(survey.Questions))
	}

	req.Description = "  ONBOARDING   experience "
	if _, err := service.Generate(ctx, req); err != nil {
		t.Fatalf("generate cached: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected cache hit from postgres, generator calls=%d", gen.calls)
	}

	id, err := service.SaveResponse(ctx, survey.ID, map[string]any{"q1": "c2", "q5": []string{"c1", "c3"}})
	if err != nil {
		t.Fatalf("save response: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive response id, got %d", id)
	}
	count, err := responses.CountResponses(ctx, survey.ID)
	if err != nil || count != 1 {
		t.Fatalf("expected one stored response, got %d (%v)", count, err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	kv := infraredis.NewKV(redisClient, "builder:", time.Hour)
	adapter := storage.New(kv)
	if !adapter.Namespace("drafts").Namespace("d1").Save(ctx, storage.KeyCurrentBrief, "onboarding") {
		t.Fatalf("expected brief to persist in redis")
	}
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute, app.NewSessionFactory(app.SessionDeps{Storage: adapter}))
	session := sessions.Acquire(ctx, "d1")
	defer sessions.Release("d1")
	if got := session.Brief(ctx); got != "onboarding" {
		t.Fatalf("expected brief restored from redis, got %q", got)
	}
}

type countingGenerator struct {
	app.SurveyGenerator
	calls int
}

func (g *countingGenerator) GenerateSurvey(ctx context.Context, description string, n int, language string) (domain.SurveyContent, error) {
	g.calls++
	return g.SurveyGenerator.GenerateSurvey(ctx, description, n, language)
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "survey", "POSTGRES_PASSWORD": "surveypass", "POSTGRES_DB": "surveydb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://survey:surveypass@%s:%s/surveydb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
