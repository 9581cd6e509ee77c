//go:build integration_test || all_tests

package integration_testing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/2beens/progressboard/internal"
	"github.com/2beens/progressboard/internal/config"
	"github.com/2beens/progressboard/internal/db"
	"github.com/2beens/progressboard/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	serverPort = 9000
	serverHost = "localhost"
	dbName     = "progressboard"

	adminUsername = "coach"
	adminPassword = "coach-pass"
	mcpSecret     = "integration-mcp-secret"
	testOrigin    = "http://localhost:8080"
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

type Suite struct {
	DB         *pgxpool.Pool
	dockerPool *dockertest.Pool
	server     *internal.Server
	teardown   []func()
}

func newSuite(ctx context.Context) *Suite {
	var err error
	suite := &Suite{
		teardown: make([]func(), 0),
	}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	suite.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not create new dockertest pool: %s", err)
	}
	suite.dockerPool.MaxWait = 2 * time.Minute

	if err = suite.dockerPool.Client.Ping(); err != nil {
		log.Fatalf("could not ping dockertest pool: %s", err)
	}

	redisPort, err := suite.redisSetup()
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to setup redis: %s", err)
	}

	pgPort, err := suite.postgresSetup(ctx)
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to setup postgres: %s", err)
	}

	adminPasswordHash, err := pkg.HashPassword(adminPassword)
	if err != nil {
		suite.cleanup()
		log.Fatalf("hash admin password: %s", err)
	}

	cfg := getTestConfig(redisPort, pgPort)
	suite.server, err = internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             "test-version-info",
			AdminUsername:           adminUsername,
			AdminPasswordHash:       adminPasswordHash,
			MCPSecret:               mcpSecret,
			HoneycombTracingEnabled: false,
		},
	)
	if err != nil {
		suite.cleanup()
		log.Fatalf("new server: %s", err)
	}

	suite.server.Serve(cfg.Host, cfg.Port)

	return suite
}

func (s *Suite) cleanup() {
	if s.server != nil {
		s.server.GracefulShutdown()
	}
	if s.DB != nil {
		s.DB.Close()
	}
	for _, teardown := range s.teardown {
		teardown()
	}
}

func getTestConfig(redisPort, postgresPort string) *config.Config {
	return &config.Config{
		Environment:                 "development",
		Host:                        serverHost,
		Port:                        serverPort,
		LogLevel:                    "debug",
		RedisHost:                   "localhost",
		RedisPort:                   redisPort,
		PostgresPort:                postgresPort,
		PostgresHost:                "localhost",
		PostgresDBName:              dbName,
		PrometheusMetricsHost:       "localhost",
		PrometheusMetricsPort:       "2199",
		LoginRateLimitAllowedPerMin: 100,
		AllowedOrigins:              []string{testOrigin},
		PatientsCacheSizeMB:         1,
		MessageTemplatesPath:        "../assets/message_templates.yaml",
		NoteAutosaveDelayMs:         100,
		SessionsCleanupSchedule:     "@every 1h",
	}
}

func (s *Suite) redisSetup() (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "progressboard-redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		redisResource.Close()
	})

	return redisResource.GetPort("6379/tcp"), nil
}

func (s *Suite) postgresSetup(ctx context.Context) (string, error) {
	pgResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_HOST_AUTH_METHOD=trust",
			"POSTGRES_DB=" + dbName,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run postgres: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		pgResource.Close()
	})

	pgPort := pgResource.GetPort("5432/tcp")
	if err := s.dockerPool.Retry(func() error {
		pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost: "localhost",
			DBPort: pgPort,
			DBName: dbName,
		})
		if err != nil {
			return err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return err
		}
		s.DB = pool
		return nil
	}); err != nil {
		return "", fmt.Errorf("connect to postgres: %w", err)
	}

	if err := db.Migrate(ctx, s.DB); err != nil {
		return "", fmt.Errorf("apply schema: %w", err)
	}
	log.Println("postgres schema applied")

	return pgPort, nil
}
