package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/2beens/progressboard/internal"
	"github.com/2beens/progressboard/internal/config"
	"github.com/2beens/progressboard/internal/logging"
	"github.com/2beens/progressboard/pkg"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	envFile := flag.String("env-file", ".env", "optional file with env vars (secrets)")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Debugf("env file [%s] not loaded: %s", *envFile, err)
	}

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "progressboard-service",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	adminUsername := os.Getenv("PROGRESS_ADMIN_USERNAME")
	adminPasswordHash := os.Getenv("PROGRESS_ADMIN_PASSWORD_HASH")
	if adminUsername == "" || adminPasswordHash == "" {
		log.Fatalln("admin username and password not set. use PROGRESS_ADMIN_USERNAME and PROGRESS_ADMIN_PASSWORD_HASH")
	}

	redisPassword := os.Getenv("PROGRESS_REDIS_PASS")
	if redisPassword == "" {
		log.Errorf("redis password not set. use PROGRESS_REDIS_PASS")
	}

	mcpSecret := os.Getenv("PROGRESS_MCP_SECRET")
	if mcpSecret == "" {
		log.Warnln("mcp secret not set, /mcp will reject all requests. use PROGRESS_MCP_SECRET")
	}

	var gdriveCredentials []byte
	if credentialsFile := os.Getenv("PROGRESS_GDRIVE_CREDENTIALS_FILE"); credentialsFile != "" {
		gdriveCredentials, err = os.ReadFile(credentialsFile)
		if err != nil {
			log.Errorf("read google drive credentials [%s]: %s", credentialsFile, err)
		}
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             versionInfo,
			AdminUsername:           adminUsername,
			AdminPasswordHash:       adminPasswordHash,
			RedisPassword:           redisPassword,
			MCPSecret:               mcpSecret,
			HoneycombTracingEnabled: honeycombEnabled,
			GDriveCredentials:       gdriveCredentials,
			GDriveShareWith:         os.Getenv("PROGRESS_GDRIVE_SHARE_WITH"),
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, shutting down ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

// tryGetLastCommitHash assumes the binary runs from the project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(pkg.BytesToString(stdout)), nil
}
