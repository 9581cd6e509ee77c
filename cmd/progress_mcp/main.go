// Package main runs the progress MCP server over stdio, for local AI clients.
// The same tools are mounted on the main service at /mcp.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/2beens/progressboard/internal/config"
	"github.com/2beens/progressboard/internal/db"
	"github.com/2beens/progressboard/internal/logging"
	"github.com/2beens/progressboard/internal/mcp"
	"github.com/2beens/progressboard/internal/messages"
	"github.com/2beens/progressboard/internal/patients"
	"github.com/2beens/progressboard/internal/records"

	"github.com/joho/godotenv"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	// stdout belongs to the MCP transport
	logging.Setup(logging.LoggerSetupParams{
		LogFileName: cfg.LogsPath,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})
	if cfg.LogsPath == "" {
		log.SetOutput(os.Stderr)
	}

	ctx := context.Background()
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: cfg.PostgresHost,
		DBPort: cfg.PostgresPort,
		DBName: cfg.PostgresDBName,
	})
	if err != nil {
		log.Fatalf("db pool: %s", err)
	}
	defer dbPool.Close()

	recordsRepo := records.NewRepo(dbPool)
	analyzer := records.NewAnalyzer(recordsRepo, nil)
	variables := messages.NewService(patients.NewRepo(dbPool), analyzer)

	server := mcp.NewServer(dbPool, recordsRepo, analyzer, variables)
	if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		log.Fatal(err)
	}
}
