// Package main runs a single weekly records backup to Google Drive.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/2beens/progressboard/internal/config"
	"github.com/2beens/progressboard/internal/db"
	"github.com/2beens/progressboard/internal/logging"
	"github.com/2beens/progressboard/internal/records"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	credentialsFile := flag.String("gd-creds", "", "google drive service account credentials json (default: PROGRESS_GDRIVE_CREDENTIALS_FILE)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}
	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

	if *credentialsFile == "" {
		*credentialsFile = os.Getenv("PROGRESS_GDRIVE_CREDENTIALS_FILE")
	}
	if *credentialsFile == "" {
		log.Fatalln("google drive credentials json not specified")
	}
	credentials, err := os.ReadFile(*credentialsFile)
	if err != nil {
		log.Fatalf("unable to read credentials file: %s", err)
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

	store, err := records.NewGoogleDriveStore(ctx, credentials, cfg.BackupFolderName, os.Getenv("PROGRESS_GDRIVE_SHARE_WITH"))
	if err != nil {
		log.Fatalf("google drive store: %s", err)
	}

	saved, err := records.NewBackupService(records.NewRepo(dbPool), store, nil).DoBackup(ctx, time.Now())
	if err != nil {
		log.Fatalf("backup: %s", err)
	}
	log.Printf("backup done: %d records saved", saved)
}
