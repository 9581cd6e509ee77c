// Package main bulk imports weekly records from a CSV or XLSX file.
// Rows for the same patient and week override what is stored.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/2beens/progressboard/internal/config"
	"github.com/2beens/progressboard/internal/db"
	"github.com/2beens/progressboard/internal/logging"
	"github.com/2beens/progressboard/internal/records"
	"github.com/2beens/progressboard/pkg"

	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	file := flag.String("file", "", "records file (.csv or .xlsx)")
	flag.Parse()

	if *file == "" {
		log.Fatalln("records file not specified, use -file")
	}
	if exists, err := pkg.PathExists(*file, false); err != nil || !exists {
		log.Fatalf("records file [%s] not usable: exists=%t, err=%v", *file, exists, err)
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}
	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

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

	importer := records.NewImporter(records.NewRepo(dbPool), nil)
	result, err := importer.ImportFile(ctx, *file)
	if err != nil {
		log.Errorf("import [%s]: %s", *file, err)
	}

	fmt.Printf("imported: %d, failed: %d\n", result.Imported, result.Failed)
}
