package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2beens/progressboard/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// rotation limits of the log file
const (
	logMaxSizeMB  = 50
	logMaxBackups = 60
	logMaxAgeDays = 365
)

var sentryLevels = []logrus.Level{
	logrus.PanicLevel,
	logrus.FatalLevel,
	logrus.ErrorLevel,
}

type LoggerSetupParams struct {
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the global logrus logger used by every binary.
func Setup(params LoggerSetupParams) {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))
	logrus.SetOutput(Output(params))

	if !params.SentryEnabled {
		return
	}
	if err := setupSentry(params); err != nil {
		logrus.Errorf("sentry setup: %s", err)
		return
	}
	logrus.Infof("sentry set up for env [%s]", params.Environment)
}

func setupSentry(params LoggerSetupParams) error {
	if params.SentryDSN == "" {
		return fmt.Errorf("sentry enabled, but DSN missing")
	}
	if err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		TracesSampleRate: 1.0,
		ServerName:       params.SentryServerName,
	}); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	logrus.AddHook(NewSentryHook(sentryLevels))
	return nil
}

// Output returns the writer logs should go to: stdout, a rotated log file, or both.
func Output(params LoggerSetupParams) io.Writer {
	if params.LogFileName == "" {
		return os.Stdout
	}

	fileName := params.LogFileName
	if filepath.Ext(fileName) != ".log" {
		fileName += ".log"
	}
	rotated := &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
	}

	if !params.LogToStdout {
		return rotated
	}
	return pkg.NewCombinedWriter(os.Stdout, rotated)
}

// GetLevel falls back to info for unknown level names.
func GetLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
