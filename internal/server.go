package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/progressboard/internal/auth"
	"github.com/2beens/progressboard/internal/config"
	"github.com/2beens/progressboard/internal/db"
	"github.com/2beens/progressboard/internal/mcp"
	"github.com/2beens/progressboard/internal/messages"
	"github.com/2beens/progressboard/internal/middleware"
	"github.com/2beens/progressboard/internal/misc"
	"github.com/2beens/progressboard/internal/patients"
	"github.com/2beens/progressboard/internal/records"
	"github.com/2beens/progressboard/internal/scheduler"
	"github.com/2beens/progressboard/internal/telemetry/metrics"
	"github.com/2beens/progressboard/internal/telemetry/tracing"
)

// request bodies are small JSON documents, imports go through the CLI
const maxRequestBodyBytes = 1 << 20

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string
	mcpSecret         string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	loginChecker *auth.LoginChecker
	authService  *auth.Service

	patientsRepo    *patients.CachedRepo
	recordsRepo     *records.Repo
	analyzer        *records.Analyzer
	notesRepo       *messages.NotesRepo
	messagesService *messages.Service
	catalog         *messages.Catalog
	drafts          *messages.Drafts
	scheduler       *scheduler.Scheduler

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
	RedisPassword           string
	MCPSecret               string
	HoneycombTracingEnabled bool
	// backups are skipped when no drive credentials are given
	GDriveCredentials []byte
	GDriveShareWith   string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	} else if err := db.Migrate(ctx, dbPool); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("progressboard", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0,
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "progressboard-service", rdb)
	if err != nil {
		return nil, err
	}

	catalog, err := messages.LoadCatalog(cfg.MessageTemplatesPath)
	if err != nil {
		return nil, fmt.Errorf("load message templates: %w", err)
	}

	authService := auth.NewAuthService(&auth.Admin{
		Username:     params.AdminUsername,
		PasswordHash: params.AdminPasswordHash,
	}, auth.DefaultTTL, rdb)

	recordsRepo := records.NewRepo(dbPool)
	patientsRepo := patients.NewCachedRepo(patients.NewRepo(dbPool), cfg.PatientsCacheSizeMB)
	analyzer := records.NewAnalyzer(recordsRepo, metricsManager)
	notesRepo := messages.NewNotesRepo(dbPool)

	s := &Server{
		config:      cfg,
		dbPool:      dbPool,
		redisClient: rdb,
		versionInfo: params.VersionInfo,
		mcpSecret:   params.MCPSecret,

		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		patientsRepo:    patientsRepo,
		recordsRepo:     recordsRepo,
		analyzer:        analyzer,
		notesRepo:       notesRepo,
		messagesService: messages.NewService(patientsRepo, analyzer),
		catalog:         catalog,
		drafts:          messages.NewDrafts(ctx, notesRepo, cfg.NoteAutosaveDelay(), metricsManager),
		scheduler:       scheduler.New(ctx),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	if err := s.scheduleJobs(ctx, params); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) scheduleJobs(ctx context.Context, params NewServerParams) error {
	if err := s.scheduler.AddSessionsCleanup(s.config.SessionsCleanupSchedule, s.authService); err != nil {
		return err
	}

	if !s.config.BackupEnabled {
		log.Debugln("records backup disabled")
		return nil
	}
	if len(params.GDriveCredentials) == 0 {
		log.Errorf("records backup enabled, but google drive credentials are missing")
		return nil
	}

	store, err := records.NewGoogleDriveStore(ctx, params.GDriveCredentials, s.config.BackupFolderName, params.GDriveShareWith)
	if err != nil {
		return fmt.Errorf("google drive backup store: %w", err)
	}
	backupService := records.NewBackupService(s.recordsRepo, store, s.metricsManager)
	return s.scheduler.AddRecordsBackup(s.config.BackupSchedule, backupService)
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	misc.NewHandler(s.versionInfo).SetupRoutes(r)

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	auth.SetupRoutes(
		r,
		auth.NewHandler(s.authService),
		reqRateLimiter,
		s.config.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	)

	patientsHandler := patients.NewHandler(s.patientsRepo)
	r.HandleFunc("/patients", patientsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-patients")
	r.HandleFunc("/patients", patientsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-patient")
	r.HandleFunc("/patients", patientsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-patient")
	r.HandleFunc("/patients/{id}", patientsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-patient")
	r.HandleFunc("/patients/{id}", patientsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-patient")

	recordsHandler := records.NewHandler(s.recordsRepo, s.metricsManager)
	r.HandleFunc("/patients/{pid}/records", recordsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-records")
	r.HandleFunc("/patients/{pid}/records", recordsHandler.HandleUpsert).Methods("PUT", "OPTIONS").Name("upsert-record")
	r.HandleFunc("/patients/{pid}/records/{week}", recordsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-record")
	r.HandleFunc("/patients/{pid}/records/{week}", recordsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-record")
	r.HandleFunc("/patients/{pid}/metrics/{week}", recordsHandler.HandleWeekMetrics).Methods("GET", "OPTIONS").Name("week-metrics")
	r.HandleFunc("/patients/{pid}/chart", recordsHandler.HandleChart).Methods("GET", "OPTIONS").Name("chart")

	messagesHandler := messages.NewHandler(s.messagesService, s.notesRepo, s.catalog, s.drafts)
	r.HandleFunc("/note-templates", messagesHandler.HandleListTemplates).Methods("GET", "OPTIONS").Name("note-templates")
	r.HandleFunc("/patients/{pid}/weeks/{week}/note/variables", messagesHandler.HandleVariables).Methods("GET", "OPTIONS").Name("note-variables")
	r.HandleFunc("/patients/{pid}/weeks/{week}/note/render", messagesHandler.HandleRender).Methods("GET", "OPTIONS").Name("note-render")
	r.HandleFunc("/patients/{pid}/weeks/{week}/note", messagesHandler.HandleGetNote).Methods("GET", "OPTIONS").Name("get-note")
	r.HandleFunc("/patients/{pid}/weeks/{week}/note", messagesHandler.HandleSave).Methods("PUT", "OPTIONS").Name("save-note")
	r.HandleFunc("/patients/{pid}/weeks/{week}/note/draft", messagesHandler.HandleDraft).Methods("PUT", "OPTIONS").Name("note-draft")
	r.HandleFunc("/patients/{pid}/weeks/{week}/note/status", messagesHandler.HandleStatus).Methods("GET", "OPTIONS").Name("note-status")

	mcpServer := mcp.NewServer(s.dbPool, s.recordsRepo, s.analyzer, s.messagesService)
	mcpHandler := mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return mcpServer
	}, nil)
	r.PathPrefix("/mcp").Handler(otelhttp.NewHandler(mcpHandler, "mcp")).Name("mcp")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.mcpSecret, s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.LimitAndDrainRequest(maxRequestBodyBytes))

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", metrics.Handler(s.promRegistry))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.scheduler.Start()
	s.metricsManager.GaugeLifeSignal.Set(1)
}

// GracefulShutdown stops accepting requests first, then writes pending note
// drafts while the db pool is still open.
func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if err := s.scheduler.Stop(ctx); err != nil {
		log.Errorf("scheduler stop: %s", err)
	}

	if err := s.drafts.Close(ctx); err != nil {
		log.Errorf("failed to save pending note drafts: %s", err)
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close()
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
