package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"todo-bulk-update/internal/api"
	"todo-bulk-update/internal/auth"
	"todo-bulk-update/internal/bulk"
	"todo-bulk-update/internal/constants"
	"todo-bulk-update/internal/domain"
	"todo-bulk-update/internal/infrastructure/kvstore"
	"todo-bulk-update/internal/infrastructure/redisstore"
	"todo-bulk-update/internal/infrastructure/repository"
	"todo-bulk-update/internal/todos"
	"todo-bulk-update/pkg/circuit"
	"todo-bulk-update/pkg/config"
	"todo-bulk-update/pkg/database"
	"todo-bulk-update/pkg/health"
	"todo-bulk-update/pkg/logging"
	"todo-bulk-update/pkg/metrics"
	"todo-bulk-update/pkg/monitoring"
)

// storage is what a STORE_DRIVER provides.
type storage struct {
	tm       domain.TransactionManager
	queries  domain.TodoQueries
	users    domain.UserRepository
	sessions domain.SessionRepository
	checker  health.HealthChecker
	close    func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewWithWriter(os.Stderr, logging.LogConfig{Level: logging.LevelInfo}).Fatal("load config", err)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	logCfg.Format = cfg.LogFormat
	if cfg.EnableFileLogging {
		logCfg.Output = "file"
		logCfg.FilePath = cfg.LogFile
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		logging.NewWithWriter(os.Stderr, logging.LogConfig{Level: logging.LevelInfo}).Fatal("init logger", err)
	}
	defer logger.Close()
	log := logger.WithComponent("main")

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", err)
	}
	log.Info("Starting todo-bulk-update", logging.Any("config", cfg.GetConfigSummary()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open storage", err, logging.String("driver", cfg.StoreDriver))
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Error("close storage", err)
		}
	}()

	reg := metrics.NewRegistry()
	circuitMetrics := circuit.NewMetrics(reg)

	healthMgr := health.NewManager(logger)
	healthMgr.Register(store.checker)

	if cfg.SessionDriver == config.SessionsRedis {
		rdb, err := redisstore.NewClient(ctx, redisstore.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Fatal("connect redis", err, logging.String("addr", cfg.RedisAddr))
		}
		defer rdb.Close()
		breaker := circuit.New(circuit.Config{
			Name:              "redis_sessions",
			OperationTimeout:  constants.RedisOperationTimeout,
			OpenFor:           constants.RedisBreakerOpenFor,
			MaxConsecFailures: constants.RedisBreakerFailures,
		}, circuitMetrics, logger)
		store.sessions = redisstore.NewSessionRepo(rdb).WithBreaker(breaker)
		healthMgr.Register(health.NewRedisChecker("redis", rdb))
	}

	var httpMetrics *metrics.HTTPMetrics
	if cfg.MetricsEnabled {
		httpMetrics = metrics.NewHTTPMetrics(reg)
	}

	authSvc := auth.NewAuthenticationService(store.users, store.sessions, auth.ServiceConfig{
		CookieName:   cfg.SessionCookieName,
		TTL:          cfg.SessionTTL,
		SecureCookie: cfg.Env == "production",
	}, logger)
	cases := todos.NewUseCases(store.queries, logger)

	router := api.NewRouter(api.Handlers{
		Auth:     authSvc,
		Accounts: auth.NewAccounts(store.users, authSvc, cfg.PasswordCost, logger),
		Todos:    todos.NewController(authSvc, store.tm, cases, logger),
		Bulk:     bulk.NewOrchestrator(authSvc, store.tm, cases, metrics.NewBatchMetrics(reg), logger),
	}, httpMetrics, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
		WriteTimeout:      constants.ServerWriteTimeout,
		IdleTimeout:       constants.ServerIdleTimeout,
	}

	adminMux := http.NewServeMux()
	healthMgr.RegisterHandlers(adminMux)
	if cfg.MetricsEnabled {
		adminMux.Handle(cfg.MetricsPath, metrics.Handler(reg))
	}
	profiling := cfg.Env == "development"
	monitoring.EnableProfiling(profiling)
	if profiling {
		monitoring.RegisterPprof(adminMux)
	}
	adminServer := &http.Server{
		Addr:              ":" + cfg.AdminPort,
		Handler:           adminMux,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
	}

	serve := func(name string, srv *http.Server) {
		log.Info("HTTP server starting", logging.String("server", name), logging.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", err, logging.String("server", name))
			stop()
		}
	}
	go serve("api", server)
	go serve("admin", adminServer)

	<-ctx.Done()
	log.Info("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeoutDefault)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Admin HTTP server shutdown error", err)
	}
	log.Info("Application shutdown complete")
}

func openStorage(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*storage, error) {
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StoreMySQL:
		db, err := database.NewWithConfig(cfg.DatabaseURL, cfg)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(openCtx); err != nil {
			_ = db.Close()
			return nil, err
		}
		repo := repository.NewSQLRepository(db)
		return &storage{
			tm:       repository.NewSQLTransactionManager(db, logger),
			queries:  repo,
			users:    repo,
			sessions: repo,
			checker:  health.NewSQLChecker("mysql", db.Conn()),
			close:    db.Close,
		}, nil

	default:
		var base kvstore.Base = kvstore.NewMemoryBase()
		if cfg.StoreDriver == config.StoreBolt {
			b, err := kvstore.NewBoltBase(cfg.BoltPath)
			if err != nil {
				return nil, err
			}
			base = b
		}
		s, err := kvstore.Open(openCtx, base, logger)
		if err != nil {
			_ = base.Close()
			return nil, err
		}
		return &storage{
			tm:       s,
			queries:  s,
			users:    s,
			sessions: s,
			checker:  health.NewFuncChecker(base.Name(), s.Ping),
			close:    s.Close,
		}, nil
	}
}
