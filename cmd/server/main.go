package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	apphttp "taskboard/internal/http"
	"taskboard/internal/repository"
	"taskboard/internal/repository/mongodb"
	"taskboard/internal/repository/sqlite"
	"taskboard/internal/service"
)

// store bundles the repositories of one backend with its lifecycle.
type store struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	health repository.Pinger
	close  func() error
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Database.URL, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Warnf("close store: %v", err)
		}
	}()

	if err := st.users.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := st.tasks.Init(ctx); err != nil {
		logger.Fatalf("init task repository: %v", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, auth.WithTTL(cfg.TokenTTL()))
	if err != nil {
		logger.Fatalf("token service: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Config{
		Users:          service.NewUserService(st.users),
		Tasks:          service.NewTaskService(st.tasks),
		Tokens:         tokens,
		Health:         st.health,
		Logger:         logger,
		Production:     cfg.Production(),
		AllowedOrigin:  cfg.Server.AllowedOrigin,
		TrustedProxies: cfg.Server.TrustedProxies,
		AuthRateLimit:  cfg.RateLimit.Requests,
		AuthRateWindow: cfg.RateWindow(),
	})
	if err := handler.RegisterRoutes(router); err != nil {
		logger.Fatalf("register routes: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (%s)", cfg.Server.Addr, cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func openStore(ctx context.Context, url string, logger *logrus.Logger) (*store, error) {
	if mongodb.IsURI(url) {
		client, db, err := mongodb.Open(ctx, url)
		if err != nil {
			return nil, err
		}
		logger.Infof("using mongodb database %s", db.Name())
		return &store{
			users:  mongodb.NewUserRepository(db),
			tasks:  mongodb.NewTaskRepository(db),
			health: mongodb.Health{Client: client},
			close: func() error {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return client.Disconnect(closeCtx)
			},
		}, nil
	}

	db, err := sqlite.Open(url)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	logger.Infof("using sqlite database %s", url)
	return &store{
		users:  sqlite.NewUserRepository(db),
		tasks:  sqlite.NewTaskRepository(db),
		health: sqlite.Health{DB: db},
		close:  db.Close,
	}, nil
}
