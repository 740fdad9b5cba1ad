package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/rbac_auth/internal/config"
	"github.com/Skotchmaster/rbac_auth/internal/db"
	"github.com/Skotchmaster/rbac_auth/internal/events"
	"github.com/Skotchmaster/rbac_auth/internal/httpserver"
	"github.com/Skotchmaster/rbac_auth/internal/logging"
	loggingmw "github.com/Skotchmaster/rbac_auth/internal/middleware/logging"
	"github.com/Skotchmaster/rbac_auth/internal/repo"
	"github.com/Skotchmaster/rbac_auth/internal/service"
	"github.com/Skotchmaster/rbac_auth/internal/tokens"
)

func main() {
	config.LoadDotEnv(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = producer
		logger.Info("audit events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	store := &repo.GormRepo{DB: gdb}
	issuer := tokens.NewIssuer(cfg.SecretKey, cfg.AccessTTL)
	svc := &service.AuthService{Repo: store, Tokens: issuer, Events: publisher}

	bootCtx, bootCancel := context.WithTimeout(logging.IntoContext(context.Background(), logger), 10*time.Second)
	if _, err := svc.Bootstrap(bootCtx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		bootCancel()
		log.Fatalf("bootstrap admin: %v", err)
	}
	bootCancel()

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:  &httpserver.AuthHTTP{Svc: svc},
		AdminHandler: &httpserver.AdminHTTP{Svc: svc},
		Tokens:       issuer,
		DB:           store,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("auth listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka producer close", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close", "error", err)
	}

	logger.Info("auth stopped")
}
