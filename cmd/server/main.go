package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/internal/events"
	"taskboard/internal/handlers"
	"taskboard/internal/logging"
	"taskboard/internal/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	logger := logging.New(cfg.Log)
	defer logger.Sync()
	ctx := logging.WithContext(context.Background(), logger)

	dbConn, err := sqlx.Open("pgx", cfg.DB.URL)
	if err != nil {
		logger.Fatal("failed to open db", zap.Error(err))
	}
	dbConn.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.DB.ConnLifetime)
	if err := dbConn.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping db", zap.Error(err))
	}
	if err := db.RunMigrations(ctx, dbConn); err != nil {
		logger.Fatal("failed migrations", zap.Error(err))
	}

	var publisher events.Publisher = events.Nop{}
	var broker handlers.BrokerStatus
	if cfg.MQ.URL != "" {
		p, err := events.NewAMQPPublisher(cfg.MQ.URL)
		if err != nil {
			logger.Warn("event publishing disabled", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
			broker = p
		}
	}

	st := store.New(dbConn)
	router := handlers.NewRouter(handlers.Deps{
		Logger:      logger,
		Users:       st,
		Projects:    st,
		Snapshots:   st,
		Tokens:      auth.NewIssuer([]byte(cfg.JWT.Secret), cfg.JWT.TTL),
		Events:      publisher,
		Broker:      broker,
		Clock:       handlers.Clock{Now: time.Now, Loc: cfg.Location()},
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("server starting", zap.String("addr", addr), zap.String("time_zone", cfg.TimeZone))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = dbConn.Close()
	logger.Info("server stopped")
}
