package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diamond-hands/internal/config"
	"diamond-hands/internal/db"
	"diamond-hands/internal/ledger"
	"diamond-hands/internal/server"

	"go.uber.org/zap"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("ledger store unavailable", zap.Error(err))
	}
	client := ledger.NewClient(store, ledger.WithLogger(logger.Named("ledger")))

	srv := server.New(client, cfg, logger)
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("diamond-hands server listening",
		zap.String("addr", cfg.Addr()),
		zap.String("ledger", cfg.LedgerBackend),
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
	srv.Close()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openStore(cfg config.Config, logger *zap.Logger) (ledger.Store, error) {
	if cfg.LedgerBackend != config.LedgerPostgres {
		return ledger.NewMemoryStore(), nil
	}
	conn, err := db.Open(cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
		ConnMaxIdleTime: cfg.ConnMaxIdleTime(),
	})
	if err != nil {
		return nil, err
	}
	if cfg.IsDev() {
		if err := db.Migrate(conn, logger); err != nil {
			return nil, err
		}
	}
	return ledger.NewPostgresStore(conn), nil
}
