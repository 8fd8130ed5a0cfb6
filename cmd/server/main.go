// cmd/server/main.go

// 本服務提供帳戶、存提款、轉帳、貸款與定存的 RESTful API。
// 此檔案負責讀取設定、選擇快照後端、初始化 bank 與 server，
// 並啟動 HTTP 伺服器；收到 SIGINT/SIGTERM 時優雅關閉並補寫最後一次快照。

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ledgerbank/internal/bank"
	"ledgerbank/internal/config"
	"ledgerbank/internal/idgen"
	"ledgerbank/internal/server"
	"ledgerbank/internal/storage"
)

func main() {
	// .env 為選用；不存在時直接使用環境變數
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open ledger backend", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer closeBackend()

	b := bank.NewBank(
		bank.WithBackend(backend),
		bank.WithIDGenerator(idgen.New(idgen.WithMaxAttempts(cfg.IDMaxAttempts))),
		bank.WithLogger(logger),
	)
	b.Load(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.NewServer(b, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("bank server listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	// 前一次寫入若失敗，關閉前再補寫一次
	if err := b.Persist(shutdownCtx); err != nil {
		logger.Error("final snapshot write failed", zap.Error(err))
	}
}

// openBackend 依設定建立快照後端，並回傳對應的關閉函式。
func openBackend(ctx context.Context, cfg *config.Config) (storage.Backend, func(), error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.BackendPostgres:
		s, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return storage.NewJSONFile(cfg.DataFile), func() {}, nil
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if lvl == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
