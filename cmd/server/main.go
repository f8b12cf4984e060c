package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/cache"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/config"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/httpapi"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/logger"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/narrative"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/service"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/store"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/store/memory"
	pgstore "github.com/MGANDRAOS/checkout-cash-flow/internal/store/postgres"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/store/sqlite"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closers, err := openRepository(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("repository unavailable", zap.Error(err))
	}

	textCache, cacheCloser := openTextCache(ctx, cfg, zl)
	if cacheCloser != nil {
		closers = append(closers, cacheCloser)
	}
	narrator := narrative.NewService(buildSummarizer(cfg), textCache, cfg.NarrativeTTL, zl)

	intelligence, err := bizday.New(cfg.IntelligenceDayStartHour)
	if err != nil {
		zl.Fatal("intelligence calendar", zap.Error(err))
	}
	sales, err := bizday.New(cfg.SalesDayStartHour)
	if err != nil {
		zl.Fatal("sales calendar", zap.Error(err))
	}

	svc := service.New(repo, intelligence, sales, narrator, zl)
	api := httpapi.New(svc, zl, cfg.AllowedOrigins, cfg.RequestTimeout)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		zl.Info("analytics server listening",
			zap.String("addr", cfg.Address()),
			zap.Int("intelligence_day_start", intelligence.StartHour()),
			zap.Int("sales_day_start", sales.StartHour()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Warn("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			zl.Warn("close error", zap.Error(err))
		}
	}

	zl.Info("server stopped")
}

// openRepository picks postgres, then sqlite, then the seeded in-memory
// store. A configured database that cannot be reached is fatal.
func openRepository(ctx context.Context, cfg config.Config, zl *zap.Logger) (store.Repository, []func() error, error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		zl.Info("repository: postgres")
		return pg, []func() error{pg.Close}, nil

	case cfg.SQLitePath != "":
		lite, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		if cfg.SeedDemoData {
			if err := seedIfEmpty(ctx, lite, zl); err != nil {
				_ = lite.Close()
				return nil, nil, err
			}
		}
		zl.Info("repository: sqlite", zap.String("path", cfg.SQLitePath))
		return lite, []func() error{lite.Close}, nil

	default:
		zl.Info("repository: in-memory demo data", zap.Int("days", memory.DemoDays))
		return memory.NewSeeded(), nil, nil
	}
}

func seedIfEmpty(ctx context.Context, lite *sqlite.Store, zl *zap.Logger) error {
	_, ok, err := lite.LatestReceiptTime(ctx)
	if err != nil {
		return fmt.Errorf("sqlite probe: %w", err)
	}
	if ok {
		return nil
	}
	snapshot := memory.DemoSnapshot(time.Now(), memory.DemoDays)
	if err := lite.Import(ctx, snapshot); err != nil {
		return fmt.Errorf("sqlite seed: %w", err)
	}
	zl.Info("seeded demo data", zap.Int("receipts", len(snapshot.Receipts)), zap.Int("lines", len(snapshot.Lines)))
	return nil
}

// openTextCache prefers redis and falls back to a process-local cache when
// redis is not configured or does not answer.
func openTextCache(ctx context.Context, cfg config.Config, zl *zap.Logger) (cache.TextCache, func() error) {
	if cfg.RedisAddr == "" {
		zl.Info("narrative cache: memory")
		return cache.NewMemoryTextCache(), nil
	}
	redisCache := cache.NewRedisTextCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisCache.Ping(ctx); err != nil {
		zl.Warn("redis unavailable, using memory cache", zap.Error(err))
		_ = redisCache.Close()
		return cache.NewMemoryTextCache(), nil
	}
	zl.Info("narrative cache: redis", zap.String("addr", cfg.RedisAddr))
	return redisCache, redisCache.Close
}

func buildSummarizer(cfg config.Config) narrative.Summarizer {
	if cfg.OpenAIAPIKey == "" {
		return narrative.StaticSummarizer{}
	}
	return narrative.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.OpenAITimeout)
}
