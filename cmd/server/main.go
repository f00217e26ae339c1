package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/adveralabs/adpilot/internal/allocator"
	"github.com/adveralabs/adpilot/internal/api"
	"github.com/adveralabs/adpilot/internal/config"
	"github.com/adveralabs/adpilot/internal/googleads"
	"github.com/adveralabs/adpilot/internal/meta"
	"github.com/adveralabs/adpilot/internal/optimizer"
	"github.com/adveralabs/adpilot/internal/oracle"
	"github.com/adveralabs/adpilot/internal/pkg/acctlock"
	"github.com/adveralabs/adpilot/internal/pkg/logger"
	"github.com/adveralabs/adpilot/internal/platform"
	"github.com/adveralabs/adpilot/internal/repository/postgres"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("failed to load config", "error", err.Error())
		os.Exit(1)
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		logger.Error("pre-flight check failed", "error", err.Error())
		os.Exit(1)
	}

	// Platform adapters, gated by configuration.
	var adapters []platform.Adapter
	if cfg.Meta.Enabled {
		adapters = append(adapters, meta.NewAdapter(cfg.Meta))
		logger.Info("social platform adapter enabled", "base_url", cfg.Meta.BaseURL)
	}
	if cfg.GoogleAds.Enabled {
		adapters = append(adapters, googleads.NewAdapter(cfg.GoogleAds))
		logger.Info("search platform adapter enabled", "base_url", cfg.GoogleAds.BaseURL)
	}
	if len(adapters) == 0 {
		logger.Warn("no platform adapters enabled, only stateless endpoints will be useful")
	}

	// Per-account cycle locks: Redis when configured, in-process otherwise.
	var locks acctlock.Registry
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis unreachable", "addr", cfg.Redis.Addr, "error", err.Error())
			os.Exit(1)
		}
		locks = acctlock.NewRedis(redisClient, cfg.Optimizer.LockTTL())
		logger.Info("redis account locks enabled", "addr", cfg.Redis.Addr)
	} else {
		locks = acctlock.NewLocal()
	}

	engine := optimizer.New(allocator.New(), locks, adapters...)

	llm, err := oracle.FromConfig(cfg.LLM)
	if err != nil {
		logger.Error("failed to initialize llm oracle", "error", err.Error())
		os.Exit(1)
	}
	if llm != nil {
		engine.UseOracle(llm)
		logger.Info("intelligent allocation enabled", "provider", cfg.LLM.Provider)
	}

	handlers := api.NewHandlers(engine)

	// Optional cycle-report history.
	if cfg.Database.Enabled && cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("failed to open database", "error", err.Error())
			os.Exit(1)
		}
		if err := db.PingContext(context.Background()); err != nil {
			logger.Error("database unreachable", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			logger.Error("failed to apply database schema", "error", err.Error())
			os.Exit(1)
		}

		reports := postgres.NewReportRepo(db)
		engine.UseStore(reports)
		handlers.WithReports(reports)
		logger.Info("cycle report history enabled")
	}

	server := api.NewServer(cfg, handlers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		logger.Info("starting server", "addr", addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", "error", err.Error())
	}
	logger.Info("server stopped")
}
