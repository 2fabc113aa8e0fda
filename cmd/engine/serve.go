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
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/habitloop/stats-engine/internal/adapters/gateway"
	adapterHTTP "github.com/habitloop/stats-engine/internal/adapters/handler/http"
	"github.com/habitloop/stats-engine/internal/adapters/identity"
	"github.com/habitloop/stats-engine/internal/adapters/mirror"
	"github.com/habitloop/stats-engine/internal/adapters/repository"
	"github.com/habitloop/stats-engine/internal/config"
	"github.com/habitloop/stats-engine/internal/core/domain"
	"github.com/habitloop/stats-engine/internal/core/services"
	"github.com/habitloop/stats-engine/internal/core/workers"
	"github.com/habitloop/stats-engine/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the engine and its HTTP bridge",
	Long:  `Open the local store, start the sync loop, and serve the bridge API.`,
	RunE:  runServe,
}

var (
	configPath string
	bridgeAddr string
)

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (YAML)")
	serveCmd.Flags().StringVar(&bridgeAddr, "addr", "", "Bridge listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if bridgeAddr != "" {
		cfg.Bridge.Addr = bridgeAddr
	}

	log := logger.New(cfg.Env)
	defer log.Sync()

	log.Info("starting stats engine",
		zap.String("env", cfg.Env),
		zap.String("gateway", cfg.Gateway.BaseURL),
		zap.String("store", cfg.Store.Path))

	var store domain.LocalStore = repository.NewBoltStore(cfg.Store.Path)
	if cfg.Store.Cache {
		cached, err := repository.NewCachedStore(store, log)
		if err != nil {
			return fmt.Errorf("build cached store: %w", err)
		}
		store = cached
	}

	gw := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.SessionToken, cfg.Gateway.Timeout, log)
	ident := identity.NewTokenIdentity(cfg.Gateway.SessionToken)

	if user, err := ident.CurrentUserID(); err == nil {
		log.Info("session identity resolved", zap.String("user", user))
	} else {
		log.Warn("no usable session identity", zap.Error(err))
	}

	// The platform cache is always mirrored through the gateway; Redis
	// is an optional second mirror for same-host consumers.
	mirrors := []domain.SnapshotMirror{gw}

	var rdb *redis.Client
	if cfg.Redis.Mirror {
		rdb, err = mirror.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis unavailable, snapshot mirroring disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
			mirrors = append(mirrors, mirror.NewRedisMirror(rdb, log))
		}
	}

	recon := services.NewReconciler(store, gw, ident, mirrors, log)
	if scope, err := domain.ParseScope(cfg.Sync.DefaultScope); err == nil {
		recon.SetScope(scope)
	}
	ctrl := services.NewController(recon, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ctrl.Initialize(ctx); err != nil {
		// Offline starts are normal; the connectivity worker keeps
		// retrying until the platform answers.
		log.Warn("initial sync failed", zap.Error(err))
	}

	worker := workers.NewConnectivityWorker(gw, ctrl, cfg.Sync.ProbeInterval, log)
	worker.Start(ctx)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		StateHandler: adapterHTTP.NewStateHandler(ctrl, log),
		Store:        store,
		Gateway:      gw,
		Redis:        rdb,
		BridgeToken:  cfg.Bridge.Token,
		RateLimit:    cfg.Bridge.RateLimit,
		RateWindow:   cfg.Bridge.RateWindow,
		StartTime:    startTime,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:        cfg.Bridge.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// No write timeout: the state stream stays open indefinitely.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("bridge listening", zap.String("addr", cfg.Bridge.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("bridge server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("stop signal received, shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	if err := ctrl.Close(); err != nil {
		log.Error("closing engine", zap.Error(err))
	}

	log.Info("engine stopped")
	return nil
}
