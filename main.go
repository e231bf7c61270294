// main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/broker"
	"github.com/OluwaPella/Stage-two-bankend/config"
	"github.com/OluwaPella/Stage-two-bankend/database"
	"github.com/OluwaPella/Stage-two-bankend/handlers"
	"github.com/OluwaPella/Stage-two-bankend/logging"
	"github.com/OluwaPella/Stage-two-bankend/render"
	"github.com/OluwaPella/Stage-two-bankend/scraper"
	"github.com/OluwaPella/Stage-two-bankend/services"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file (optional)")
	syncOnStart := flag.Bool("sync-on-start", false, "run one refresh in the background at startup")
	flag.Parse()

	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env vars")
	}

	if *configPath == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			*configPath = defaultConfigPath
		}
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *syncOnStart); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, syncOnStart bool) error {
	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	defer db.Close()

	countryStore := database.NewCountryStore(db)
	logStore := database.NewRefreshLogStore(db)

	renderer, err := render.Select(cfg.Render.Format, logger)
	if err != nil {
		return err
	}
	cache := render.NewFileCache(cfg.Cache.Dir)

	deps := services.RefreshDeps{
		Countries: scraper.NewCountriesClient(cfg.Upstream, logger),
		Rates:     scraper.NewRatesClient(cfg.Upstream, logger),
		Store:     countryStore,
		Logs:      logStore,
		Estimator: services.NewGdpEstimator(nil),
		Summary:   render.NewGenerator(countryStore, renderer, cache, logger),
	}

	if cfg.Redis.Addr != "" {
		rdb, err := broker.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		deps.Locker = broker.NewRedisLocker(rdb, cfg.Redis.LockKey, cfg.Redis.LockTTL)
		deps.Publisher = broker.NewRedisPublisher(rdb, cfg.Redis.EventsChannel, logger)
		logger.Info("redis enabled", zap.String("addr", cfg.Redis.Addr))
	}

	refresher := services.NewRefreshService(deps, logger)

	router := handlers.NewRouter(
		handlers.NewCountryHandler(countryStore, refresher, cache, logger),
		handlers.NewStatusHandler(countryStore, logStore, db, logger),
		logger,
	)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// a refresh waits on two upstreams with their own timeout
		WriteTimeout: cfg.Upstream.Timeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	if syncOnStart {
		go func() {
			res, err := refresher.Refresh(ctx)
			if err != nil {
				logger.Warn("startup refresh failed", zap.Error(err))
				return
			}
			logger.Info("startup refresh completed", zap.String("run_id", res.RunID))
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			zap.String("addr", srv.Addr),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("summary_format", string(renderer.Format())),
		)
		errCh <- srv.ListenAndServe()
	}()

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down gracefully", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
