package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"parking-iot-backend/cmd/parkingd/options"
	"parking-iot-backend/internal/api"
	"parking-iot-backend/internal/db"
	"parking-iot-backend/internal/logger"
	"parking-iot-backend/internal/notification"
	"parking-iot-backend/internal/progress"
	"parking-iot-backend/internal/simulator"
	"parking-iot-backend/internal/store"
)

const shutdownTimeout = 5 * time.Second

var serveExamples = `  parkingd serve
  CONFIG_PATH=/etc/parkingd/config.yaml parkingd serve`

func GetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "run the live feed and the HTTP API",
		Long:    "Runs the live event feed, accepts historical runs and serves the dashboard API until interrupted.",
		Example: serveExamples,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx)
		},
	}
}

func run(ctx context.Context) error {
	cfg := options.Env.Config
	log := logger.BgLogger()

	reg, tm, err := options.Domain(cfg)
	if err != nil {
		return err
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	appStore := store.NewGormStore(gormDB)
	if err := appStore.UpsertFacilities(ctx, reg.Facilities()); err != nil {
		return fmt.Errorf("store facilities: %w", err)
	}

	var (
		webpushOptions *webpush.Options
		pool           *notification.WorkerPool
		notifier       simulator.Notifier
	)
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		notifier = pool
	} else {
		log.Warn("VAPID keys are not configured, push notifications are disabled")
	}

	live := simulator.NewService(cfg, reg, tm, appStore)
	historical := simulator.NewBackfill(cfg, reg, tm, appStore,
		progress.NewFileStore(cfg.Historical.CheckpointPath), notifier)

	g, gctx := errgroup.WithContext(ctx)

	handler := api.NewHandler(api.Deps{
		Store:      appStore,
		WebPush:    webpushOptions,
		Registry:   reg,
		Traffic:    tm,
		Live:       live,
		Historical: historical,
		RunContext: gctx,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(&cfg.Server, handler),
	}

	if pool != nil {
		pool.Start(gctx)
	}
	g.Go(func() error {
		live.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server ListenAndServe: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, stopping services")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server gracefully stopped")
	return nil
}
