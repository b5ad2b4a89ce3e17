package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"signal-backend/internal/config"
	httpdelivery "signal-backend/internal/delivery/http"
	"signal-backend/internal/delivery/websocket"
	"signal-backend/internal/domain"
	"signal-backend/internal/infrastructure/db"
	"signal-backend/internal/repository"
)

func runOnce(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, c.String("env-file"))
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.pipeline.Run(ctx)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return encErr
		}
	}
	return err
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, c.String("env-file"))
	if err != nil {
		return err
	}
	defer a.Close()

	reports := httpdelivery.NewReportHandler(a.prices, a.signals, a.trades, a.notifications, a.log)
	stream := websocket.NewHandler(a.signals, websocket.DefaultPollInterval, a.log)
	router := httpdelivery.NewRouter(reports, map[string]http.Handler{"/ws": stream}, a.cfg.HTTPRateLimit, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.pipeline.RunEvery(gctx, a.cfg.RunInterval)
	})
	g.Go(func() error {
		a.log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	a.log.Info("shutdown complete")
	return err
}

func migrate(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}
	if cfg.StorageDriver != config.StoragePostgres {
		return fmt.Errorf("migrate requires STORAGE_DRIVER=postgres")
	}

	pool, err := db.NewPool(c.Context, cfg.DatabaseURL, db.PoolConfigFromEnv())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(c.Context, pool); err != nil {
		return err
	}
	fmt.Println("schema up to date")
	return nil
}

func setCredentials(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}
	if cfg.StorageDriver != config.StoragePostgres || len(cfg.EncryptionKey) < 16 {
		return fmt.Errorf("credentials set requires STORAGE_DRIVER=postgres and CREDENTIALS_ENCRYPTION_KEY")
	}

	mode := domain.TradingMode(c.String("mode"))
	if !mode.Valid() {
		return fmt.Errorf("invalid --mode %q: want testnet or production", mode)
	}

	pool, err := db.NewPool(c.Context, cfg.DatabaseURL, db.PoolConfigFromEnv())
	if err != nil {
		return err
	}
	defer pool.Close()

	store := repository.NewPostgresCredentialRepository(pool, cfg.EncryptionKey)
	creds := &domain.Credentials{
		Mode:      mode,
		APIKey:    c.String("api-key"),
		APISecret: c.String("api-secret"),
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.Save(c.Context, creds); err != nil {
		return err
	}
	fmt.Printf("stored %s credentials\n", mode)
	return nil
}
