package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/sphere-relay/backend/internal/config"
	"github.com/zhouzirui/sphere-relay/backend/internal/handler"
	"github.com/zhouzirui/sphere-relay/backend/internal/logging"
	"github.com/zhouzirui/sphere-relay/backend/internal/service/messages"
	"github.com/zhouzirui/sphere-relay/backend/internal/service/relay"
	"github.com/zhouzirui/sphere-relay/backend/internal/storage/snapshot"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up logging")
	}
	defer logCloser.Close()

	persister, err := snapshot.Open(ctx, cfg.Snapshot)
	if err != nil {
		logrus.WithError(err).WithField("backend", cfg.Snapshot.Backend).Fatal("failed to open snapshot backend")
	}
	defer func() {
		if err := persister.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close snapshot backend")
		}
	}()

	store := messages.NewStore(persister)
	store.Load(ctx)

	hub := relay.NewHub(store)
	if cfg.Relay.SweepInterval > 0 {
		go hub.RunJanitor(ctx, cfg.Relay.SweepInterval)
		logrus.WithField("interval", cfg.Relay.SweepInterval).Info("expiry janitor enabled")
	}

	router := handler.NewRouter(cfg.Server, hub)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logrus.WithField("addr", addr).Info("sphere relay listening")
	if err := runServer(ctx, srv); err != nil {
		logrus.WithError(err).Error("server error")
		return
	}
	logrus.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
