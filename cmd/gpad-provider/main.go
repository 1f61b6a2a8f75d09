package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gpad/internal/auth"
	"gpad/internal/config"
	"gpad/internal/logging"
	"gpad/internal/provider"
	"gpad/internal/rpc"
	"gpad/internal/storage/fs"
	"gpad/internal/store"
	"gpad/internal/syncer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	closeLog, err := logging.Setup(os.Stdout, logging.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, File: cfg.LogFile})
	if err != nil {
		slog.Warn("log file disabled", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		slog.Error("provider stopped", "err", err)
	}
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

// run serves the provider until ctx is done or the listener fails. Every
// resource it opens is released before it returns.
func run(ctx context.Context, cfg config.Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	lock, err := fs.AcquireFileLock(cfg.LockPath(), time.Second)
	if err != nil {
		return fmt.Errorf("another provider is running: %w", err)
	}
	defer lock.Release()

	st, err := store.OpenWithOptions(cfg.DatabasePath(), store.OpenOptions{
		BusyTimeout: cfg.DBBusyTimeout,
		LockTimeout: cfg.DBLockTimeout,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = st.Init(initCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	tokens, err := auth.NewTokenStore(cfg.TokenPath(), cfg.AuthSecret)
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}
	var remote provider.Replica
	if cfg.RemoteURL != "" {
		remote = rpc.NewClient(cfg.RemoteURL, cfg.RemoteToken, cfg.RPCTimeout)
		slog.Info("remote configured", "url", cfg.RemoteURL)
	} else {
		slog.Info("no remote configured, sync disabled")
	}
	syncs := syncer.New(st, remote, tokens, cfg.SyncLockTimeout)
	scheduler := syncer.NewScheduler(st, func(ctx context.Context) {
		runScheduledSync(ctx, syncs)
	})

	srv := rpc.NewServer(st, cfg.RPCToken, rpc.Hooks{
		RunSync:          syncs.Run,
		SyncDelayChanged: func(int64) { scheduler.Reload() },
	})
	httpServer := &http.Server{
		Addr:              cfg.RPCAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// background workers stop with runCtx and are waited for before the
	// store and lock are released
	runCtx, stopWorkers := context.WithCancel(ctx)
	var workers sync.WaitGroup
	defer func() {
		stopWorkers()
		workers.Wait()
	}()
	workers.Add(2)
	go func() {
		defer workers.Done()
		scheduler.Run(runCtx)
	}()
	go func() {
		defer workers.Done()
		// logging in or out from the CLI re-runs the schedule immediately
		if err := tokens.WatchToken(runCtx, scheduler.Trigger); err != nil {
			slog.Warn("token watch disabled", "err", err)
		}
	}()

	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.RPCAddr, "data_dir", cfg.DataDir)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve rpc: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown", "err", err)
	}
	slog.Info("stopped")
	return nil
}

func runScheduledSync(ctx context.Context, s *syncer.Syncer) {
	_, err := s.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, syncer.ErrNotAuthorized), errors.Is(err, syncer.ErrNoRemote):
		slog.Debug("sync schedule skipped", "reason", err)
	case errors.Is(err, syncer.ErrSyncBusy):
		slog.Warn("sync schedule: busy", "err", err)
	default:
		slog.Warn("sync schedule failed", "err", err)
	}
}
