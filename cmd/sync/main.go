// Command sync runs one synchronization against the remote without the
// provider daemon. It refuses to run while the daemon holds the data dir.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gpad/internal/auth"
	"gpad/internal/config"
	"gpad/internal/logging"
	"gpad/internal/rpc"
	"gpad/internal/storage/fs"
	"gpad/internal/store"
	"gpad/internal/syncer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	closeLog, err := logging.Setup(os.Stderr, logging.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closeLog()
	if cfg.RemoteURL == "" {
		return fmt.Errorf("GPAD_REMOTE_URL is required: %w", syncer.ErrNoRemote)
	}

	lock, err := fs.AcquireFileLock(cfg.LockPath(), time.Second)
	if errors.Is(err, fs.ErrLocked) {
		return errors.New("the provider daemon is running, use \"gpad sync\" instead")
	}
	if err != nil {
		return err
	}
	defer lock.Release()

	st, err := store.OpenWithOptions(cfg.DatabasePath(), store.OpenOptions{
		BusyTimeout: cfg.DBBusyTimeout,
		LockTimeout: cfg.DBLockTimeout,
	})
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()
	if err := st.Init(ctx); err != nil {
		return err
	}
	tokens, err := auth.NewTokenStore(cfg.TokenPath(), cfg.AuthSecret)
	if err != nil {
		return err
	}
	remote := rpc.NewClient(cfg.RemoteURL, cfg.RemoteToken, cfg.RPCTimeout)
	report, err := syncer.New(st, remote, tokens, cfg.SyncLockTimeout).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("notebooks: %d pushed, %d pulled, %d deleted\n", report.NotebooksPushed, report.NotebooksPulled, report.NotebooksDeleted)
	fmt.Printf("notes: %d pushed, %d pulled, %d deleted\n", report.NotesPushed, report.NotesPulled, report.NotesDeleted)
	return nil
}
