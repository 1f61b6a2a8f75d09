package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"gpad/internal/config"
	"gpad/internal/storage/fs"
)

func testConfig(t *testing.T, addr string) config.Config {
	t.Helper()
	return config.Config{
		DataDir:         t.TempDir(),
		RPCAddr:         addr,
		RPCTimeout:      time.Second,
		AuthSecret:      "secret",
		SyncLockTimeout: time.Second,
	}
}

// the data dir lock must be free again once run returns
func assertLockReleased(t *testing.T, cfg config.Config) {
	t.Helper()
	lock, err := fs.AcquireFileLock(cfg.LockPath(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("lock still held after run: %v", err)
	}
	lock.Release()
}

func TestRunReleasesLockWhenListenFails(t *testing.T) {
	cfg := testConfig(t, "127.0.0.1:99999")
	err := run(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected listen error")
	}
	assertLockReleased(t, cfg)
}

func TestRunRefusesSecondProvider(t *testing.T) {
	cfg := testConfig(t, "127.0.0.1:0")
	held, err := fs.AcquireFileLock(cfg.LockPath(), time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	err = run(context.Background(), cfg)
	held.Release()
	if !errors.Is(err, fs.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, "127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop")
	}
	assertLockReleased(t, cfg)
}
