package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchTokenNotifiesOnLogin(t *testing.T) {
	store, err := NewTokenStore(filepath.Join(t.TempDir(), "auth.token"), "secret")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- store.WatchToken(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// the watcher registers asynchronously; keep writing until it reports
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
wait:
	for {
		select {
		case <-changed:
			break wait
		case <-tick.C:
			if err := store.SetToken("S=s1"); err != nil {
				t.Fatalf("set token: %v", err)
			}
		case <-deadline:
			t.Fatal("no change notification")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
