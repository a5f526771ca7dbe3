package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileTokenSourceCachesUntilInvalidated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte(" first \n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	src := NewFileTokenSource(path)
	token, err := src.Token()
	if err != nil || token != "first" {
		t.Fatalf("unexpected token %q err=%v", token, err)
	}
	if err := os.WriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if token, _ := src.Token(); token != "first" {
		t.Fatalf("expected cached token, got %q", token)
	}
	src.Invalidate()
	if token, _ := src.Token(); token != "second" {
		t.Fatalf("expected reloaded token, got %q", token)
	}
}

func TestFileTokenSourceMissingFileIsEmpty(t *testing.T) {
	src := NewFileTokenSource(filepath.Join(t.TempDir(), "absent"))
	token, err := src.Token()
	if err != nil || token != "" {
		t.Fatalf("expected empty token, got %q err=%v", token, err)
	}
}

func TestFileTokenSourceWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	src := NewFileTokenSource(path)
	if token, _ := src.Token(); token != "old" {
		t.Fatalf("unexpected initial token %q", token)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx, nil) }()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if err := os.WriteFile(path, []byte("new"), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if token, _ := src.Token(); token == "new" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("token was not reloaded after file change")
}
