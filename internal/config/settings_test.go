package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	t.Setenv(EnvBackendURL, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL() != "http://127.0.0.1:8787" {
		t.Fatalf("unexpected backend url: %q", cfg.BackendURL())
	}
	if cfg.SendTimeout() != 60*time.Second {
		t.Fatalf("unexpected send timeout: %v", cfg.SendTimeout())
	}
	if cfg.RequestTimeout() != 10*time.Second {
		t.Fatalf("unexpected request timeout: %v", cfg.RequestTimeout())
	}
	if !cfg.RefreshAfterConfirm() {
		t.Fatalf("expected refresh after confirm to default on")
	}
	if cfg.StorageBackend() != "bbolt" {
		t.Fatalf("unexpected storage backend: %q", cfg.StorageBackend())
	}
	if cfg.LogLevel() != "info" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel())
	}
}

func TestLoadFromTOML(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)
	t.Setenv(EnvBackendURL, "")

	dataDir := filepath.Join(home, ".chatsync")
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := strings.Join([]string{
		"[backend]",
		`base_url = "api.example.test:9000/"`,
		`token_path = "~/tokens/chat"`,
		`send_timeout = "15s"`,
		"[sync]",
		"refresh_after_confirm = false",
		`pending_grace = "250ms"`,
		"[storage]",
		`backend = "File"`,
		`db_path = "alt.db"`,
		"",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL() != "http://api.example.test:9000" {
		t.Fatalf("unexpected backend url: %q", cfg.BackendURL())
	}
	if cfg.SendTimeout() != 15*time.Second {
		t.Fatalf("unexpected send timeout: %v", cfg.SendTimeout())
	}
	if cfg.PendingGrace() != 250*time.Millisecond {
		t.Fatalf("unexpected pending grace: %v", cfg.PendingGrace())
	}
	if cfg.RefreshAfterConfirm() {
		t.Fatalf("expected refresh after confirm disabled")
	}
	tokenPath, err := cfg.TokenPath()
	if err != nil {
		t.Fatalf("TokenPath: %v", err)
	}
	if want := filepath.Join(home, "tokens", "chat"); tokenPath != want {
		t.Fatalf("unexpected token path: got=%q want=%q", tokenPath, want)
	}
	dbPath, err := cfg.DBPath()
	if err != nil {
		t.Fatalf("DBPath: %v", err)
	}
	if want := filepath.Join(dataDir, "alt.db"); dbPath != want {
		t.Fatalf("unexpected db path: got=%q want=%q", dbPath, want)
	}
	if cfg.StorageBackend() != "file" {
		t.Fatalf("unexpected storage backend: %q", cfg.StorageBackend())
	}
}

func TestEnvOverridesBackendURL(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	t.Setenv(EnvBackendURL, "https://chat.example.test/")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL() != "https://chat.example.test" {
		t.Fatalf("unexpected backend url: %q", cfg.BackendURL())
	}
}

func TestInvalidDurationsFallBack(t *testing.T) {
	cfg := Config{Backend: BackendConfig{SendTimeout: "soon", RequestTimeout: "-1s"}}
	if cfg.SendTimeout() != defaultSendTimeout {
		t.Fatalf("expected default send timeout, got %v", cfg.SendTimeout())
	}
	if cfg.RequestTimeout() != defaultRequestTimeout {
		t.Fatalf("expected default request timeout, got %v", cfg.RequestTimeout())
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := DefaultConfig().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), "base_url") {
		t.Fatalf("expected base_url in encoded config: %s", data)
	}
}
