package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultBackendURL       = "http://127.0.0.1:8787"
	defaultRequestTimeout   = 10 * time.Second
	defaultSendTimeout      = 60 * time.Second
	defaultPendingGrace     = 5 * time.Second
	defaultDevserverAddress = "127.0.0.1:8787"
	defaultLogMaxSizeMB     = 10
	defaultLogMaxBackups    = 3

	EnvBackendURL = "CHATSYNC_BACKEND_URL"
	EnvToken      = "CHATSYNC_TOKEN"
)

type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	Sync      SyncConfig      `toml:"sync"`
	Logging   LoggingConfig   `toml:"logging"`
	Storage   StorageConfig   `toml:"storage"`
	Devserver DevserverConfig `toml:"devserver"`
}

type BackendConfig struct {
	BaseURL        string `toml:"base_url"`
	TokenPath      string `toml:"token_path"`
	RequestTimeout string `toml:"request_timeout"`
	SendTimeout    string `toml:"send_timeout"`
}

type SyncConfig struct {
	RefreshAfterConfirm *bool  `toml:"refresh_after_confirm,omitempty"`
	PendingGrace        string `toml:"pending_grace"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	Path       string `toml:"path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type StorageConfig struct {
	Backend  string `toml:"backend"`
	DBPath   string `toml:"db_path"`
	FilesDir string `toml:"files_dir"`
}

type DevserverConfig struct {
	Address    string `toml:"address"`
	Token      string `toml:"token"`
	ReplyDelay string `toml:"reply_delay"`
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL:        defaultBackendURL,
			RequestTimeout: defaultRequestTimeout.String(),
			SendTimeout:    defaultSendTimeout.String(),
		},
		Sync: SyncConfig{
			PendingGrace: defaultPendingGrace.String(),
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
		Storage: StorageConfig{
			Backend: "bbolt",
		},
		Devserver: DevserverConfig{
			Address: defaultDevserverAddress,
		},
	}
}

// Load reads the config file and applies environment overrides. A missing
// file yields the defaults.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	cfg, err := loadFromPath(path)
	if err != nil {
		return Config{}, err
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func loadFromPath(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	if v, ok := lookup(EnvBackendURL); ok && strings.TrimSpace(v) != "" {
		c.Backend.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvToken); ok && strings.TrimSpace(v) != "" {
		c.Devserver.Token = strings.TrimSpace(v)
	}
}

// Encode renders the config as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func (c Config) BackendURL() string {
	url := strings.TrimSpace(c.Backend.BaseURL)
	if url == "" {
		return defaultBackendURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	url = strings.TrimRight(url, "/")
	if url == "http:" || url == "https:" {
		return defaultBackendURL
	}
	return url
}

func (c Config) TokenPath() (string, error) {
	path := strings.TrimSpace(c.Backend.TokenPath)
	if path == "" {
		return TokenPath()
	}
	return resolveConfigPath(path)
}

func (c Config) RequestTimeout() time.Duration {
	return durationOr(c.Backend.RequestTimeout, defaultRequestTimeout)
}

func (c Config) SendTimeout() time.Duration {
	return durationOr(c.Backend.SendTimeout, defaultSendTimeout)
}

func (c Config) PendingGrace() time.Duration {
	return durationOr(c.Sync.PendingGrace, defaultPendingGrace)
}

func (c Config) RefreshAfterConfirm() bool {
	if c.Sync.RefreshAfterConfirm == nil {
		return true
	}
	return *c.Sync.RefreshAfterConfirm
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c Config) LogPath() (string, error) {
	path := strings.TrimSpace(c.Logging.Path)
	if path == "" {
		return UILogPath()
	}
	return resolveConfigPath(path)
}

func (c Config) LogMaxSizeMB() int {
	if c.Logging.MaxSizeMB <= 0 {
		return defaultLogMaxSizeMB
	}
	return c.Logging.MaxSizeMB
}

func (c Config) LogMaxBackups() int {
	if c.Logging.MaxBackups < 0 {
		return 0
	}
	return c.Logging.MaxBackups
}

func (c Config) DBPath() (string, error) {
	path := strings.TrimSpace(c.Storage.DBPath)
	if path == "" {
		return CachePath()
	}
	return resolveConfigPath(path)
}

// StorageBackend is "bbolt" unless the file backend is selected.
func (c Config) StorageBackend() string {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case "file":
		return "file"
	default:
		return "bbolt"
	}
}

func (c Config) StorageFilesDir() (string, error) {
	path := strings.TrimSpace(c.Storage.FilesDir)
	if path == "" {
		return CacheDir()
	}
	return resolveConfigPath(path)
}

func (c Config) DevserverAddress() string {
	addr := strings.TrimSpace(c.Devserver.Address)
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultDevserverAddress
	}
	return addr
}

func (c Config) DevserverToken() string {
	return strings.TrimSpace(c.Devserver.Token)
}

func (c Config) DevserverReplyDelay() time.Duration {
	return durationOr(c.Devserver.ReplyDelay, 0)
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}
