package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"strings"

	"chatsync/internal/config"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"
)

type ConfigCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (config.Config, error)
}

// effectiveConfig is the config with every default and override resolved.
type effectiveConfig struct {
	ConfigPath string                   `json:"config_path,omitempty" toml:"config_path,omitempty"`
	Backend    effectiveBackendConfig   `json:"backend" toml:"backend"`
	Sync       effectiveSyncConfig      `json:"sync" toml:"sync"`
	Logging    effectiveLoggingConfig   `json:"logging" toml:"logging"`
	Storage    effectiveStorageConfig   `json:"storage" toml:"storage"`
	Devserver  effectiveDevserverConfig `json:"devserver" toml:"devserver"`
}

type effectiveBackendConfig struct {
	BaseURL        string `json:"base_url" toml:"base_url"`
	TokenPath      string `json:"token_path" toml:"token_path"`
	RequestTimeout string `json:"request_timeout" toml:"request_timeout"`
	SendTimeout    string `json:"send_timeout" toml:"send_timeout"`
}

type effectiveSyncConfig struct {
	RefreshAfterConfirm bool   `json:"refresh_after_confirm" toml:"refresh_after_confirm"`
	PendingGrace        string `json:"pending_grace" toml:"pending_grace"`
}

type effectiveLoggingConfig struct {
	Level      string `json:"level" toml:"level"`
	Path       string `json:"path" toml:"path"`
	MaxSizeMB  int    `json:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" toml:"max_backups"`
}

type effectiveStorageConfig struct {
	Backend  string `json:"backend" toml:"backend"`
	DBPath   string `json:"db_path,omitempty" toml:"db_path,omitempty"`
	FilesDir string `json:"files_dir,omitempty" toml:"files_dir,omitempty"`
}

type effectiveDevserverConfig struct {
	Address    string `json:"address" toml:"address"`
	ReplyDelay string `json:"reply_delay" toml:"reply_delay"`
	TokenSet   bool   `json:"token_set" toml:"token_set"`
}

func NewConfigCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error)) *ConfigCommand {
	return &ConfigCommand{
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: loadConfig,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatJSON, "output format: json|toml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	out := effectiveConfig{}
	if !*defaults {
		cfg, err = c.loadConfig()
		if err != nil {
			return err
		}
		if path, err := config.ConfigPath(); err == nil {
			out.ConfigPath = path
		}
	}
	if err := fillEffectiveConfig(&out, cfg); err != nil {
		return err
	}
	return writeConfigOutput(c.stdout, resolvedFormat, out)
}

func fillEffectiveConfig(out *effectiveConfig, cfg config.Config) error {
	tokenPath, err := cfg.TokenPath()
	if err != nil {
		return err
	}
	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	out.Backend = effectiveBackendConfig{
		BaseURL:        cfg.BackendURL(),
		TokenPath:      tokenPath,
		RequestTimeout: cfg.RequestTimeout().String(),
		SendTimeout:    cfg.SendTimeout().String(),
	}
	out.Sync = effectiveSyncConfig{
		RefreshAfterConfirm: cfg.RefreshAfterConfirm(),
		PendingGrace:        cfg.PendingGrace().String(),
	}
	out.Logging = effectiveLoggingConfig{
		Level:      cfg.LogLevel(),
		Path:       logPath,
		MaxSizeMB:  cfg.LogMaxSizeMB(),
		MaxBackups: cfg.LogMaxBackups(),
	}
	out.Storage = effectiveStorageConfig{Backend: cfg.StorageBackend()}
	switch cfg.StorageBackend() {
	case "file":
		if dir, err := cfg.StorageFilesDir(); err == nil {
			out.Storage.FilesDir = dir
		}
	default:
		if path, err := cfg.DBPath(); err == nil {
			out.Storage.DBPath = path
		}
	}
	out.Devserver = effectiveDevserverConfig{
		Address:    cfg.DevserverAddress(),
		ReplyDelay: cfg.DevserverReplyDelay().String(),
		TokenSet:   cfg.DevserverToken() != "",
	}
	return nil
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatJSON:
		return configFormatJSON, nil
	case configFormatTOML:
		return configFormatTOML, nil
	default:
		return "", errors.New("format must be json or toml")
	}
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}
