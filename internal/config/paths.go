package config

import (
	"os"
	"path/filepath"
)

const appDirName = ".chatsync"

// DataDir returns the base data directory for chatsync.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// ConfigPath returns the path to the TOML configuration file.
func ConfigPath() (string, error) {
	return dataPath("config.toml")
}

// TokenPath returns the default bearer token file written by the auth flow.
func TokenPath() (string, error) {
	return dataPath("token")
}

// CachePath returns the path to the local bbolt cache.
func CachePath() (string, error) {
	return dataPath("cache.db")
}

// CacheDir holds the JSON cache files of the file storage backend.
func CacheDir() (string, error) {
	return dataPath("cache")
}

// UILogPath returns the default log file for the terminal UI.
func UILogPath() (string, error) {
	return dataPath("ui.log")
}

func dataPath(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}
