// Package identity persists the stable worker UUID a worker presents to
// the coordinator, created once on first run and read on every
// subsequent startup.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	appNamespace = "mwmbl"
	configFile   = "config.json"
)

// config is the on-disk shape of <user-config-dir>/mwmbl/config.json.
type config struct {
	UserID string `json:"user_id"`
}

// Load returns the worker's persisted UUID, generating and writing one on
// first run. dir overrides the platform user-config directory when
// non-empty; an empty dir falls back to os.UserConfigDir().
func Load(dir string) (string, error) {
	path, err := configPath(dir)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err == nil {
		var cfg config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return "", fmt.Errorf("identity: corrupt config at %s: %w", path, err)
		}
		if cfg.UserID != "" {
			return cfg.UserID, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("identity: reading %s: %w", path, err)
	}

	userID := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("identity: creating config dir: %w", err)
	}
	data, err = json.Marshal(config{UserID: userID})
	if err != nil {
		return "", fmt.Errorf("identity: marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("identity: writing %s: %w", path, err)
	}
	return userID, nil
}

func configPath(dir string) (string, error) {
	if dir == "" {
		userConfigDir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("identity: resolving user config dir: %w", err)
		}
		dir = userConfigDir
	}
	return filepath.Join(dir, appNamespace, configFile), nil
}
