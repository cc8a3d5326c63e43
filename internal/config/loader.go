package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joacominatel/minastmt/internal/logging"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const (
	configDir  = ".minastmt"
	configFile = "config"
	configType = "yaml"
	envPrefix  = "MINASTMT"

	// keyringService namespaces connection passwords in the OS keyring.
	keyringService = "minastmt"

	defaultFetchArraySize = 100
)

// Load reads the configuration from ~/.minastmt/config.yaml.
func Load() (*Config, error) {
	dir, err := DirPath()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}
	return LoadFrom(dir)
}

// LoadFrom reads config.yaml from dir, applies defaults and MINASTMT_*
// environment overrides and fills passwords from the keyring. A missing
// file yields the defaults.
func LoadFrom(dir string) (*Config, error) {
	v := newViper(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Preferences.FetchArraySize < 1 {
		cfg.Preferences.FetchArraySize = defaultFetchArraySize
	}

	log := logging.WithComponent("config")
	for i := range cfg.Connections {
		c := &cfg.Connections[i]
		pw, err := keyring.Get(keyringService, c.Name)
		switch {
		case err == nil:
			c.Password = pw
		case !errors.Is(err, keyring.ErrNotFound):
			log.Warn("keyring lookup failed", "connection", c.Name, "error", err)
		}
	}

	return cfg, nil
}

// Save writes the configuration to ~/.minastmt/config.yaml.
func Save(cfg *Config) error {
	dir, err := DirPath()
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	return SaveTo(dir, cfg)
}

// SaveTo writes config.yaml into dir and stores connection passwords in the
// keyring.
func SaveTo(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	for _, c := range cfg.Connections {
		if c.Password == "" {
			continue
		}
		if err := keyring.Set(keyringService, c.Name, c.Password); err != nil {
			return fmt.Errorf("store password for %s: %w", c.Name, err)
		}
	}

	v := newViper(dir)
	v.Set("connections", cfg.Connections)
	v.Set("preferences", cfg.Preferences)

	path := filepath.Join(dir, configFile+"."+configType)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveConnection adds or replaces conn and saves the configuration.
func SaveConnection(cfg *Config, conn Connection) error {
	cfg.AddConnection(conn)
	return Save(cfg)
}

// ForgetPassword removes the stored password of a connection.
func ForgetPassword(name string) error {
	err := keyring.Delete(keyringService, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete password for %s: %w", name, err)
	}
	return nil
}

// DirPath returns ~/.minastmt.
func DirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFile)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("preferences.theme", "default")
	v.SetDefault("preferences.default_connection", "")
	v.SetDefault("preferences.fetch_array_size", defaultFetchArraySize)
	v.SetDefault("preferences.log_level", "info")
	v.SetDefault("preferences.log_file", "")
	return v
}
