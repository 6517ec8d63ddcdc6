package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/rumor/internal/logging"
	"github.com/mesh-intelligence/rumor/internal/syncstore"
	"github.com/mesh-intelligence/rumor/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// envPrefix maps keys to environment variables, e.g. server.addr to
	// RUMOR_SERVER_ADDR.
	envPrefix = "RUMOR"
)

// Config keys.
const (
	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyServerAddr    = "server.addr"
	cfgKeyBaseURL       = "client.base_url"
	cfgKeyClientTimeout = "client.timeout"
	cfgKeySearchDelay   = "client.search_delay"
	cfgKeyLogLevel      = "log.level"
	cfgKeyLogFormat     = "log.format"
)

// Defaults for every key.
const (
	defaultBackend    = types.BackendSQLite
	defaultServerAddr = ":8080"
	defaultBaseURL    = "http://localhost:8080"
	defaultLogLevel   = "info"
	defaultLogFormat  = logging.FormatConsole
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Rumor configuration

# Backend selection: sqlite or memory
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

server:
  addr: ":8080"

client:
  base_url: "http://localhost:8080"
  timeout: 10s
  search_delay: 300ms

log:
  level: info
  format: console
`

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. A missing config.yaml
// is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := newViper()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// newViper returns a Viper with defaults and RUMOR_ environment overrides.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyServerAddr, defaultServerAddr)
	v.SetDefault(cfgKeyBaseURL, defaultBaseURL)
	v.SetDefault(cfgKeyClientTimeout, syncstore.DefaultTimeout)
	v.SetDefault(cfgKeySearchDelay, syncstore.DefaultSearchDelay)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLogFormat, defaultLogFormat)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// clientTimeout returns the configured request timeout. Non-positive
// values fall back to the default.
func clientTimeout(v *viper.Viper) time.Duration {
	if d := v.GetDuration(cfgKeyClientTimeout); d > 0 {
		return d
	}
	return syncstore.DefaultTimeout
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
