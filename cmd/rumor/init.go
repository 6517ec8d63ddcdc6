package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig is the structure of config.yaml as rewritten by init.
type fileConfig struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir,omitempty"`
	Server  struct {
		Addr string `yaml:"addr,omitempty"`
	} `yaml:"server,omitempty"`
	Client struct {
		BaseURL     string `yaml:"base_url,omitempty"`
		Timeout     string `yaml:"timeout,omitempty"`
		SearchDelay string `yaml:"search_delay,omitempty"`
	} `yaml:"client,omitempty"`
	Log struct {
		Level  string `yaml:"level,omitempty"`
		Format string `yaml:"format,omitempty"`
	} `yaml:"log,omitempty"`
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize rumor configuration and storage",
	Long: `Init creates the configuration directory with a config.yaml and, for the
sqlite backend, the data directory and database. A --data-dir given to init
is recorded in config.yaml so later commands use it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		dataDir, err := resolveDataDir()
		if err != nil {
			return err
		}
		path := filepath.Join(configDir, configFileExt)
		if flagDataDir != "" {
			if err := recordDataDir(path, dataDir); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
		}

		backend, err := attachBackend(dataDir)
		if err != nil {
			return err
		}
		if backend != nil {
			if err := backend.Detach(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Rumor initialized successfully")
		fmt.Fprintln(out, "  config:", path)
		fmt.Fprintln(out, "  data:  ", dataDir)
		return nil
	},
}

// recordDataDir sets data_dir in the config file at path, keeping the
// other values already there.
func recordDataDir(path, dataDir string) error {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if fc.Backend == "" {
		fc.Backend = defaultBackend
	}
	fc.DataDir = dataDir

	out, err := yaml.Marshal(&fc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
