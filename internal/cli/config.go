// Config loading for the purchase CLI.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/purchase/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "PURCHASE"

	cfgKeyDataDir     = "data_dir"
	cfgKeyDBName      = "db_name"
	cfgKeyDBVersion   = "db_version"
	cfgKeyForeignKeys = "foreign_keys"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	DataDir     string `yaml:"data_dir,omitempty"`
	DBName      string `yaml:"db_name"`
	DBVersion   int    `yaml:"db_version"`
	ForeignKeys bool   `yaml:"foreign_keys"`
}

// loadConfig reads config.yaml from configDir with Viper. A missing file is
// not an error. db_name, db_version and foreign_keys may be overridden by
// PURCHASE_DB_NAME, PURCHASE_DB_VERSION and PURCHASE_FOREIGN_KEYS; data_dir
// precedence is handled by paths.ResolveDataDir.
func loadConfig(configDir string) (types.Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyDBName, types.DefaultName)
	v.SetDefault(cfgKeyDBVersion, types.DefaultVersion)
	v.SetDefault(cfgKeyForeignKeys, false)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyDBName, cfgKeyDBVersion, cfgKeyForeignKeys} {
		if err := v.BindEnv(key); err != nil {
			return types.Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := types.Config{
		DataDir:     v.GetString(cfgKeyDataDir),
		Name:        v.GetString(cfgKeyDBName),
		Version:     v.GetInt(cfgKeyDBVersion),
		ForeignKeys: v.GetBool(cfgKeyForeignKeys),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil (idempotent).
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}

	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		DataDir:   dataDir,
		DBName:    types.DefaultName,
		DBVersion: types.DefaultVersion,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := "# purchase CLI configuration\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
