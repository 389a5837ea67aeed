package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-lazymint/core"
	sqlstore "github.com/goliatone/go-lazymint/store/sql"
	"github.com/goliatone/go-lazymint/transport"
	"github.com/pelletier/go-toml/v2"
)

const projectConfigName = "lazymint.toml"

type fileConfig struct {
	Orchestrator orchestratorSection `toml:"orchestrator"`
	Database     databaseSection     `toml:"database"`
	Registry     registrySection     `toml:"registry"`
}

type orchestratorSection struct {
	ServiceName       string `toml:"service_name,omitempty"`
	OrchestratorID    string `toml:"orchestrator_id,omitempty"`
	Generation        string `toml:"generation,omitempty"`
	AttachFailure     string `toml:"attach_failure,omitempty"`
	CollectionAddress string `toml:"collection_address,omitempty"`
	CatalogAddress    string `toml:"catalog_address,omitempty"`
	OwnerAddress      string `toml:"owner_address,omitempty"`
	CallGasLimit      uint64 `toml:"call_gas_limit,omitempty"`
	CallTimeout       string `toml:"call_timeout,omitempty"`
}

type databaseSection struct {
	Driver         string `toml:"driver"`
	DSN            string `toml:"dsn"`
	Debug          bool   `toml:"debug,omitempty"`
	SkipMigrations bool   `toml:"skip_migrations,omitempty"`
	// StateCacheTTL enables the cached state store when set.
	StateCacheTTL string `toml:"state_cache_ttl,omitempty"`
}

type registrySection struct {
	Endpoint             string            `toml:"endpoint"`
	Transport            string            `toml:"transport,omitempty"`
	MaxResponseBodyBytes int64             `toml:"max_response_body_bytes,omitempty"`
	Headers              map[string]string `toml:"headers,omitempty"`
}

func defaultFileConfig() fileConfig {
	defaults := core.DefaultConfig()
	return fileConfig{
		Orchestrator: orchestratorSection{
			ServiceName:    defaults.ServiceName,
			OrchestratorID: defaults.OrchestratorID,
			Generation:     string(defaults.Generation),
			CallGasLimit:   defaults.CallGasLimit,
			CallTimeout:    defaults.CallTimeout.String(),
		},
		Database: databaseSection{
			Driver: sqlstore.DriverSQLite,
			DSN:    "file:lazymint.db?_foreign_keys=on",
		},
		Registry: registrySection{
			Transport: transport.KindREST,
		},
	}
}

// loadConfig reads path, or lazymint.toml in the working directory when path
// is empty. A missing file yields the defaults.
func loadConfig(path string) (fileConfig, string, bool, error) {
	cfg := defaultFileConfig()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return fileConfig{}, "", false, err
	}
	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return fileConfig{}, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return fileConfig{}, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return fileConfig{}, "", false, err
	}
	return cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		abs, err := filepath.Abs(projectConfigName)
		if err != nil {
			return "", false, err
		}
		path = abs
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", path)
	}
	return path, true, nil
}

func (c *fileConfig) normalize() {
	c.Database.Driver = strings.TrimSpace(c.Database.Driver)
	c.Database.DSN = strings.TrimSpace(c.Database.DSN)
	c.Registry.Endpoint = strings.TrimRight(strings.TrimSpace(c.Registry.Endpoint), "/")
	c.Registry.Transport = strings.ToLower(strings.TrimSpace(c.Registry.Transport))
	if c.Registry.Transport == "" {
		c.Registry.Transport = transport.KindREST
	}
}

func (c fileConfig) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database.dsn is required")
	}
	if _, err := parseOptionalDuration("orchestrator.call_timeout", c.Orchestrator.CallTimeout); err != nil {
		return err
	}
	if _, err := parseOptionalDuration("database.state_cache_ttl", c.Database.StateCacheTTL); err != nil {
		return err
	}
	if c.Registry.MaxResponseBodyBytes < 0 {
		return fmt.Errorf("config: registry.max_response_body_bytes must not be negative")
	}
	return nil
}

// orchestratorValues is the raw map handed to the core config provider. Only
// set keys are included so the core defaults still apply.
func (c fileConfig) orchestratorValues() map[string]any {
	values := map[string]any{}
	setString := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			values[key] = value
		}
	}
	o := c.Orchestrator
	setString("service_name", o.ServiceName)
	setString("orchestrator_id", o.OrchestratorID)
	setString("generation", o.Generation)
	setString("attach_failure", o.AttachFailure)
	setString("collection_address", o.CollectionAddress)
	setString("catalog_address", o.CatalogAddress)
	setString("owner_address", o.OwnerAddress)
	if o.CallGasLimit > 0 {
		values["call_gas_limit"] = o.CallGasLimit
	}
	if timeout, _ := parseOptionalDuration("", o.CallTimeout); timeout > 0 {
		values["call_timeout"] = timeout
	}
	return values
}

func (c fileConfig) databaseConfig() sqlstore.DatabaseConfig {
	return sqlstore.DatabaseConfig{
		Driver:         c.Database.Driver,
		DSN:            c.Database.DSN,
		Debug:          c.Database.Debug,
		SkipMigrations: c.Database.SkipMigrations,
	}
}

func (c fileConfig) stateCacheTTL() time.Duration {
	ttl, _ := parseOptionalDuration("", c.Database.StateCacheTTL)
	return ttl
}

func (c fileConfig) transportConfig() map[string]any {
	if c.Registry.MaxResponseBodyBytes <= 0 {
		return nil
	}
	return map[string]any{"max_response_body_bytes": c.Registry.MaxResponseBodyBytes}
}

func parseOptionalDuration(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("config: invalid %s %q", key, raw)
	}
	return value, nil
}
