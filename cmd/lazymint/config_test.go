package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

func tomlMarshal(cfg fileConfig) ([]byte, error) {
	return toml.Marshal(cfg)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists || resolved != path {
		t.Fatalf("expected missing file to be reported, got exists=%v resolved=%s", exists, resolved)
	}
	if cfg.Database.DSN == "" || cfg.Orchestrator.OrchestratorID != "default" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfig_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazymint.toml")
	if err := os.WriteFile(path, []byte("[orchestrator]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, _, err := loadConfig(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestLoadConfig_RejectsBadDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazymint.toml")
	body := "[orchestrator]\ncall_timeout = \"soon\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, _, err := loadConfig(path); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}

func TestLoadConfig_NormalizesRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazymint.toml")
	body := `
[database]
driver = "sqlite"
dsn = "file:test.db"

[registry]
endpoint = " http://node.local:9944/ "
transport = "REST"
max_response_body_bytes = 4096

[registry.headers]
Authorization = "Bearer token"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, _, _, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Registry.Endpoint != "http://node.local:9944" || cfg.Registry.Transport != "rest" {
		t.Fatalf("unexpected registry section %+v", cfg.Registry)
	}
	if cfg.Registry.Headers["Authorization"] != "Bearer token" {
		t.Fatalf("expected headers to decode, got %#v", cfg.Registry.Headers)
	}
	if limit := cfg.transportConfig()["max_response_body_bytes"]; limit != int64(4096) {
		t.Fatalf("expected response limit in transport config, got %#v", limit)
	}
}

func TestFileConfig_OrchestratorValuesSkipsUnsetKeys(t *testing.T) {
	cfg := fileConfig{Orchestrator: orchestratorSection{
		Generation:   "legacy",
		CallGasLimit: 42,
		CallTimeout:  "5s",
	}}
	values := cfg.orchestratorValues()
	if len(values) != 3 {
		t.Fatalf("expected 3 keys, got %#v", values)
	}
	if values["generation"] != "legacy" || values["call_gas_limit"] != uint64(42) || values["call_timeout"] != 5*time.Second {
		t.Fatalf("unexpected values %#v", values)
	}
}
