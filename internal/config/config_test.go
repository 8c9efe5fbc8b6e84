package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("no se pudo escribir el YAML: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  app_env: dev\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != ":8000" {
		t.Fatalf("addr default = %q", c.Server.Addr)
	}
	if c.Cache.Kind != "file" {
		t.Fatalf("cache default = %q", c.Cache.Kind)
	}
	if c.Garmin.DataSource != "garmin" {
		t.Fatalf("data_source default = %q", c.Garmin.DataSource)
	}
	if c.Fetch.Parallelism != 1 {
		t.Fatalf("parallelism default = %d", c.Fetch.Parallelism)
	}
	if c.MFA.TTL != 5*time.Minute {
		t.Fatalf("mfa ttl default = %v", c.MFA.TTL)
	}
}

func TestLoadYAMLValues(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9001"
cache:
  kind: redis
  redis:
    addr: "localhost:6379"
    prefix: gb
garmin:
  data_source: local_json
  is_cn: true
fetch:
  parallelism: 4
mfa:
  ttl: 10m
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != ":9001" {
		t.Fatalf("addr = %q", c.Server.Addr)
	}
	if c.Cache.Kind != "redis" || c.Cache.Redis.Prefix != "gb" {
		t.Fatalf("cache = %+v", c.Cache)
	}
	if c.Garmin.DataSource != "local_json" || !c.Garmin.IsCN {
		t.Fatalf("garmin = %+v", c.Garmin)
	}
	if c.Fetch.Parallelism != 4 {
		t.Fatalf("parallelism = %d", c.Fetch.Parallelism)
	}
	if c.MFA.TTL != 10*time.Minute {
		t.Fatalf("mfa ttl = %v", c.MFA.TTL)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7777")
	t.Setenv("DATA_SOURCE", "local_json")
	t.Setenv("FETCH_PARALLELISM", "8")
	t.Setenv("MFA_TTL", "2m")

	path := writeConfig(t, "server:\n  addr: \":9001\"\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != ":7777" {
		t.Fatalf("env no pisó el YAML: %q", c.Server.Addr)
	}
	if c.Garmin.DataSource != "local_json" {
		t.Fatalf("data_source = %q", c.Garmin.DataSource)
	}
	if c.Fetch.Parallelism != 8 {
		t.Fatalf("parallelism = %d", c.Fetch.Parallelism)
	}
	if c.MFA.TTL != 2*time.Minute {
		t.Fatalf("mfa ttl = %v", c.MFA.TTL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	if _, err := Load(writeConfig(t, "cache:\n  kind: memcached\n")); err == nil {
		t.Fatalf("cache.kind inválido debería fallar")
	}
	if _, err := Load(writeConfig(t, "garmin:\n  data_source: csv\n")); err == nil {
		t.Fatalf("data_source inválido debería fallar")
	}
	if _, err := Load(writeConfig(t, "garmin:\n  timeout: nope\n")); err == nil {
		t.Fatalf("timeout inválido debería fallar")
	}
}

func TestRelativeDataDirResolvedAgainstYAML(t *testing.T) {
	path := writeConfig(t, "cache:\n  kind: file\n  file:\n    data_dir: snapshots\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "snapshots")
	if c.Cache.File.DataDir != want {
		t.Fatalf("data_dir = %q, esperaba %q", c.Cache.File.DataDir, want)
	}
}
