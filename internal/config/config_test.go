package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTOML = `
log_level = "debug"

[broker]
host = "redis.internal"
port = 6380
tls = true
[broker.auth]
username = "beacon"
password = "hunter2"

[store]
url = "mongodb://store.internal/beacon"
database = "beacon"
[store.collections]
users = "users"
device_diagnostics = "device_diagnostics"
device_authorities = "device_authorities"
device_schedules = "device_schedules"
device_states = "device_states"
device_histories = "device_histories"
migrations = "migrations"

[oauth]
client_id = "abc"
client_secret = "def"
auth_uri = "https://idp.example/authorize"
token_uri = "https://idp.example/token"
info_uri = "https://idp.example/userinfo"
redirect_uri = "https://beacon.example/auth/complete"
scopes = ["openid", "profile", "email"]

[web]
session_cookie = "beacon_session"
session_secret = "0123456789012345678901234567890123456789"
ui_redirect = "https://ui.example"
cookie_domain = ".example.com"

[registrar]
id_consumer_username = "burn-in"
id_consumer_password = "burn-in-pw"
registration_pool_minimum = 5
active_device_chunk_size = 10
initial_scannable_addr = "https://beacon.example/claim"
vendor_api_secret = "job-secret"
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "beacon.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadParsesNestedTables(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Broker.Host != "redis.internal" || cfg.Broker.Port != 6380 {
		t.Errorf("broker = %+v", cfg.Broker)
	}
	if !cfg.Broker.TLS {
		t.Error("expected broker.tls = true")
	}
	if cfg.Store.Database != "beacon" {
		t.Errorf("store.database = %q", cfg.Store.Database)
	}
	if cfg.Store.Collections.DeviceStates != "device_states" {
		t.Errorf("store.collections.device_states = %q", cfg.Store.Collections.DeviceStates)
	}
	if len(cfg.OAuth.Scopes) != 3 {
		t.Errorf("oauth.scopes = %v", cfg.OAuth.Scopes)
	}
	if cfg.Registrar.RegistrationPoolMinimum != 5 {
		t.Errorf("registrar.registration_pool_minimum = %d", cfg.Registrar.RegistrationPoolMinimum)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
[broker]
host = "localhost"
port = 6379
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Registrar.RegistrationPoolMinimum != DefaultPoolMinimum {
		t.Errorf("registrar.registration_pool_minimum = %d, want default %d", cfg.Registrar.RegistrationPoolMinimum, DefaultPoolMinimum)
	}
	if cfg.Registrar.ActiveDeviceChunkSize != DefaultActiveDeviceChunkSize {
		t.Errorf("registrar.active_device_chunk_size = %d, want default %d", cfg.Registrar.ActiveDeviceChunkSize, DefaultActiveDeviceChunkSize)
	}
	if cfg.Web.SessionCookie != "beacon_session" {
		t.Errorf("web.session_cookie = %q, want default", cfg.Web.SessionCookie)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("log_format = %q, want default json", cfg.LogFormat)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err == nil {
		t.Error("Load() with missing file should error")
	}
}

func TestPoolRefillBoundaryDefault(t *testing.T) {
	// Exactly-at-minimum boundary is exercised in pkg/registrar, but the
	// default constant itself is part of this package's contract.
	if DefaultPoolMinimum != 3 {
		t.Errorf("DefaultPoolMinimum = %d, want 3", DefaultPoolMinimum)
	}
}
