// Package config loads beacon's TOML configuration file (spec §6). The shape
// mirrors the teacher's "one typed struct, one Load entry point, fail fast"
// convention (wisbric-nightowl's internal/config/config.go), but decodes a
// TOML file instead of flat env vars since spec §6 specifies nested tables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// BrokerConfig configures the Message Broker Client connection.
type BrokerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	Auth BrokerAuth `toml:"auth"`
	// TLS enables a TLS-wrapped connection to the broker. Most managed broker
	// deployments require it; local development usually does not.
	TLS bool `toml:"tls"`
}

// BrokerAuth is either a password-only or a (user, password) credential.
type BrokerAuth struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// StoreCollections names every collection the document store client opens.
type StoreCollections struct {
	Users             string `toml:"users"`
	DeviceDiagnostics string `toml:"device_diagnostics"`
	DeviceAuthorities string `toml:"device_authorities"`
	DeviceSchedules   string `toml:"device_schedules"`
	DeviceStates      string `toml:"device_states"`
	DeviceHistories   string `toml:"device_histories"`
	Migrations        string `toml:"migrations"`
}

// StoreConfig configures the Document Store Client.
type StoreConfig struct {
	URL         string           `toml:"url"`
	Database    string           `toml:"database"`
	Collections StoreCollections `toml:"collections"`
}

// OAuthConfig configures the external identity provider integration.
type OAuthConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	AuthURI      string   `toml:"auth_uri"`
	TokenURI     string   `toml:"token_uri"`
	InfoURI      string   `toml:"info_uri"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
	// CalendarURI is the external calendar provider's events API base, used
	// by pkg/calendar for RunDeviceSchedule (spec §4.D step "RunDeviceSchedule").
	CalendarURI string `toml:"calendar_uri"`
}

// WebConfig configures the HTTP front door: where it listens and its
// session cookie.
type WebConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	SessionCookie string `toml:"session_cookie"`
	SessionSecret string `toml:"session_secret"`
	UIRedirect    string `toml:"ui_redirect"`
	CookieDomain  string `toml:"cookie_domain"`
	SecureCookies bool   `toml:"secure_cookies"`
}

// RegistrarConfig configures the registrar worker.
type RegistrarConfig struct {
	IDConsumerUsername     string   `toml:"id_consumer_username"`
	IDConsumerPassword     string   `toml:"id_consumer_password"`
	RegistrationPoolMinimum int     `toml:"registration_pool_minimum"`
	ActiveDeviceChunkSize  int      `toml:"active_device_chunk_size"`
	InitialScannableAddr   string   `toml:"initial_scannable_addr"`
	VendorAPISecret        string   `toml:"vendor_api_secret"`
	ACLUserAllowlist       []string `toml:"acl_user_allowlist"`
}

// DefaultPoolMinimum is used when RegistrationPoolMinimum is unset (zero).
const DefaultPoolMinimum = 3

// DefaultActiveDeviceChunkSize is used when ActiveDeviceChunkSize is unset.
const DefaultActiveDeviceChunkSize = 25

// TickInterval is the registrar's fixed loop cadence (spec §4.D).
const TickInterval = 200 * time.Millisecond

// RegistrarJobPopTimeout is the blocking timeout for LPOP on the registrar
// job queue (spec §4.D step 5, §5).
const RegistrarJobPopTimeout = 3 * time.Second

// RenderPopTimeout is the blocking timeout for LPOP on the render queue
// (spec §4.E, §5).
const RenderPopTimeout = 5 * time.Second

// MaxConsecutiveTickFailures bounds how many consecutive tick failures the
// registrar tolerates before exiting (spec §4.D step 1, §5).
const MaxConsecutiveTickFailures = 10

// Config is beacon's full process configuration, loaded once at startup.
type Config struct {
	// Mode selects the runtime: "api", "registrar", or "renderer". Not itself
	// part of the TOML file; Load sets it to "api" and the --mode flag in
	// cmd/beacon overrides it.
	Mode string `toml:"-"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	Broker    BrokerConfig    `toml:"broker"`
	Store     StoreConfig     `toml:"store"`
	OAuth     OAuthConfig     `toml:"oauth"`
	Web       WebConfig       `toml:"web"`
	Registrar RegistrarConfig `toml:"registrar"`
}

// Load reads and parses the TOML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Mode:      "api",
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Registrar.RegistrationPoolMinimum <= 0 {
		c.Registrar.RegistrationPoolMinimum = DefaultPoolMinimum
	}
	if c.Registrar.ActiveDeviceChunkSize <= 0 {
		c.Registrar.ActiveDeviceChunkSize = DefaultActiveDeviceChunkSize
	}
	if c.Web.SessionCookie == "" {
		c.Web.SessionCookie = "beacon_session"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
}

// ListenAddr returns the HTTP listen address for the api mode.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}
