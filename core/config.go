package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultRequestTimeout   = 30 * time.Second
	DefaultTransferTimeout  = 10 * time.Minute
	DefaultMaxBodyBytes     = int64(10 << 20)
	DefaultMaxResponseBytes = int64(10 << 20)
)

const (
	AssistantProviderOpenAI    = "openai"
	AssistantProviderAnthropic = "anthropic"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Environment variable names. Credential errors quote these so the operator
// knows exactly what to set.
const (
	EnvPrefix            = "VENDORGATE_"
	EnvApolloAPIKey      = "VENDORGATE_APOLLO_API_KEY"
	EnvZohoClientID      = "VENDORGATE_ZOHO_CLIENT_ID"
	EnvZohoClientSecret  = "VENDORGATE_ZOHO_CLIENT_SECRET"
	EnvZohoAccessToken   = "VENDORGATE_ZOHO_ACCESS_TOKEN"
	EnvZohoRefreshToken  = "VENDORGATE_ZOHO_REFRESH_TOKEN"
	EnvZohoOwner         = "VENDORGATE_ZOHO_OWNER"
	EnvZohoAppName       = "VENDORGATE_ZOHO_APP_NAME"
	EnvZohoWorkspaceID   = "VENDORGATE_ZOHO_WORKSPACE_ID"
	EnvZohoRedirectURI   = "VENDORGATE_ZOHO_REDIRECT_URI"
	EnvAssistantAPIKey   = "VENDORGATE_ASSISTANT_API_KEY"
	EnvDatacenter        = "VENDORGATE_DATACENTER"
	EnvAllowedHosts      = "VENDORGATE_ALLOWED_HOSTS"
	EnvHTTPAddr          = "VENDORGATE_HTTP_ADDR"
	EnvDatabaseDSN       = "VENDORGATE_DATABASE_DSN"
	EnvDatabaseDriver    = "VENDORGATE_DATABASE_DRIVER"
	EnvAssistantProvider = "VENDORGATE_ASSISTANT_PROVIDER"
	EnvAssistantModel    = "VENDORGATE_ASSISTANT_MODEL"
)

type HTTPConfig struct {
	Addr            string        `koanf:"addr" mapstructure:"addr"`
	RequestTimeout  time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
	TransferTimeout time.Duration `koanf:"transfer_timeout" mapstructure:"transfer_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes" mapstructure:"max_body_bytes"`
	// MaxResponseBytes caps buffered vendor response bodies on /proxy and
	// the search routes. Streams from the drive routes are not capped.
	MaxResponseBytes int64 `koanf:"max_response_bytes" mapstructure:"max_response_bytes"`
}

type ApolloConfig struct {
	APIKey string `koanf:"api_key" mapstructure:"api_key"`
}

type ZohoConfig struct {
	ClientID     string   `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret string   `koanf:"client_secret" mapstructure:"client_secret"`
	AccessToken  string   `koanf:"access_token" mapstructure:"access_token"`
	RefreshToken string   `koanf:"refresh_token" mapstructure:"refresh_token"`
	Owner        string   `koanf:"owner" mapstructure:"owner"`
	AppName      string   `koanf:"app_name" mapstructure:"app_name"`
	WorkspaceID  string   `koanf:"workspace_id" mapstructure:"workspace_id"`
	RedirectURI  string   `koanf:"redirect_uri" mapstructure:"redirect_uri"`
	Scopes       []string `koanf:"scopes" mapstructure:"scopes"`
}

type DatabaseConfig struct {
	Driver      string        `koanf:"driver" mapstructure:"driver"`
	DSN         string        `koanf:"dsn" mapstructure:"dsn"`
	Debug       bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`
}

func (c DatabaseConfig) GetDebug() bool {
	return c.Debug
}

func (c DatabaseConfig) GetDriver() string {
	return c.Driver
}

func (c DatabaseConfig) GetServer() string {
	return c.DSN
}

func (c DatabaseConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c DatabaseConfig) GetOtelIdentifier() string {
	return "vendorgate"
}

type SearchConfig struct {
	CacheTTL       time.Duration `koanf:"cache_ttl" mapstructure:"cache_ttl"`
	DefaultPerPage int           `koanf:"default_per_page" mapstructure:"default_per_page"`
	MaxPerPage     int           `koanf:"max_per_page" mapstructure:"max_per_page"`
}

type AssistantConfig struct {
	Provider   string `koanf:"provider" mapstructure:"provider"`
	Model      string `koanf:"model" mapstructure:"model"`
	APIKey     string `koanf:"api_key" mapstructure:"api_key"`
	MaxRecords int    `koanf:"max_records" mapstructure:"max_records"`
	MaxTokens  int64  `koanf:"max_tokens" mapstructure:"max_tokens"`
}

type ThrottleConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `koanf:"burst" mapstructure:"burst"`
}

type Config struct {
	ServiceName  string          `koanf:"service_name" mapstructure:"service_name"`
	HTTP         HTTPConfig      `koanf:"http" mapstructure:"http"`
	Datacenter   string          `koanf:"datacenter" mapstructure:"datacenter"`
	AllowedHosts []string        `koanf:"allowed_hosts" mapstructure:"allowed_hosts"`
	Apollo       ApolloConfig    `koanf:"apollo" mapstructure:"apollo"`
	Zoho         ZohoConfig      `koanf:"zoho" mapstructure:"zoho"`
	Database     DatabaseConfig  `koanf:"database" mapstructure:"database"`
	Search       SearchConfig    `koanf:"search" mapstructure:"search"`
	Assistant    AssistantConfig `koanf:"assistant" mapstructure:"assistant"`
	Throttle     ThrottleConfig  `koanf:"throttle" mapstructure:"throttle"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "vendorgate",
		HTTP: HTTPConfig{
			Addr:             ":8080",
			RequestTimeout:   DefaultRequestTimeout,
			TransferTimeout:  DefaultTransferTimeout,
			MaxBodyBytes:     DefaultMaxBodyBytes,
			MaxResponseBytes: DefaultMaxResponseBytes,
		},
		Datacenter: string(DefaultDatacenter),
		Zoho: ZohoConfig{
			Scopes: []string{
				"WorkDrive.files.ALL",
				"WorkDrive.workspace.READ",
				"ZohoCreator.report.ALL",
				"ZohoCreator.form.CREATE",
			},
		},
		Database: DatabaseConfig{
			Driver:      DriverSQLite,
			DSN:         "file:vendorgate.db?cache=shared&_foreign_keys=on",
			PingTimeout: 5 * time.Second,
		},
		Search: SearchConfig{
			CacheTTL:       5 * time.Minute,
			DefaultPerPage: 25,
			MaxPerPage:     100,
		},
		Assistant: AssistantConfig{
			Provider:   AssistantProviderOpenAI,
			Model:      "gpt-4o-mini",
			MaxRecords: 20,
			MaxTokens:  1024,
		},
		Throttle: ThrottleConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("core: http.addr is required")
	}
	if c.HTTP.RequestTimeout < 0 || c.HTTP.TransferTimeout < 0 {
		return fmt.Errorf("core: http timeouts must not be negative")
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("core: http.max_body_bytes must not be negative")
	}
	if c.HTTP.MaxResponseBytes < 0 {
		return fmt.Errorf("core: http.max_response_bytes must not be negative")
	}
	if dc := strings.TrimSpace(c.Datacenter); dc != "" {
		if _, ok := ParseDatacenter(dc); !ok {
			return fmt.Errorf("core: datacenter %q is not supported", dc)
		}
	}
	for _, host := range c.AllowedHosts {
		if strings.ContainsAny(strings.TrimSpace(host), "/:@ ") {
			return fmt.Errorf("core: allowed_hosts entry %q must be a bare host name", host)
		}
	}
	switch strings.TrimSpace(c.Database.Driver) {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("core: database.driver %q is not supported", c.Database.Driver)
	}
	if c.Search.DefaultPerPage < 0 || c.Search.MaxPerPage < 0 {
		return fmt.Errorf("core: search page sizes must not be negative")
	}
	if c.Search.MaxPerPage > 0 && c.Search.DefaultPerPage > c.Search.MaxPerPage {
		return fmt.Errorf("core: search.default_per_page exceeds search.max_per_page")
	}
	switch strings.TrimSpace(strings.ToLower(c.Assistant.Provider)) {
	case "", AssistantProviderOpenAI, AssistantProviderAnthropic:
	default:
		return fmt.Errorf("core: assistant.provider %q is not supported", c.Assistant.Provider)
	}
	if c.Throttle.RequestsPerSecond < 0 || c.Throttle.Burst < 0 {
		return fmt.Errorf("core: throttle values must not be negative")
	}
	return nil
}

// Account returns the configured owner/app/workspace identifiers.
func (c Config) Account() AccountRef {
	return AccountRef{
		Owner:       strings.TrimSpace(c.Zoho.Owner),
		AppName:     strings.TrimSpace(c.Zoho.AppName),
		WorkspaceID: strings.TrimSpace(c.Zoho.WorkspaceID),
	}
}
