package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
	"github.com/joho/godotenv"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// LoadConfig resolves defaults < provider < runtime into a validated Config.
func LoadConfig(ctx context.Context, provider ConfigProvider, resolver OptionsResolver, runtime Config) (Config, error) {
	defaults := DefaultConfig()
	if provider == nil {
		provider = NewCfgxConfigProvider(nil)
	}
	if resolver == nil {
		resolver = GoOptionsResolver{}
	}
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return Config{}, err
	}
	return resolver.Resolve(defaults, loaded, runtime)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// StaticLoader returns a RawConfigLoader backed by a fixed map.
func StaticLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type envBinding struct {
	name string
	path []string
	kind string
}

var envBindings = []envBinding{
	{name: "VENDORGATE_SERVICE_NAME", path: []string{"service_name"}, kind: "string"},
	{name: EnvHTTPAddr, path: []string{"http", "addr"}, kind: "string"},
	{name: "VENDORGATE_HTTP_REQUEST_TIMEOUT", path: []string{"http", "request_timeout"}, kind: "duration"},
	{name: "VENDORGATE_HTTP_TRANSFER_TIMEOUT", path: []string{"http", "transfer_timeout"}, kind: "duration"},
	{name: "VENDORGATE_HTTP_MAX_BODY_BYTES", path: []string{"http", "max_body_bytes"}, kind: "int64"},
	{name: "VENDORGATE_HTTP_MAX_RESPONSE_BYTES", path: []string{"http", "max_response_bytes"}, kind: "int64"},
	{name: EnvDatacenter, path: []string{"datacenter"}, kind: "string"},
	{name: EnvAllowedHosts, path: []string{"allowed_hosts"}, kind: "list"},
	{name: EnvApolloAPIKey, path: []string{"apollo", "api_key"}, kind: "string"},
	{name: EnvZohoClientID, path: []string{"zoho", "client_id"}, kind: "string"},
	{name: EnvZohoClientSecret, path: []string{"zoho", "client_secret"}, kind: "string"},
	{name: EnvZohoAccessToken, path: []string{"zoho", "access_token"}, kind: "string"},
	{name: EnvZohoRefreshToken, path: []string{"zoho", "refresh_token"}, kind: "string"},
	{name: EnvZohoOwner, path: []string{"zoho", "owner"}, kind: "string"},
	{name: EnvZohoAppName, path: []string{"zoho", "app_name"}, kind: "string"},
	{name: EnvZohoWorkspaceID, path: []string{"zoho", "workspace_id"}, kind: "string"},
	{name: EnvZohoRedirectURI, path: []string{"zoho", "redirect_uri"}, kind: "string"},
	{name: "VENDORGATE_ZOHO_SCOPES", path: []string{"zoho", "scopes"}, kind: "list"},
	{name: EnvDatabaseDriver, path: []string{"database", "driver"}, kind: "string"},
	{name: EnvDatabaseDSN, path: []string{"database", "dsn"}, kind: "string"},
	{name: "VENDORGATE_DATABASE_DEBUG", path: []string{"database", "debug"}, kind: "bool"},
	{name: "VENDORGATE_SEARCH_CACHE_TTL", path: []string{"search", "cache_ttl"}, kind: "duration"},
	{name: "VENDORGATE_SEARCH_DEFAULT_PER_PAGE", path: []string{"search", "default_per_page"}, kind: "int"},
	{name: "VENDORGATE_SEARCH_MAX_PER_PAGE", path: []string{"search", "max_per_page"}, kind: "int"},
	{name: EnvAssistantProvider, path: []string{"assistant", "provider"}, kind: "string"},
	{name: EnvAssistantModel, path: []string{"assistant", "model"}, kind: "string"},
	{name: EnvAssistantAPIKey, path: []string{"assistant", "api_key"}, kind: "string"},
	{name: "VENDORGATE_ASSISTANT_MAX_RECORDS", path: []string{"assistant", "max_records"}, kind: "int"},
	{name: "VENDORGATE_ASSISTANT_MAX_TOKENS", path: []string{"assistant", "max_tokens"}, kind: "int64"},
	{name: "VENDORGATE_THROTTLE_REQUESTS_PER_SECOND", path: []string{"throttle", "requests_per_second"}, kind: "float"},
	{name: "VENDORGATE_THROTTLE_BURST", path: []string{"throttle", "burst"}, kind: "int"},
}

// EnvLoader reads VENDORGATE_* variables. Values from Files (.env format)
// are used only when the process environment does not set the variable.
type EnvLoader struct {
	Files  []string
	Lookup func(string) (string, bool)
}

func NewEnvLoader(files ...string) *EnvLoader {
	return &EnvLoader{Files: files, Lookup: os.LookupEnv}
}

func (l *EnvLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := os.LookupEnv
	if l != nil && l.Lookup != nil {
		lookup = l.Lookup
	}
	fileValues := map[string]string{}
	if l != nil {
		for _, file := range l.Files {
			file = strings.TrimSpace(file)
			if file == "" {
				continue
			}
			if _, err := os.Stat(file); err != nil {
				continue
			}
			values, err := godotenv.Read(file)
			if err != nil {
				return nil, fmt.Errorf("core: read env file %s: %w", file, err)
			}
			for key, value := range values {
				if _, exists := fileValues[key]; !exists {
					fileValues[key] = value
				}
			}
		}
	}

	raw := map[string]any{}
	for _, binding := range envBindings {
		value, ok := lookup(binding.name)
		if !ok {
			value, ok = fileValues[binding.name]
		}
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		parsed, err := parseEnvValue(binding, value)
		if err != nil {
			return nil, err
		}
		setPath(raw, binding.path, parsed)
	}
	return raw, nil
}

func parseEnvValue(binding envBinding, value string) (any, error) {
	switch binding.kind {
	case "duration":
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("core: %s must be a duration: %w", binding.name, err)
		}
		return parsed, nil
	case "int":
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("core: %s must be an integer: %w", binding.name, err)
		}
		return parsed, nil
	case "int64":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("core: %s must be an integer: %w", binding.name, err)
		}
		return parsed, nil
	case "float":
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("core: %s must be a number: %w", binding.name, err)
		}
		return parsed, nil
	case "bool":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("core: %s must be a boolean: %w", binding.name, err)
		}
		return parsed, nil
	case "list":
		return splitList(value), nil
	default:
		return value, nil
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func setPath(target map[string]any, path []string, value any) {
	current := target
	for i, key := range path {
		if i == len(path)-1 {
			current[key] = value
			return
		}
		next, ok := current[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		current = next
	}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("environment", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("environment"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	putString(layer, "service_name", cfg.ServiceName, includeZero)
	putString(layer, "datacenter", cfg.Datacenter, includeZero)
	if includeZero || len(cfg.AllowedHosts) > 0 {
		layer["allowed_hosts"] = append([]string(nil), cfg.AllowedHosts...)
	}

	httpLayer := map[string]any{}
	putString(httpLayer, "addr", cfg.HTTP.Addr, includeZero)
	putDuration(httpLayer, "request_timeout", cfg.HTTP.RequestTimeout, includeZero)
	putDuration(httpLayer, "transfer_timeout", cfg.HTTP.TransferTimeout, includeZero)
	if includeZero || cfg.HTTP.MaxBodyBytes != 0 {
		httpLayer["max_body_bytes"] = cfg.HTTP.MaxBodyBytes
	}
	if includeZero || cfg.HTTP.MaxResponseBytes != 0 {
		httpLayer["max_response_bytes"] = cfg.HTTP.MaxResponseBytes
	}
	putSection(layer, "http", httpLayer)

	apolloLayer := map[string]any{}
	putString(apolloLayer, "api_key", cfg.Apollo.APIKey, includeZero)
	putSection(layer, "apollo", apolloLayer)

	zohoLayer := map[string]any{}
	putString(zohoLayer, "client_id", cfg.Zoho.ClientID, includeZero)
	putString(zohoLayer, "client_secret", cfg.Zoho.ClientSecret, includeZero)
	putString(zohoLayer, "access_token", cfg.Zoho.AccessToken, includeZero)
	putString(zohoLayer, "refresh_token", cfg.Zoho.RefreshToken, includeZero)
	putString(zohoLayer, "owner", cfg.Zoho.Owner, includeZero)
	putString(zohoLayer, "app_name", cfg.Zoho.AppName, includeZero)
	putString(zohoLayer, "workspace_id", cfg.Zoho.WorkspaceID, includeZero)
	putString(zohoLayer, "redirect_uri", cfg.Zoho.RedirectURI, includeZero)
	if includeZero || len(cfg.Zoho.Scopes) > 0 {
		zohoLayer["scopes"] = append([]string(nil), cfg.Zoho.Scopes...)
	}
	putSection(layer, "zoho", zohoLayer)

	dbLayer := map[string]any{}
	putString(dbLayer, "driver", cfg.Database.Driver, includeZero)
	putString(dbLayer, "dsn", cfg.Database.DSN, includeZero)
	if includeZero || cfg.Database.Debug {
		dbLayer["debug"] = cfg.Database.Debug
	}
	putDuration(dbLayer, "ping_timeout", cfg.Database.PingTimeout, includeZero)
	putSection(layer, "database", dbLayer)

	searchLayer := map[string]any{}
	putDuration(searchLayer, "cache_ttl", cfg.Search.CacheTTL, includeZero)
	putInt(searchLayer, "default_per_page", cfg.Search.DefaultPerPage, includeZero)
	putInt(searchLayer, "max_per_page", cfg.Search.MaxPerPage, includeZero)
	putSection(layer, "search", searchLayer)

	assistantLayer := map[string]any{}
	putString(assistantLayer, "provider", cfg.Assistant.Provider, includeZero)
	putString(assistantLayer, "model", cfg.Assistant.Model, includeZero)
	putString(assistantLayer, "api_key", cfg.Assistant.APIKey, includeZero)
	putInt(assistantLayer, "max_records", cfg.Assistant.MaxRecords, includeZero)
	if includeZero || cfg.Assistant.MaxTokens != 0 {
		assistantLayer["max_tokens"] = cfg.Assistant.MaxTokens
	}
	putSection(layer, "assistant", assistantLayer)

	throttleLayer := map[string]any{}
	if includeZero || cfg.Throttle.RequestsPerSecond != 0 {
		throttleLayer["requests_per_second"] = cfg.Throttle.RequestsPerSecond
	}
	putInt(throttleLayer, "burst", cfg.Throttle.Burst, includeZero)
	putSection(layer, "throttle", throttleLayer)

	return layer
}

func putString(layer map[string]any, key string, value string, includeZero bool) {
	if includeZero || strings.TrimSpace(value) != "" {
		layer[key] = value
	}
}

func putInt(layer map[string]any, key string, value int, includeZero bool) {
	if includeZero || value != 0 {
		layer[key] = value
	}
}

func putDuration(layer map[string]any, key string, value time.Duration, includeZero bool) {
	if includeZero || value != 0 {
		layer[key] = value
	}
}

func putSection(layer map[string]any, key string, section map[string]any) {
	if len(section) > 0 {
		layer[key] = section
	}
}
