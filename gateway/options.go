package gateway

import (
	"github.com/goliatone/go-vendorgate/assistant"
	"github.com/goliatone/go-vendorgate/core"
)

type Option func(*options)

type options struct {
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	httpClient      core.HTTPDoer
	vendorOverrides map[core.Vendor]string
	assistantClient assistant.ClientOptions
}

func WithLogger(logger core.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *options) {
		o.loggerProvider = provider
	}
}

// WithHTTPClient replaces the outbound client used for every vendor call.
func WithHTTPClient(client core.HTTPDoer) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithVendorOverrides points vendors at alternative base URLs, usually mock
// servers.
func WithVendorOverrides(overrides map[core.Vendor]string) Option {
	return func(o *options) {
		if len(overrides) == 0 {
			return
		}
		if o.vendorOverrides == nil {
			o.vendorOverrides = map[core.Vendor]string{}
		}
		for vendor, base := range overrides {
			o.vendorOverrides[vendor] = base
		}
	}
}

func WithAssistantClientOptions(opts assistant.ClientOptions) Option {
	return func(o *options) {
		o.assistantClient = opts
	}
}

func (o options) named(name string) core.Logger {
	return core.ResolveLogger(name, o.loggerProvider, o.logger)
}
