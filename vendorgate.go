// Package vendorgate is a server-side gateway in front of lead-enrichment,
// document-storage and low-code database vendors. Browser clients call it
// without ever holding vendor secrets.
//
// The gateway itself is assembled by package gateway; this package exposes
// the configuration entry points, the record facade and the embedded schema.
package vendorgate

import (
	"context"

	"github.com/goliatone/go-vendorgate/core"
)

type Config = core.Config

type HTTPConfig = core.HTTPConfig

type DatabaseConfig = core.DatabaseConfig

type AssistantConfig = core.AssistantConfig

type Logger = core.Logger

type LoggerProvider = core.LoggerProvider

type Vendor = core.Vendor

type Datacenter = core.Datacenter

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// LoadConfig layers defaults, the VENDORGATE_* environment (falling back to
// the given .env files) and runtime overrides.
func LoadConfig(ctx context.Context, runtime Config, envFiles ...string) (Config, error) {
	provider := core.NewCfgxConfigProvider(core.NewEnvLoader(envFiles...))
	return core.LoadConfig(ctx, provider, core.GoOptionsResolver{}, runtime)
}
