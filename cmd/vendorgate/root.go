package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-vendorgate"
	"github.com/goliatone/go-vendorgate/adapters/gologger"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/gateway"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli carries the flags and process-wide collaborators shared by every
// subcommand.
type cli struct {
	envFiles   []string
	logLevel   string
	devLogs    bool
	addr       string
	datacenter string
	dsn        string

	// httpClient replaces the outbound vendor client when set.
	httpClient core.HTTPDoer
	zapBase    *zap.Logger
	logger     *gologger.ZapLogger
	provider   *gologger.ZapProvider
}

func newCLI() *cli {
	return &cli{}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "vendorgate",
		Short:         "Credential-holding gateway for lead, drive and database vendors",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.initLogging()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringSliceVar(&c.envFiles, "env-file", []string{".env"}, "dotenv files read for VENDORGATE_* values missing from the environment")
	flags.StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.BoolVar(&c.devLogs, "dev-logs", false, "human readable development logs")
	flags.StringVar(&c.addr, "addr", "", "listen address override")
	flags.StringVar(&c.datacenter, "dc", "", "default datacenter override")
	flags.StringVar(&c.dsn, "database-dsn", "", "database dsn override")

	root.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newTokenCmd(c),
		newDatacentersCmd(c),
		newActivityCmd(c),
	)
	return root
}

func (c *cli) initLogging() error {
	base := c.zapBase
	if base == nil {
		built, err := gologger.NewZapLogger(c.logLevel, c.devLogs)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		base = built
	}
	c.zapBase = base
	c.logger = gologger.FromZap(base)
	c.provider = gologger.NewZapProvider(base)
	return nil
}

func (c *cli) loadConfig(ctx context.Context) (core.Config, error) {
	runtime := core.Config{
		HTTP:       core.HTTPConfig{Addr: strings.TrimSpace(c.addr)},
		Datacenter: strings.TrimSpace(c.datacenter),
		Database:   core.DatabaseConfig{DSN: strings.TrimSpace(c.dsn)},
	}
	return vendorgate.LoadConfig(ctx, runtime, c.envFiles...)
}

func (c *cli) gatewayOptions() []gateway.Option {
	opts := []gateway.Option{}
	if c.logger != nil {
		opts = append(opts, gateway.WithLogger(c.logger))
	}
	if c.provider != nil {
		opts = append(opts, gateway.WithLoggerProvider(c.provider))
	}
	if c.httpClient != nil {
		opts = append(opts, gateway.WithHTTPClient(c.httpClient))
	}
	return opts
}

func (c *cli) openGateway(ctx context.Context) (*gateway.Gateway, error) {
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return gateway.New(ctx, cfg, c.gatewayOptions()...)
}
