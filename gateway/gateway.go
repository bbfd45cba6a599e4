// Package gateway assembles the vendor gateway: database, stores, vendor
// services, the command bus and the HTTP surface.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	gocommandadapter "github.com/goliatone/go-vendorgate/adapters/gocommand"
	"github.com/goliatone/go-vendorgate/assistant"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/credentials"
	"github.com/goliatone/go-vendorgate/datacenter"
	"github.com/goliatone/go-vendorgate/drive"
	"github.com/goliatone/go-vendorgate/httpapi"
	"github.com/goliatone/go-vendorgate/oauth"
	"github.com/goliatone/go-vendorgate/search"
	sqlstore "github.com/goliatone/go-vendorgate/store/sql"
	"github.com/goliatone/go-vendorgate/transport"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Gateway struct {
	config        core.Config
	client        *persistence.Client
	factory       *sqlstore.RepositoryFactory
	router        *datacenter.Router
	credentials   *credentials.Store
	oauth         *oauth.Manager
	bus           *gocommandadapter.RegistryAdapter
	subscriptions gocommandadapter.Subscriptions
	handler       http.Handler
	logger        core.Logger
}

// New validates cfg and builds every component. The database is opened but
// not migrated; call Migrate before serving a fresh database.
func New(ctx context.Context, cfg core.Config, opts ...Option) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, core.BadRequestError(err.Error(), nil)
	}
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	client, err := OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	gw, err := assemble(cfg, client, o)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return gw, nil
}

func assemble(cfg core.Config, client *persistence.Client, o options) (*Gateway, error) {
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		return nil, core.InternalError("build stores", err)
	}
	activity := factory.ActivityStore()

	router := datacenter.NewRouterWithOverrides(o.vendorOverrides)
	store := credentials.NewStore(cfg)

	forwarder, err := transport.NewForwarder(transport.ForwarderConfig{
		HTTPClient:           o.httpClient,
		AllowList:            transport.NewAllowList(router.Hosts(), cfg.AllowedHosts),
		Resolver:             router,
		Throttle:             transport.NewThrottle(cfg.Throttle.RequestsPerSecond, cfg.Throttle.Burst),
		Timeout:              cfg.HTTP.RequestTimeout,
		MaxResponseBodyBytes: cfg.HTTP.MaxResponseBytes,
		Activity:             activity,
		Logger:               o.named("transport"),
	})
	if err != nil {
		return nil, err
	}
	proxy := transport.NewProxy(forwarder, store)

	driveSvc, err := drive.NewService(drive.ServiceConfig{
		Router:          router,
		HTTPClient:      o.httpClient,
		RequestTimeout:  cfg.HTTP.RequestTimeout,
		TransferTimeout: cfg.HTTP.TransferTimeout,
		Activity:        activity,
		Logger:          o.named("drive"),
	})
	if err != nil {
		return nil, err
	}

	manager, err := oauth.NewManager(oauth.ManagerConfig{
		Router:     router,
		HTTPClient: o.httpClient,
		Timeout:    cfg.HTTP.RequestTimeout,
		Logger:     o.named("oauth"),
	})
	if err != nil {
		return nil, err
	}

	cache, err := search.NewCacheService(cfg.Search.CacheTTL)
	if err != nil {
		return nil, core.InternalError("build search cache", err)
	}
	searchSvc, err := search.NewService(search.ServiceConfig{
		Router:         router,
		Caller:         proxy,
		Cache:          cache,
		DefaultPerPage: cfg.Search.DefaultPerPage,
		MaxPerPage:     cfg.Search.MaxPerPage,
		Logger:         o.named("search"),
	})
	if err != nil {
		return nil, err
	}

	assistantCfg := cfg.Assistant
	if provider, key, keyErr := store.AssistantAPIKey(); keyErr == nil {
		assistantCfg.Provider = provider
		assistantCfg.APIKey = key
	}
	completer, completerErr := assistant.NewCompleter(assistantCfg, o.assistantClient)
	assistantSvc, err := assistant.NewService(assistant.ServiceConfig{
		Completer:    completer,
		CompleterErr: completerErr,
		Records:      recordReader{leads: factory.LeadStore(), companies: factory.CompanyStore()},
		MaxRecords:   cfg.Assistant.MaxRecords,
		Logger:       o.named("assistant"),
	})
	if err != nil {
		return nil, err
	}

	bus := gocommandadapter.NewRegistryAdapter(nil)
	subscriptions, err := gocommandadapter.RegisterRecordHandlers(bus, gocommandadapter.RecordStores{
		Leads:     factory.LeadStore(),
		Companies: factory.CompanyStore(),
		Activity:  activity,
	})
	if err != nil {
		return nil, err
	}

	logger := o.named("gateway")
	server, err := httpapi.NewServer(httpapi.Dependencies{
		Config:      cfg,
		Credentials: store,
		Proxy:       proxy,
		Drive:       driveSvc,
		OAuth:       manager,
		Search:      searchSvc,
		Assistant:   assistantSvc,
		Leads:       factory.LeadStore(),
		Companies:   factory.CompanyStore(),
		Activity:    activity,
		Logger:      o.named("http"),
	})
	if err != nil {
		subscriptions.Unsubscribe()
		return nil, err
	}

	return &Gateway{
		config:        cfg,
		client:        client,
		factory:       factory,
		router:        router,
		credentials:   store,
		oauth:         manager,
		bus:           bus,
		subscriptions: subscriptions,
		handler:       server.Handler(),
		logger:        logger,
	}, nil
}

// Migrate applies pending schema migrations.
func (g *Gateway) Migrate(ctx context.Context) error {
	if err := g.client.Migrate(ctx); err != nil {
		return core.InternalError("apply migrations", err)
	}
	return nil
}

func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Serve listens on the configured address until ctx is cancelled, then
// drains in-flight requests.
func (g *Gateway) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              g.config.HTTP.Addr,
		Handler:           g.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		g.logger.Info("vendorgate listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway: listen: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		g.logger.Info("vendorgate shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (g *Gateway) Close() error {
	if g == nil {
		return nil
	}
	g.subscriptions.Unsubscribe()
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *Gateway) Stores() *sqlstore.RepositoryFactory {
	return g.factory
}

// Bus is the command/query adapter holding the record handlers.
func (g *Gateway) Bus() *gocommandadapter.RegistryAdapter {
	return g.bus
}

func (g *Gateway) OAuth() *oauth.Manager {
	return g.oauth
}

func (g *Gateway) Credentials() *credentials.Store {
	return g.credentials
}

func (g *Gateway) Router() *datacenter.Router {
	return g.router
}

type recordReader struct {
	leads     core.LeadStore
	companies core.CompanyStore
}

func (r recordReader) ListLeads(ctx context.Context, filter core.RecordFilter) (core.SavedLeadPage, error) {
	return r.leads.ListLeads(ctx, filter)
}

func (r recordReader) ListCompanies(ctx context.Context, filter core.RecordFilter) (core.SavedCompanyPage, error) {
	return r.companies.ListCompanies(ctx, filter)
}
